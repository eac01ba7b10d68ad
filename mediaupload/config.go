package mediaupload

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"

	"github.com/vspstream/go-mediaupload/mediaupload/network/chunkuploader"
)

// Environment variables read by NewConfig.
const (
	EnvAPIURL             = "MEDIAUPLOAD_API_URL"
	EnvUsername           = "MEDIAUPLOAD_USERNAME"
	EnvPassword           = "MEDIAUPLOAD_PASSWORD"
	EnvChunkSize          = "MEDIAUPLOAD_CHUNK_SIZE"
	EnvAWSRegion          = "MEDIAUPLOAD_AWS_REGION"
	EnvAWSAccessKeyID     = "MEDIAUPLOAD_AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "MEDIAUPLOAD_AWS_SECRET_ACCESS_KEY"
)

// Secret is a string that never shows up in logs.
type Secret string

// String ...
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "*****"
}

// Config ...
type Config struct {
	APIURL    string
	Username  string
	Password  Secret
	ChunkSize int64
	S3        S3Config
}

// S3Config is only needed for s3:// sources.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey Secret
}

// Params converts the config to what the S3 part provider expects.
func (c S3Config) Params() chunkuploader.S3Params {
	return chunkuploader.S3Params{
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: string(c.SecretAccessKey),
	}
}

// NewConfig reads the upload configuration from the environment.
func NewConfig(envRepo env.Repository) (Config, error) {
	apiURL := strings.TrimSpace(envRepo.Get(EnvAPIURL))
	if apiURL == "" {
		return Config{}, fmt.Errorf("the secret '%s' is not defined", EnvAPIURL)
	}
	if u, err := url.Parse(apiURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("'%s' is not a valid URL: %s", EnvAPIURL, apiURL)
	}

	username := envRepo.Get(EnvUsername)
	if username == "" {
		return Config{}, fmt.Errorf("the secret '%s' is not defined", EnvUsername)
	}
	password := envRepo.Get(EnvPassword)
	if password == "" {
		return Config{}, fmt.Errorf("the secret '%s' is not defined", EnvPassword)
	}

	chunkSize, err := ParseChunkSize(envRepo.Get(EnvChunkSize))
	if err != nil {
		return Config{}, fmt.Errorf("invalid '%s': %w", EnvChunkSize, err)
	}

	return Config{
		APIURL:    apiURL,
		Username:  username,
		Password:  Secret(password),
		ChunkSize: chunkSize,
		S3: S3Config{
			Region:          envRepo.Get(EnvAWSRegion),
			AccessKeyID:     envRepo.Get(EnvAWSAccessKeyID),
			SecretAccessKey: Secret(envRepo.Get(EnvAWSSecretAccessKey)),
		},
	}, nil
}

// ParseChunkSize parses a human readable size like "512k" or "1m" (binary units).
// An empty value selects the default chunk size.
func ParseChunkSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return chunkuploader.DefaultChunkSize, nil
	}

	size, err := units.RAMInBytes(value)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	return size, nil
}
