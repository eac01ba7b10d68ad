package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/env"
	"gopkg.in/yaml.v3"

	"github.com/vspstream/go-mediaupload/mediaupload"
)

// EnvConfigPath points to a config file when --config is not given.
const EnvConfigPath = "MEDIAUPLOAD_CONFIG"

type fileConfig struct {
	APIURL    string `yaml:"api_url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ChunkSize string `yaml:"chunk_size"`
	AWS       struct {
		Region          string `yaml:"region"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"aws"`
}

func (c fileConfig) values() map[string]string {
	return map[string]string{
		mediaupload.EnvAPIURL:             c.APIURL,
		mediaupload.EnvUsername:           c.Username,
		mediaupload.EnvPassword:           c.Password,
		mediaupload.EnvChunkSize:          c.ChunkSize,
		mediaupload.EnvAWSRegion:          c.AWS.Region,
		mediaupload.EnvAWSAccessKeyID:     c.AWS.AccessKeyID,
		mediaupload.EnvAWSSecretAccessKey: c.AWS.SecretAccessKey,
	}
}

// configPaths lists the config file candidates in order of precedence.
func configPaths(explicit string, envRepo env.Repository) []string {
	paths := []string{
		explicit,
		envRepo.Get(EnvConfigPath),
		"./mediaupload.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mediaupload", "config.yaml"))
	}
	return paths
}

// loadConfigFile reads the first config file found and exports its values to envRepo.
// Values already present in the environment are kept. It returns the path of the loaded file,
// or an empty string when there was none.
func loadConfigFile(explicit string, envRepo env.Repository) (string, error) {
	for i, path := range configPaths(explicit, envRepo) {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			// Only the default locations are optional
			if errors.Is(err, os.ErrNotExist) && i > 1 {
				continue
			}
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		var config fileConfig
		if err := yaml.Unmarshal(data, &config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		for key, value := range config.values() {
			if value == "" || envRepo.Get(key) != "" {
				continue
			}
			if err := envRepo.Set(key, value); err != nil {
				return "", fmt.Errorf("failed to export %s: %w", key, err)
			}
		}

		return path, nil
	}

	return "", nil
}
