package mediaupload

import (
	"fmt"
	"testing"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	value, ok := repo.envVars[key]
	if ok {
		return value
	}
	return ""
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	delete(repo.envVars, key)
	return nil
}

func (repo fakeEnvRepo) List() []string {
	var values []string
	for k, v := range repo.envVars {
		values = append(values, fmt.Sprintf("%s=%s", k, v))
	}
	return values
}

func newEnvRepo(envVars map[string]string) env.Repository {
	return fakeEnvRepo{envVars: envVars}
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
		wantErr string
	}{
		{
			name: "Minimal config",
			envVars: map[string]string{
				EnvAPIURL:   "http://localhost:9080",
				EnvUsername: "alice",
				EnvPassword: "secret",
			},
			want: Config{
				APIURL:    "http://localhost:9080",
				Username:  "alice",
				Password:  "secret",
				ChunkSize: 524288,
			},
		},
		{
			name: "Full config",
			envVars: map[string]string{
				EnvAPIURL:             " https://media.example.com/ ",
				EnvUsername:           "alice",
				EnvPassword:           "secret",
				EnvChunkSize:          "1m",
				EnvAWSRegion:          "eu-west-1",
				EnvAWSAccessKeyID:     "AKIA",
				EnvAWSSecretAccessKey: "aws-secret",
			},
			want: Config{
				APIURL:    "https://media.example.com/",
				Username:  "alice",
				Password:  "secret",
				ChunkSize: 1048576,
				S3: S3Config{
					Region:          "eu-west-1",
					AccessKeyID:     "AKIA",
					SecretAccessKey: "aws-secret",
				},
			},
		},
		{
			name:    "Missing API URL",
			envVars: map[string]string{EnvUsername: "alice", EnvPassword: "secret"},
			wantErr: "the secret 'MEDIAUPLOAD_API_URL' is not defined",
		},
		{
			name:    "Invalid API URL",
			envVars: map[string]string{EnvAPIURL: "localhost", EnvUsername: "alice", EnvPassword: "secret"},
			wantErr: "is not a valid URL",
		},
		{
			name:    "Missing password",
			envVars: map[string]string{EnvAPIURL: "http://localhost:9080", EnvUsername: "alice"},
			wantErr: "the secret 'MEDIAUPLOAD_PASSWORD' is not defined",
		},
		{
			name: "Invalid chunk size",
			envVars: map[string]string{
				EnvAPIURL:    "http://localhost:9080",
				EnvUsername:  "alice",
				EnvPassword:  "secret",
				EnvChunkSize: "lots",
			},
			wantErr: "invalid 'MEDIAUPLOAD_CHUNK_SIZE'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig(newEnvRepo(tt.envVars))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChunkSize(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{value: "", want: 524288},
		{value: "524288", want: 524288},
		{value: "512k", want: 524288},
		{value: "2m", want: 2097152},
		{value: "0", wantErr: true},
		{value: "-1", wantErr: true},
		{value: "big", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseChunkSize(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecret_String(t *testing.T) {
	assert.Equal(t, "*****", Secret("secret").String())
	assert.Equal(t, "", Secret("").String())
	assert.NotContains(t, fmt.Sprint(Config{Password: "secret"}), "secret")
}
