// Package cli implements the mediaupload command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/spf13/cobra"

	"github.com/vspstream/go-mediaupload/credential"
	"github.com/vspstream/go-mediaupload/mediaupload"
	"github.com/vspstream/go-mediaupload/mediaupload/network"
	"github.com/vspstream/go-mediaupload/mediaupload/progress"
)

type globalFlags struct {
	configPath string
	apiURL     string
	chunkSize  string
	verbose    bool
}

var (
	flags   globalFlags
	envRepo = env.NewRepository()
	logger  = log.NewLogger()
)

var rootCmd = &cobra.Command{
	Use:           "mediaupload",
	Short:         "Chunked media upload client",
	Long:          "Uploads media files to a media service in fixed-size parts and commits them into its catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.EnableDebugLog(flags.verbose)

		path, err := loadConfigFile(flags.configPath, envRepo)
		if err != nil {
			return err
		}
		if path != "" {
			logger.Debugf("Config loaded from %s", path)
		}

		// Flags win over both the environment and the config file
		if flags.apiURL != "" {
			if err := envRepo.Set(mediaupload.EnvAPIURL, flags.apiURL); err != nil {
				return err
			}
		}
		if flags.chunkSize != "" {
			if err := envRepo.Set(mediaupload.EnvChunkSize, flags.chunkSize); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "",
		"Base URL of the media service (overrides "+mediaupload.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&flags.chunkSize, "chunk-size", "",
		"Part size, e.g. 512k (overrides "+mediaupload.EnvChunkSize+")")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newFetchCmd())
}

// newLoggedInUploader reads the config, logs in and returns an uploader holding the credential.
func newLoggedInUploader(ctx context.Context) (*mediaupload.Uploader, error) {
	config, err := mediaupload.NewConfig(envRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	client := network.NewClient(config.APIURL, logger)
	uploader := mediaupload.NewUploader(client, credential.NewStore(), mediaupload.Options{
		ChunkSize: config.ChunkSize,
		S3:        config.S3,
		Reporter:  progress.NewLogReporter(logger),
	}, logger)

	if err := uploader.Login(ctx, config.Username, string(config.Password)); err != nil {
		return nil, err
	}
	return uploader, nil
}
