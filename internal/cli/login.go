package cli

import (
	"github.com/spf13/cobra"

	"github.com/vspstream/go-mediaupload/credential"
	"github.com/vspstream/go-mediaupload/mediaupload"
	"github.com/vspstream/go-mediaupload/mediaupload/network"
)

func newLoginCmd() *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := mediaupload.NewConfig(envRepo)
			if err != nil {
				return err
			}

			store := credential.NewStore()
			client := network.NewClient(config.APIURL, logger)
			uploader := mediaupload.NewUploader(client, store, mediaupload.Options{}, logger)
			if err := uploader.Login(cmd.Context(), config.Username, string(config.Password)); err != nil {
				return err
			}

			logger.Donef("Logged in to %s as %s", config.APIURL, config.Username)
			if showToken {
				token, err := store.Token()
				if err != nil {
					return err
				}
				logger.Printf("Token: %s", string(token))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the issued token")

	return cmd
}
