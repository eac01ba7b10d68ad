package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vspstream/go-mediaupload/mediaupload"
	"github.com/vspstream/go-mediaupload/mediaupload/network"
)

func newFetchCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <artifact-id>",
		Short: "Download a committed artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL := strings.TrimSpace(envRepo.Get(mediaupload.EnvAPIURL))
			if apiURL == "" {
				return fmt.Errorf("the secret '%s' is not defined", mediaupload.EnvAPIURL)
			}

			artifactID := args[0]
			if output == "" {
				output = artifactID + ".mp4"
			}

			client := network.NewClient(apiURL, logger)
			if err := client.Download(cmd.Context(), network.DownloadParams{
				ArtifactID:   artifactID,
				DownloadPath: output,
			}); err != nil {
				return err
			}

			logger.Donef("Saved %s to %s", artifactID, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default <artifact-id>.mp4)")

	return cmd
}
