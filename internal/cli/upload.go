package cli

import (
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "upload [paths...]",
		Short: "Upload media files",
		Long: `Upload media files, one session per file, one after another.
Paths may contain ** patterns; s3://bucket/key sources are read from S3.
The first failure stops the batch. Nothing is retried.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader, err := newLoggedInUploader(cmd.Context())
			if err != nil {
				return err
			}

			results, err := uploader.UploadAll(cmd.Context(), args, title)
			for _, result := range results {
				if result.ArtifactID == "" {
					continue
				}
				logger.Printf("%s  %s  %s  %d parts  %s", result.ArtifactID, result.Session.Title,
					units.HumanSizeWithPrecision(float64(result.Bytes), 3), result.PartCount,
					result.Duration.Round(time.Millisecond))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Artifact title (single source only, defaults to the file name)")

	return cmd
}
