package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List committed artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader, err := newLoggedInUploader(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := uploader.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				logger.Printf("No artifacts found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tSIZE\tOWNER\tCREATED")
			for _, e := range entries {
				created := ""
				if e.Created > 0 {
					created = time.Unix(e.Created, 0).Format(time.RFC3339)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ArtifactID, e.Title, units.HumanSizeWithPrecision(float64(e.Size), 3), e.Owner, created)
			}
			return w.Flush()
		},
	}
}
