package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/animal-images/internal/api"
)

func newFetchCmd() *cobra.Command {
	var (
		category string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetches and stores one batch of images",
		Long: `Runs count sequential fetch attempts for one category and prints the outcome
of each attempt. Failed attempts are reported but do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, err := appInstance.Service().FetchAndStoreReport(cmd.Context(), category, count)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", category, err)
			}

			out := cmd.OutOrStdout()
			for i, a := range report.Attempts {
				if a.OK() {
					fmt.Fprintf(out, "%d ok   %s id=%s bytes=%d\n", i+1, a.URL, a.Image.ID, a.Image.SizeBytes)
					continue
				}
				fmt.Fprintf(out, "%d fail %s %v\n", i+1, a.URL, a.Err)
			}
			stored := len(report.Stored())
			if stored == 0 {
				fmt.Fprintln(out, api.NoImagesInfo)
				return nil
			}
			fmt.Fprintf(out, "stored %d of %d %s images\n", stored, report.Requested, report.Category)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "type", "", "animal category (dog, cat, bear, duck)")
	cmd.Flags().IntVar(&count, "count", 1, "number of fetch attempts")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
