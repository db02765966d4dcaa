package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLastCmd() *cobra.Command {
	var (
		category string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Shows the most recently stored image",
		Long: `Prints the metadata of the newest stored image for a category as JSON, or
writes its bytes to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			img, err := appInstance.Service().GetLatest(cmd.Context(), category)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, img.Payload, 0o600); err != nil {
					return fmt.Errorf("write image: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes (%s) to %s\n", len(img.Payload), img.ContentType, outPath)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(img); err != nil {
				return fmt.Errorf("encode image metadata: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "type", "", "animal category (dog, cat, bear, duck)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the image bytes to this file instead of printing metadata")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
