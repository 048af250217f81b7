package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photowall/engine/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index DIR...",
	Short: "Scan and persist one or more directories into the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		opts := indexer.DefaultOptions()
		opts.SkipExisting, _ = cmd.Flags().GetBool("skip-existing")
		opts.DetectDuplicates, _ = cmd.Flags().GetBool("detect-duplicates")

		progress := func(p indexer.Progress) {
			fmt.Printf("\r%d/%d (%.0f%%) indexed=%d skipped=%d failed=%d  %s",
				p.Processed, p.Total, p.Percentage, p.Indexed, p.Skipped, p.Failed, p.CurrentFile)
		}

		var result indexer.Result
		if len(args) == 1 {
			result, err = lib.IndexDirectory(context.Background(), args[0], opts, progress)
		} else {
			var results []indexer.Result
			results, err = lib.IndexDirectories(context.Background(), args, opts, progress)
			for _, r := range results {
				result.Indexed += r.Indexed
				result.Skipped += r.Skipped
				result.Failed += r.Failed
				result.FailedFiles = append(result.FailedFiles, r.FailedFiles...)
			}
		}
		fmt.Println()
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d, skipped %d, failed %d\n", result.Indexed, result.Skipped, result.Failed)
		for _, f := range result.FailedFiles {
			fmt.Printf("  failed: %s (%v)\n", f.Path, f.Err)
		}
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh-metadata",
	Short: "Re-extract EXIF metadata for every indexed photo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		progress := func(p indexer.Progress) {
			fmt.Printf("\r%d/%d (%.0f%%)", p.Processed, p.Total, p.Percentage)
		}
		result, err := lib.RefreshMetadata(context.Background(), progress)
		fmt.Println()
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d, failed %d\n", result.Indexed, result.Failed)
		return nil
	},
}

func init() {
	indexCmd.Flags().Bool("skip-existing", true, "Skip files already present by path")
	indexCmd.Flags().Bool("detect-duplicates", true, "Skip files whose content hash already exists under a different path")
	rootCmd.AddCommand(refreshCmd)
}
