package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photowall/engine/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Walk a directory and report how many image files it contains, without indexing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		recursive, _ := cmd.Flags().GetBool("recursive")
		opts := scanner.DefaultOptions()
		opts.Recursive = recursive

		res, err := lib.ScanDirectory(args[0], opts)
		if err != nil {
			return err
		}

		fmt.Printf("Found %d image files under %s\n", len(res.Files), res.Root)
		for _, scanErr := range res.Errors {
			fmt.Printf("  warning: %v\n", scanErr)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Bool("recursive", true, "Recurse into subdirectories")
}
