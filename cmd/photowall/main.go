// Command photowall is a thin CLI over the photowall engine: scan, index,
// search, and warm the thumbnail cache for a library without a host UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, matching the contract a host process observes.
const (
	exitSuccess            = 0
	exitInvalidArgs        = 2
	exitLibraryBusy        = 3
	exitStorageUnavailable = 4
	exitCancelled          = 5
	exitInternal           = 10
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "photowall",
	Short: "Photowall photo library engine CLI",
	Long: `photowall indexes a directory tree of photos into a local SQLite
catalog, extracts EXIF metadata, and generates tiered WebP thumbnails.

It is a thin wrapper over the engine's library facade, intended for
scripting and diagnostics rather than as the primary UI.`,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the catalog database (defaults to the OS-standard app data directory)")
	rootCmd.PersistentFlags().String("thumbnails", "", "Path to the thumbnail cache root (defaults to the OS-standard app data directory)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(thumbnailCmd)
	rootCmd.AddCommand(watchCmd)
}
