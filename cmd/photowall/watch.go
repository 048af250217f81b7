package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photowall/engine/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR...",
	Short: "Auto-scan and realtime-watch one or more roots until interrupted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		intervalSecs, _ := cmd.Flags().GetInt("interval")
		realtime, _ := cmd.Flags().GetBool("realtime")
		recursive, _ := cmd.Flags().GetBool("recursive")

		settings := config.Default()
		settings.Scan.AutoScan = true
		settings.Scan.WatchedFolders = args
		settings.Scan.ScanIntervalSecs = intervalSecs
		settings.Scan.RealtimeWatch = realtime
		settings.Scan.Recursive = recursive
		settings.Normalize()

		if err := lib.ApplySettings(settings); err != nil {
			return err
		}

		fmt.Printf("Watching %d root(s). Press Ctrl+C to stop.\n", len(args))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		return nil
	},
}

func init() {
	watchCmd.Flags().Int("interval", 300, "Base auto-scan interval in seconds, before stepped backoff")
	watchCmd.Flags().Bool("realtime", true, "Also watch for filesystem change events between scans")
	watchCmd.Flags().Bool("recursive", true, "Recurse into subdirectories")
}
