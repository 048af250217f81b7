package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/photowall/engine/thumbnail"
)

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail",
	Short: "Generate or inspect cached thumbnails",
}

var thumbnailWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Generate missing thumbnails for the most recently added photos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		tierFlag, _ := cmd.Flags().GetString("tier")
		limit, _ := cmd.Flags().GetInt("limit")

		tier, err := parseTier(tierFlag)
		if err != nil {
			return err
		}
		if err := lib.WarmCache(tier, limit); err != nil {
			return err
		}
		fmt.Printf("Queued thumbnail generation for up to %d photos at tier %s\n", limit, tier)
		return nil
	},
}

var thumbnailGetCmd = &cobra.Command{
	Use:   "get PHOTO_ID",
	Short: "Print the cached thumbnail path for a photo, enqueueing generation if missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		tierFlag, _ := cmd.Flags().GetString("tier")
		tier, err := parseTier(tierFlag)
		if err != nil {
			return err
		}

		photo, err := lib.GetPhoto(id)
		if err != nil {
			return err
		}
		if path, ok := lib.GetPathIfCached(photo.FileHash, tier); ok {
			fmt.Println(path)
			return nil
		}

		if err := lib.Enqueue(id, thumbnail.PriorityVisible); err != nil {
			return err
		}
		fmt.Println("not cached yet, generation enqueued")
		return nil
	},
}

func parseTier(s string) (thumbnail.Tier, error) {
	switch s {
	case "tiny":
		return thumbnail.Tiny, nil
	case "small":
		return thumbnail.Small, nil
	case "medium":
		return thumbnail.Medium, nil
	case "large":
		return thumbnail.Large, nil
	default:
		return "", fmt.Errorf("unknown tier %q (want tiny, small, medium, large)", s)
	}
}

func init() {
	thumbnailWarmCmd.Flags().String("tier", "medium", "Thumbnail tier: tiny, small, medium, large")
	thumbnailWarmCmd.Flags().Int("limit", 200, "Maximum photos to warm")
	thumbnailGetCmd.Flags().String("tier", "medium", "Thumbnail tier: tiny, small, medium, large")

	thumbnailCmd.AddCommand(thumbnailWarmCmd)
	thumbnailCmd.AddCommand(thumbnailGetCmd)
}
