package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photowall/engine/store"
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search the catalog with the field/boolean query grammar, or list everything if QUERY is omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		sortFlag, _ := cmd.Flags().GetString("sort")
		descFlag, _ := cmd.Flags().GetBool("desc")

		sort := store.SortDateTaken
		switch sortFlag {
		case "date-added":
			sort = store.SortDateAdded
		case "rating":
			sort = store.SortRating
		case "name":
			sort = store.SortFileName
		}
		dir := store.Asc
		if descFlag {
			dir = store.Desc
		}

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		page, err := lib.Search(query, sort, dir, nil, limit)
		if err != nil {
			return err
		}

		for _, p := range page.Photos {
			rating := ""
			if p.Rating > 0 {
				rating = fmt.Sprintf(" [%d*]", p.Rating)
			}
			fmt.Printf("%d\t%s%s\n", p.ID, p.FilePath, rating)
		}
		fmt.Printf("\n%d result(s), more=%v\n", len(page.Photos), page.HasMore)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 50, "Maximum results to return")
	searchCmd.Flags().String("sort", "date-taken", "Sort field: date-taken, date-added, rating, name")
	searchCmd.Flags().Bool("desc", true, "Sort descending")
}
