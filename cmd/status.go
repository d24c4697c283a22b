package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog size",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		counts, err := s.Counts(ctx)
		if err != nil {
			return err
		}
		seededAt, err := s.Meta(ctx, "seeded_at")
		if err != nil {
			return err
		}

		fmt.Printf("Catalog Status\n")
		fmt.Printf("==============\n")
		fmt.Printf("Store:        %s\n", cfg.Store.Driver)
		fmt.Printf("Collections:  %d\n", counts.Collections)
		fmt.Printf("Looks:        %d\n", counts.Looks)
		fmt.Printf("Hotspots:     %d\n", counts.Hotspots)
		if seededAt != "" {
			fmt.Printf("Last seeded:  %s\n", seededAt)
		}

		cols, err := s.ListCollections(ctx)
		if err != nil {
			return err
		}
		if len(cols) > 0 {
			fmt.Printf("\nPer-Collection Breakdown\n")
			fmt.Printf("------------------------\n")
		}
		for _, c := range cols {
			looks, err := s.ListLooks(ctx, c.ID)
			if err != nil {
				return err
			}
			spots := 0
			for _, l := range looks {
				hs, err := s.LoadHotspots(ctx, l.Key())
				if err != nil {
					return err
				}
				spots += len(hs)
			}
			fmt.Printf("  %-12s  looks: %3d  hotspots: %4d\n", c.ID, len(looks), spots)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
