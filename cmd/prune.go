package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete uploaded images that no look refers to",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		cols, err := s.ListCollections(ctx)
		if err != nil {
			return err
		}
		var looks []model.Look
		for _, c := range cols {
			ls, err := s.ListLooks(ctx, c.ID)
			if err != nil {
				return err
			}
			looks = append(looks, ls...)
		}

		p := newProcessor()
		orphans, err := p.Orphans(media.Referenced(looks))
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p.Dir, err)
		}
		if len(orphans) == 0 {
			fmt.Println("No orphaned uploads.")
			return nil
		}
		for _, f := range orphans {
			fmt.Printf("  %s\n", f)
		}
		if pruneDryRun {
			fmt.Printf("%d orphaned files (dry run, nothing deleted)\n", len(orphans))
			return nil
		}
		fmt.Printf("Deleted %d of %d orphaned files\n", media.Prune(orphans), len(orphans))
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Only list the files that would be deleted")
	rootCmd.AddCommand(pruneCmd)
}
