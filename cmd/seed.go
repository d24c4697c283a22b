package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/catalog"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.toml>",
	Short: "Import collections, looks and hotspots from a catalog file",
	Long: `Import a TOML catalog. Collections and looks are upserted. Hotspots are
written only for looks that have none yet, so shapes drawn in the editor are
kept unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		for _, c := range f.Collections {
			logVerbose("  %s: %d looks", c.ID, len(c.Looks))
		}

		im := &catalog.Importer{
			Store:    s,
			Uploader: newProcessor(),
			BaseDir:  filepath.Dir(args[0]),
			Force:    seedForce,
		}
		rep, err := im.Import(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}

		fmt.Printf("Imported %d collections, %d looks, %d hotspots", rep.Collections, rep.Looks, rep.Hotspots)
		if rep.Skipped > 0 {
			fmt.Printf(" (kept existing hotspots on %d looks)", rep.Skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Replace hotspots on looks that already have some")
	rootCmd.AddCommand(seedCmd)
}
