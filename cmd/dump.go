package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/catalog"
)

var dumpOut string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the catalog as TOML, in the format seed reads",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		f, err := catalog.Dump(cmd.Context(), s)
		if err != nil {
			return err
		}

		if dumpOut == "" || dumpOut == "-" {
			return catalog.Write(os.Stdout, f)
		}
		out, err := os.Create(dumpOut)
		if err != nil {
			return err
		}
		if err := catalog.Write(out, f); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d collections to %s\n", len(f.Collections), dumpOut)
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(dumpCmd)
}
