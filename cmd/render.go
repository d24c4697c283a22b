package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/model"
	"github.com/przemekoduje/overo/internal/overlay"
)

var (
	renderWidth  float64
	renderHeight float64
	renderOpen   string
)

var renderCmd = &cobra.Command{
	Use:   "render <collection> <look>",
	Short: "Print the SVG hotspot overlay of a look",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key := model.LookKey{Collection: args[0], Look: args[1]}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		look, err := s.GetLook(ctx, key)
		if err != nil {
			return err
		}

		v := overlay.NewViewer(s, false)
		if err := v.Select(ctx, key); err != nil {
			return err
		}
		if renderOpen != "" {
			v.Interact(func(f *overlay.Focus) { f.Click(renderOpen) })
		}

		w, h := renderWidth, renderHeight
		if w == 0 && h == 0 {
			w, h = float64(look.Width), float64(look.Height)
		}
		sc, err := v.Scene(w, h)
		if err != nil {
			return err
		}
		return overlay.RenderSVG(os.Stdout, sc)
	},
}

func init() {
	renderCmd.Flags().Float64Var(&renderWidth, "width", 0, "Rendered box width (default: natural width)")
	renderCmd.Flags().Float64Var(&renderHeight, "height", 0, "Rendered box height (default: natural height)")
	renderCmd.Flags().StringVar(&renderOpen, "open", "", "Hotspot id to show as open")
	rootCmd.AddCommand(renderCmd)
}
