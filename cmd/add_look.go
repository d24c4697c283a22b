package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/catalog"
	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/model"
)

var (
	addLookID    string
	addLookTitle string
	addLookSrc   string
)

var addLookCmd = &cobra.Command{
	Use:   "add-look <collection> <image>",
	Short: "Add a look image to a collection",
	Long: `Copy a local image into the upload directory and register it as a look.
With --src the image is not copied: it is only probed for its natural size
and the look points at the given URL.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, file := args[0], args[1]
		ctx := cmd.Context()

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.GetCollection(ctx, collection); err != nil {
			return fmt.Errorf("collection %q: %w", collection, err)
		}

		id := addLookID
		if id == "" {
			id = catalog.Slug(file)
		}
		look := model.Look{CollectionID: collection, ID: id, Title: addLookTitle}
		if look.Title == "" {
			look.Title = catalog.DisplayName(id)
		}

		if addLookSrc != "" {
			w, h, err := media.Probe(file)
			if err != nil {
				return err
			}
			look.Src, look.Width, look.Height = addLookSrc, w, h
		} else {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			st, err := newProcessor().Save(look.Key(), filepath.Base(file), fh)
			if err != nil {
				return err
			}
			look.Src, look.Width, look.Height, look.Variants = st.Src, st.Width, st.Height, st.Variants
			logVerbose("  stored %s with %d variants", st.Src, len(st.Variants))
		}

		saved, err := s.AddLook(ctx, look)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%dx%d) at position %d\n", saved.Key(), saved.Width, saved.Height, saved.Position)
		return nil
	},
}

func init() {
	addLookCmd.Flags().StringVar(&addLookID, "id", "", "Look id (default: file name without extension)")
	addLookCmd.Flags().StringVar(&addLookTitle, "title", "", "Look title (default: derived from id)")
	addLookCmd.Flags().StringVar(&addLookSrc, "src", "", "Serve the look from this URL instead of uploading the file")
	rootCmd.AddCommand(addLookCmd)
}
