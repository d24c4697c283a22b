package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/przemekoduje/overo/internal/scraper"
)

var fetchProductCmd = &cobra.Command{
	Use:   "fetch-product <url>",
	Short: "Show the hotspot metadata a shop page would prefill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newFetcher().FetchProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Title: %s\n", p.Title)
		if p.Brand != "" {
			fmt.Printf("Brand: %s\n", p.Brand)
		}
		if price := scraper.DisplayPrice(p); price != "" {
			fmt.Printf("Price: %s\n", price)
		}
		if p.Image != "" {
			fmt.Printf("Image: %s\n", p.Image)
		}
		fmt.Printf("URL:   %s\n", p.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchProductCmd)
}
