package cli

import (
	"github.com/spf13/cobra"

	"cardwatch/internal/app"
)

var (
	checkName    string
	checkSource  string
	checkLocator string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch and parse one item from one source without persisting",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CheckOptions{
			Name:    checkName,
			Source:  checkSource,
			Locator: checkLocator,
		}
		return getApp().Check(cmd.Context(), opts)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkName, "name", "", "Canonical item name")
	checkCmd.Flags().StringVar(&checkSource, "source", "cardmarket", "Source to check (cardmarket or vinted)")
	checkCmd.Flags().StringVar(&checkLocator, "locator", "", "Product page path (cardmarket only)")
}
