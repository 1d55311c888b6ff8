package cli

import (
	"github.com/spf13/cobra"

	"cex-arb-alerts/internal/app"
)

var scanSymbols []string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one fetch-and-analyze pass and print the spreads",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			Symbols: scanSymbols,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanSymbols, "symbols", nil, "Symbols to scan (default: configured watchlist)")
}
