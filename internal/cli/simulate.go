package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cex-arb-alerts/internal/app"
)

var (
	simSymbol    string
	simBuyVenue  string
	simSellVenue string
	simBuyPrice  float64
	simSellPrice float64
	simVolume    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Push a synthetic opportunity through the alert pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simBuyPrice <= 0 || simSellPrice <= 0 {
			return fmt.Errorf("--buy-price and --sell-price must be greater than zero")
		}

		opts := app.SimulateOptions{
			Symbol:    simSymbol,
			BuyVenue:  simBuyVenue,
			SellVenue: simSellVenue,
			BuyPrice:  simBuyPrice,
			SellPrice: simSellPrice,
			VolumeUSD: simVolume,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simSymbol, "symbol", "TEST/USDT", "Instrument symbol")
	simulateCmd.Flags().StringVar(&simBuyVenue, "buy-venue", "binance", "Buy-side venue name")
	simulateCmd.Flags().StringVar(&simSellVenue, "sell-venue", "kucoin", "Sell-side venue name")
	simulateCmd.Flags().Float64Var(&simBuyPrice, "buy-price", 100, "Buy-side price")
	simulateCmd.Flags().Float64Var(&simSellPrice, "sell-price", 112, "Sell-side price")
	simulateCmd.Flags().Float64Var(&simVolume, "volume", 1_000_000, "24h volume in USD for both samples")
}
