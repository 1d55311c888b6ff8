package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Scan performs a single fetch-and-analyze pass and prints the results.
// The notification gate is not involved: scan reports raw market state.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = a.Config.WatchSymbols()
	}

	manager := a.newFetchManager()
	samples, err := manager.FetchAll(ctx, symbols)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples collected")
		return nil
	}

	anlz := a.newAnalyzer()
	opportunities := anlz.Analyze(samples)
	overview := anlz.Overview(samples)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tSpread%\tBuy\tBuy Price\tSell\tSell Price\tVolume 24h")
	for _, opp := range opportunities {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			opp.Symbol,
			opp.SpreadPct.StringFixed(2),
			opp.BuyVenue,
			formatDecimal(opp.BuyPrice, 8),
			opp.SellVenue,
			formatDecimal(opp.SellPrice, 8),
			formatDecimal(opp.MinVolume24h, 0),
		)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\n%d of %d symbols above %.1f%% threshold, max spread %s%%, %d samples at %s\n",
		overview.SymbolsWithSpread,
		overview.SymbolsMonitored,
		a.Config.Monitor.ThresholdPct,
		overview.MaxSpreadPct.StringFixed(2),
		len(samples),
		overview.Timestamp.UTC().Format(time.RFC3339),
	)
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
