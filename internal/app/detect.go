package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

// Detect runs one detection pass and prints the ranked opportunity set.
func (a *App) Detect(ctx context.Context, opts DetectOptions) error {
	if opts.TopLimit <= 0 {
		opts.TopLimit = 10
	}

	engine := a.newEngine()
	if _, err := engine.DetectOpportunities(ctx, opts.MinDurationHours); err != nil {
		return err
	}

	top := engine.TopOpportunities(opts.TopLimit)
	if len(top) == 0 {
		fmt.Fprintln(os.Stdout, "no profitable opportunities found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "From\tTo\tAmount (BTC)\tAPY Diff\tNet Profit (BTC)\tROI%")
	for _, opp := range top {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			opp.FromProtocol,
			opp.ToProtocol,
			formatBTC(opp.AmountBTC),
			formatPct(opp.APYDifferential),
			formatBTC(opp.NetProfitBTC),
			formatPct(opp.ROIPercent),
		)
	}
	writer.Flush()

	metrics := engine.PerformanceMetrics()
	fmt.Fprintf(os.Stdout, "\n%d opportunities across %d protocols, best ROI %s%%, total potential profit %s BTC\n",
		metrics.TotalOpportunities,
		metrics.ProtocolsMonitored,
		formatPct(metrics.BestROI),
		formatBTC(metrics.TotalPotentialProfit),
	)
	return nil
}

// Simulate prints the outcome of one hypothetical rotation.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	engine := a.newEngine()

	sim, err := engine.SimulateRotation(ctx, opts.FromProtocol, opts.ToProtocol, decimal.NewFromFloat(opts.AmountBTC))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "rotation %s -> %s, %s BTC\n", sim.FromProtocol, sim.ToProtocol, formatBTC(sim.AmountBTC))
	fmt.Fprintf(os.Stdout, "  APY: %s%% -> %s%%\n", formatPct(sim.FromAPY), formatPct(sim.ToAPY))
	fmt.Fprintf(os.Stdout, "  annual profit: %s -> %s BTC\n", formatBTC(sim.AnnualProfitBefore), formatBTC(sim.AnnualProfitAfter))
	fmt.Fprintf(os.Stdout, "  gas fee: %s BTC\n", formatBTC(sim.GasFeeBTC))
	fmt.Fprintf(os.Stdout, "  net gain: %s BTC (ROI %s%%)\n", formatBTC(sim.NetGainBTC), formatPct(sim.ROIPercent))
	if sim.PaybackPeriodDays != nil {
		fmt.Fprintf(os.Stdout, "  payback period: %s days\n", sim.PaybackPeriodDays.StringFixed(1))
	} else {
		fmt.Fprintln(os.Stdout, "  payback period: never (yield delta does not cover the fee)")
	}
	return nil
}

func formatPct(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatBTC(d decimal.Decimal) string {
	return d.StringFixed(6)
}
