package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Forecast runs one forecast pass and prints the per-day unlock schedule.
func (a *App) Forecast(ctx context.Context, opts ForecastOptions) error {
	forecaster := a.newForecaster()

	result, err := forecaster.CalculateForecast(ctx, opts.DaysAhead)
	if err != nil {
		return err
	}

	if len(result.Days) == 0 {
		fmt.Fprintln(os.Stdout, "no unbonding events in the forecast window")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tUnlock (BTC)\tEvents\tRisk")
	for _, day := range result.Days {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\n", day.Date, day.TotalBTC.StringFixed(2), day.EventCount, day.RiskLevel)
	}
	writer.Flush()

	stats := result.Statistics
	fmt.Fprintf(os.Stdout, "\ntotal unlocking %s BTC, max daily %s BTC, avg daily %s BTC\n",
		stats.TotalBTCUnlocking.StringFixed(2),
		stats.MaxDailyUnlock.StringFixed(2),
		stats.AvgDailyUnlock.StringFixed(2),
	)
	if len(result.SupplyShockDates) > 0 {
		fmt.Fprintf(os.Stdout, "supply shock dates: %s\n", strings.Join(result.SupplyShockDates, ", "))
	}
	return nil
}
