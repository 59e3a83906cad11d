package cli

import (
	"github.com/spf13/cobra"

	"github.com/Pratik-Shirodkar/CasperEye/internal/app"
)

var forecastDays int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the unbonding liquidity forecast",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Forecast(cmd.Context(), app.ForecastOptions{DaysAhead: forecastDays})
	},
}

func init() {
	forecastCmd.Flags().IntVar(&forecastDays, "days", 0, "Forecast horizon in days (defaults to config)")
}
