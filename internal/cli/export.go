package cli

import (
	"github.com/spf13/cobra"

	"github.com/Pratik-Shirodkar/CasperEye/internal/app"
)

var (
	exportOpportunitiesPNG string
	exportForecastPNG      string
	exportTop              int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export current analytics as PNG charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			OpportunitiesPNG: exportOpportunitiesPNG,
			ForecastPNG:      exportForecastPNG,
			TopLimit:         exportTop,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpportunitiesPNG, "opportunities-png", "", "Path to write the opportunity ROI chart")
	exportCmd.Flags().StringVar(&exportForecastPNG, "forecast-png", "", "Path to write the forecast unlock chart")
	exportCmd.Flags().IntVar(&exportTop, "top", 10, "Number of ranked opportunities to chart")
}
