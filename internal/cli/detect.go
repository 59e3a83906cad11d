package cli

import (
	"github.com/spf13/cobra"

	"github.com/Pratik-Shirodkar/CasperEye/internal/app"
)

var (
	detectDuration int
	detectTop      int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run one opportunity detection pass and print the ranked results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Detect(cmd.Context(), app.DetectOptions{
			MinDurationHours: detectDuration,
			TopLimit:         detectTop,
		})
	},
}

func init() {
	detectCmd.Flags().IntVar(&detectDuration, "duration", 0, "Assumed holding duration in hours (defaults to 6)")
	detectCmd.Flags().IntVar(&detectTop, "top", 10, "Number of ranked opportunities to print")
}
