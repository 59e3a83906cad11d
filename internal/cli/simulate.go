package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Pratik-Shirodkar/CasperEye/internal/app"
)

var (
	simulateFrom   string
	simulateTo     string
	simulateAmount float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a rotation between two protocols at current yields",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateFrom == "" || simulateTo == "" {
			return errors.New("--from and --to are required")
		}
		if simulateAmount <= 0 {
			return errors.New("--amount must be greater than 0")
		}

		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			FromProtocol: simulateFrom,
			ToProtocol:   simulateTo,
			AmountBTC:    simulateAmount,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFrom, "from", "", "Protocol to rotate out of")
	simulateCmd.Flags().StringVar(&simulateTo, "to", "", "Protocol to rotate into")
	simulateCmd.Flags().Float64Var(&simulateAmount, "amount", 1.0, "Position size in BTC")
}
