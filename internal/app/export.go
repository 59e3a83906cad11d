package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
)

// Export renders current analytics output as PNG charts: the ranked
// opportunity set and/or the forecast unlock schedule.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.OpportunitiesPNG == "" && opts.ForecastPNG == "" {
		return errors.New("at least one of --opportunities-png or --forecast-png must be provided")
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = 10
	}

	if opts.OpportunitiesPNG != "" {
		engine := a.newEngine()
		if _, err := engine.DetectOpportunities(ctx, 0); err != nil {
			return err
		}
		top := engine.TopOpportunities(opts.TopLimit)
		if len(top) == 0 {
			a.Logger.Info().Msg("no opportunities to chart")
		} else if err := writeOpportunitiesPNG(opts.OpportunitiesPNG, top); err != nil {
			return err
		}
	}

	if opts.ForecastPNG != "" {
		forecaster := a.newForecaster()
		result, err := forecaster.CalculateForecast(ctx, 0)
		if err != nil {
			return err
		}
		if len(result.Days) == 0 {
			a.Logger.Info().Msg("no forecast days to chart")
		} else if err := writeForecastPNG(opts.ForecastPNG, result.Days); err != nil {
			return err
		}
	}

	return nil
}

func writeOpportunitiesPNG(path string, top []arbitrage.Opportunity) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(top))
	for _, opp := range top {
		label := fmt.Sprintf("%s->%s %s", opp.FromProtocol, opp.ToProtocol, opp.AmountBTC.String())
		bars = append(bars, chart.Value{
			Value: opp.ROIPercent.InexactFloat64(),
			Label: label,
		})
	}

	graph := chart.BarChart{
		Title:    "Top rotation opportunities by ROI (%)",
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func writeForecastPNG(path string, days []forecast.Day) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(days))
	for _, day := range days {
		bars = append(bars, chart.Value{
			Value: day.TotalBTC.InexactFloat64(),
			Label: day.Date,
			Style: chart.Style{
				FillColor:   riskColor(day.RiskLevel),
				StrokeColor: riskColor(day.RiskLevel),
			},
		})
	}

	graph := chart.BarChart{
		Title:    "Forecast daily unlock volume (BTC)",
		Width:    1600,
		Height:   720,
		BarWidth: 24,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func riskColor(level string) drawing.Color {
	switch level {
	case forecast.RiskCritical:
		return drawing.ColorFromHex("c0392b")
	case forecast.RiskHigh:
		return drawing.ColorFromHex("e67e22")
	case forecast.RiskMedium:
		return drawing.ColorFromHex("f1c40f")
	default:
		return drawing.ColorFromHex("27ae60")
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
