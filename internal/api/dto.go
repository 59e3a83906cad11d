package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/executor"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
)

// Presentation rounding: percentages to 2 decimal places, BTC amounts to
// 6. Engine values stay full-precision; only these DTOs round.

func pct(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func btc(d decimal.Decimal) float64 {
	return d.Round(6).InexactFloat64()
}

type opportunityDTO struct {
	FromProtocol    string  `json:"from_protocol"`
	ToProtocol      string  `json:"to_protocol"`
	FromName        string  `json:"from_name"`
	ToName          string  `json:"to_name"`
	FromAPY         float64 `json:"from_apy"`
	ToAPY           float64 `json:"to_apy"`
	APYDifferential float64 `json:"apy_differential"`
	AmountBTC       float64 `json:"amount_btc"`
	GasFees         float64 `json:"gas_fees"`
	AnnualProfit    float64 `json:"annual_profit"`
	NetProfit       float64 `json:"net_profit"`
	ROIPercent      float64 `json:"roi_percent"`
	DurationHours   int     `json:"duration_hours"`
	Timestamp       string  `json:"timestamp"`
}

func toOpportunityDTO(o arbitrage.Opportunity) opportunityDTO {
	return opportunityDTO{
		FromProtocol:    o.FromProtocol,
		ToProtocol:      o.ToProtocol,
		FromName:        o.FromName,
		ToName:          o.ToName,
		FromAPY:         pct(o.FromAPY),
		ToAPY:           pct(o.ToAPY),
		APYDifferential: pct(o.APYDifferential),
		AmountBTC:       btc(o.AmountBTC),
		GasFees:         btc(o.GasFeeBTC),
		AnnualProfit:    btc(o.AnnualProfitBTC),
		NetProfit:       btc(o.NetProfitBTC),
		ROIPercent:      pct(o.ROIPercent),
		DurationHours:   o.DurationHours,
		Timestamp:       o.ComputedAt.UTC().Format(time.RFC3339),
	}
}

func toOpportunityDTOs(opps []arbitrage.Opportunity) []opportunityDTO {
	out := make([]opportunityDTO, 0, len(opps))
	for _, o := range opps {
		out = append(out, toOpportunityDTO(o))
	}
	return out
}

type metricsDTO struct {
	TotalOpportunities   int     `json:"total_opportunities"`
	BestROI              float64 `json:"best_roi"`
	AvgROI               float64 `json:"avg_roi"`
	TotalPotentialProfit float64 `json:"total_potential_profit"`
	ProtocolsMonitored   int     `json:"protocols_monitored"`
}

func toMetricsDTO(m arbitrage.Metrics) metricsDTO {
	return metricsDTO{
		TotalOpportunities:   m.TotalOpportunities,
		BestROI:              pct(m.BestROI),
		AvgROI:               pct(m.AvgROI),
		TotalPotentialProfit: btc(m.TotalPotentialProfit),
		ProtocolsMonitored:   m.ProtocolsMonitored,
	}
}

type historyPointDTO struct {
	Timestamp string  `json:"timestamp"`
	APY       float64 `json:"apy"`
}

func toHistoryDTOs(points []arbitrage.HistoryPoint) []historyPointDTO {
	out := make([]historyPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, historyPointDTO{
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
			APY:       pct(p.APYPercent),
		})
	}
	return out
}

type simulationDTO struct {
	FromProtocol       string   `json:"from_protocol"`
	ToProtocol         string   `json:"to_protocol"`
	AmountBTC          float64  `json:"amount_btc"`
	FromAPY            float64  `json:"from_apy"`
	ToAPY              float64  `json:"to_apy"`
	AnnualProfitBefore float64  `json:"annual_profit_before"`
	AnnualProfitAfter  float64  `json:"annual_profit_after"`
	GasFees            float64  `json:"gas_fees"`
	NetGain            float64  `json:"net_gain"`
	ROIPercent         float64  `json:"roi_percent"`
	PaybackPeriodDays  *float64 `json:"payback_period_days"`
}

func toSimulationDTO(s arbitrage.Simulation) simulationDTO {
	dto := simulationDTO{
		FromProtocol:       s.FromProtocol,
		ToProtocol:         s.ToProtocol,
		AmountBTC:          btc(s.AmountBTC),
		FromAPY:            pct(s.FromAPY),
		ToAPY:              pct(s.ToAPY),
		AnnualProfitBefore: btc(s.AnnualProfitBefore),
		AnnualProfitAfter:  btc(s.AnnualProfitAfter),
		GasFees:            btc(s.GasFeeBTC),
		NetGain:            btc(s.NetGainBTC),
		ROIPercent:         pct(s.ROIPercent),
	}
	if s.PaybackPeriodDays != nil {
		days := s.PaybackPeriodDays.Round(1).InexactFloat64()
		dto.PaybackPeriodDays = &days
	}
	return dto
}

type transactionDTO struct {
	TxHash             string  `json:"tx_hash"`
	FromProtocol       string  `json:"from_protocol"`
	ToProtocol         string  `json:"to_protocol"`
	AmountBTC          float64 `json:"amount_btc"`
	WalletAddress      string  `json:"wallet_address"`
	Status             string  `json:"status"`
	Timestamp          string  `json:"timestamp"`
	EstimatedProfitBTC float64 `json:"estimated_profit_btc"`
}

func toTransactionDTOs(records []executor.Record) []transactionDTO {
	out := make([]transactionDTO, 0, len(records))
	for _, r := range records {
		out = append(out, transactionDTO{
			TxHash:             r.TxID,
			FromProtocol:       r.FromProtocol,
			ToProtocol:         r.ToProtocol,
			AmountBTC:          btc(r.AmountBTC),
			WalletAddress:      r.WalletAddress,
			Status:             r.Status,
			Timestamp:          r.CreatedAt.UTC().Format(time.RFC3339),
			EstimatedProfitBTC: btc(r.EstimatedProfitBTC),
		})
	}
	return out
}

type statsDTO struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalVolumeBTC    float64 `json:"total_volume_btc"`
	TotalProfitBTC    float64 `json:"total_profit_btc"`
	AvgROIPercent     float64 `json:"avg_roi_percent"`
}

func toStatsDTO(s executor.Stats) statsDTO {
	return statsDTO{
		TotalTransactions: s.TotalTransactions,
		TotalVolumeBTC:    btc(s.TotalVolumeBTC),
		TotalProfitBTC:    btc(s.TotalProfitBTC),
		AvgROIPercent:     pct(s.AvgROIPercent),
	}
}

type eventDetailDTO struct {
	Delegator string  `json:"delegator"`
	AmountBTC float64 `json:"amount_btc"`
	TxHash    string  `json:"tx_hash"`
}

func toEventDetailDTOs(details []forecast.EventDetail) []eventDetailDTO {
	out := make([]eventDetailDTO, 0, len(details))
	for _, d := range details {
		out = append(out, eventDetailDTO{
			Delegator: d.DelegatorPrefix,
			AmountBTC: d.AmountBTC.Round(2).InexactFloat64(),
			TxHash:    d.TxID,
		})
	}
	return out
}

type forecastDayDTO struct {
	Date       string           `json:"date"`
	TotalBTC   float64          `json:"total_btc"`
	RiskLevel  string           `json:"risk_level"`
	WhaleCount int              `json:"whale_count"`
	Events     []eventDetailDTO `json:"events"`
}

type forecastStatsDTO struct {
	TotalBTCUnlocking float64 `json:"total_btc_unlocking"`
	MaxDailyUnlock    float64 `json:"max_daily_unlock"`
	AvgDailyUnlock    float64 `json:"avg_daily_unlock"`
	DaysAnalyzed      int     `json:"days_analyzed"`
	ShockCount        int     `json:"shock_count"`
}

type forecastDTO struct {
	Forecast         []forecastDayDTO `json:"forecast"`
	SupplyShockDates []string         `json:"supply_shock_dates"`
	Statistics       forecastStatsDTO `json:"statistics"`
}

func toForecastDTO(f forecast.Forecast) forecastDTO {
	days := make([]forecastDayDTO, 0, len(f.Days))
	for _, day := range f.Days {
		days = append(days, forecastDayDTO{
			Date:       day.Date,
			TotalBTC:   day.TotalBTC.Round(2).InexactFloat64(),
			RiskLevel:  day.RiskLevel,
			WhaleCount: day.EventCount,
			Events:     toEventDetailDTOs(day.Events),
		})
	}
	return forecastDTO{
		Forecast:         days,
		SupplyShockDates: f.SupplyShockDates,
		Statistics: forecastStatsDTO{
			TotalBTCUnlocking: f.Statistics.TotalBTCUnlocking.Round(2).InexactFloat64(),
			MaxDailyUnlock:    f.Statistics.MaxDailyUnlock.Round(2).InexactFloat64(),
			AvgDailyUnlock:    f.Statistics.AvgDailyUnlock.Round(2).InexactFloat64(),
			DaysAnalyzed:      f.Statistics.DaysAnalyzed,
			ShockCount:        f.Statistics.ShockCount,
		},
	}
}

type heatmapEntryDTO struct {
	Date    string           `json:"date"`
	Value   float64          `json:"value"`
	Risk    string           `json:"risk"`
	Count   int              `json:"count"`
	Details []eventDetailDTO `json:"details"`
}

func toHeatmapDTOs(entries []forecast.HeatmapEntry) []heatmapEntryDTO {
	out := make([]heatmapEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, heatmapEntryDTO{
			Date:    e.Date,
			Value:   e.Value.Round(2).InexactFloat64(),
			Risk:    e.Risk,
			Count:   e.Count,
			Details: toEventDetailDTOs(e.Details),
		})
	}
	return out
}
