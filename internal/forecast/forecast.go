package forecast

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	mediumThreshold   = decimal.NewFromInt(100)
	highThreshold     = decimal.NewFromInt(500)
	criticalThreshold = decimal.NewFromInt(2000)
)

// RiskLevel classifies one day's maturing unlock volume.
func RiskLevel(totalBTC decimal.Decimal) string {
	switch {
	case totalBTC.LessThan(mediumThreshold):
		return RiskLow
	case totalBTC.LessThan(highThreshold):
		return RiskMedium
	case totalBTC.LessThan(criticalThreshold):
		return RiskHigh
	default:
		return RiskCritical
	}
}

// CalculateForecast buckets unbonding events by the calendar day their
// funds become liquid and classifies each day's unlock volume. daysAhead
// documents the intended horizon; it does not truncate the result set
// (every fetched event is included).
func (s *Service) CalculateForecast(ctx context.Context, daysAhead int) (Forecast, error) {
	if daysAhead <= 0 {
		daysAhead = s.cfg.HorizonDays
	}

	events, err := s.FetchUnbondingEvents(ctx, s.cfg.FetchLimit)
	if err != nil {
		return Forecast{}, err
	}

	byDate := make(map[string]*Day)
	for _, event := range events {
		key := event.MaturityAt.UTC().Format("2006-01-02")
		day, ok := byDate[key]
		if !ok {
			day = &Day{Date: key}
			byDate[key] = day
		}
		day.TotalBTC = day.TotalBTC.Add(event.AmountBTC)
		day.EventCount++
		day.Events = append(day.Events, EventDetail{
			DelegatorPrefix: maskDelegator(event.Delegator),
			AmountBTC:       event.AmountBTC,
			TxID:            event.TxID,
		})
	}

	days := make([]Day, 0, len(byDate))
	for _, day := range byDate {
		day.RiskLevel = RiskLevel(day.TotalBTC)
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	shockDates := make([]string, 0)
	total := decimal.Zero
	maxDaily := decimal.Zero
	for _, day := range days {
		total = total.Add(day.TotalBTC)
		if day.TotalBTC.GreaterThan(maxDaily) {
			maxDaily = day.TotalBTC
		}
		if day.RiskLevel == RiskHigh || day.RiskLevel == RiskCritical {
			shockDates = append(shockDates, day.Date)
		}
	}

	avgDaily := decimal.Zero
	if len(days) > 0 {
		avgDaily = total.Div(decimal.NewFromInt(int64(len(days))))
	}

	return Forecast{
		Days:             days,
		SupplyShockDates: shockDates,
		Statistics: Statistics{
			TotalBTCUnlocking: total,
			MaxDailyUnlock:    maxDaily,
			AvgDailyUnlock:    avgDaily,
			DaysAnalyzed:      daysAhead,
			ShockCount:        len(shockDates),
		},
	}, nil
}

// HeatmapData re-derives the forecast and reshapes it for a calendar
// heatmap. Always recomputed, never cached.
func (s *Service) HeatmapData(ctx context.Context) ([]HeatmapEntry, error) {
	forecast, err := s.CalculateForecast(ctx, s.cfg.HorizonDays)
	if err != nil {
		return nil, err
	}

	heatmap := make([]HeatmapEntry, 0, len(forecast.Days))
	for _, day := range forecast.Days {
		heatmap = append(heatmap, HeatmapEntry{
			Date:    day.Date,
			Value:   day.TotalBTC,
			Risk:    day.RiskLevel,
			Count:   day.EventCount,
			Details: day.Events,
		})
	}
	return heatmap, nil
}

func maskDelegator(addr string) string {
	if len(addr) <= delegatorPrefixLen {
		return addr
	}
	return addr[:delegatorPrefixLen] + "..."
}
