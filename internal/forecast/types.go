package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusUnbonding is the lifecycle state of every tracked event; funds are
// locked until the maturity date.
const StatusUnbonding = "UNBONDING"

// Risk tiers for a single day's maturing unlock volume.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// UnbondingEvent is one undelegation whose funds become liquid at MaturityAt.
type UnbondingEvent struct {
	TxID       string
	Delegator  string
	AmountBTC  decimal.Decimal
	UnbondAt   time.Time
	MaturityAt time.Time
	Status     string
}

// EventDetail is the per-event view attached to a forecast day. The
// delegator address is masked to a short prefix.
type EventDetail struct {
	DelegatorPrefix string
	AmountBTC       decimal.Decimal
	TxID            string
}

// Day aggregates every event maturing on one calendar date.
type Day struct {
	Date       string
	TotalBTC   decimal.Decimal
	EventCount int
	RiskLevel  string
	Events     []EventDetail
}

// Statistics summarise a forecast window.
type Statistics struct {
	TotalBTCUnlocking decimal.Decimal
	MaxDailyUnlock    decimal.Decimal
	AvgDailyUnlock    decimal.Decimal
	DaysAnalyzed      int
	ShockCount        int
}

// Forecast is a full liquidity forecast: per-day aggregates, the dates
// whose volume crosses into HIGH or CRITICAL, and summary statistics.
type Forecast struct {
	Days             []Day
	SupplyShockDates []string
	Statistics       Statistics
}

// HeatmapEntry is the calendar-heatmap shape of one forecast day.
type HeatmapEntry struct {
	Date    string
	Value   decimal.Decimal
	Risk    string
	Count   int
	Details []EventDetail
}
