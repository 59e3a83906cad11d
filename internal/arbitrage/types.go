package arbitrage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProtocolQuote is one cached yield observation. Quotes are immutable;
// a new fetch supersedes the whole record.
type ProtocolQuote struct {
	ProtocolID string
	Name       string
	APYPercent decimal.Decimal
	TVLBTC     decimal.Decimal
	FetchedAt  time.Time
}

// Opportunity is a profitable directional rotation between two protocols
// at one position size. Values carry full precision; rounding happens at
// the presentation boundary.
type Opportunity struct {
	FromProtocol    string
	ToProtocol      string
	FromName        string
	ToName          string
	FromAPY         decimal.Decimal
	ToAPY           decimal.Decimal
	APYDifferential decimal.Decimal
	AmountBTC       decimal.Decimal
	GasFeeBTC       decimal.Decimal
	AnnualProfitBTC decimal.Decimal
	NetProfitBTC    decimal.Decimal
	ROIPercent      decimal.Decimal
	DurationHours   int
	ComputedAt      time.Time
}

// HistoryPoint is one append-only APY observation for a protocol.
type HistoryPoint struct {
	ProtocolID string
	APYPercent decimal.Decimal
	Timestamp  time.Time
}

// Metrics summarises the current opportunity set.
type Metrics struct {
	TotalOpportunities   int
	BestROI              decimal.Decimal
	AvgROI               decimal.Decimal
	TotalPotentialProfit decimal.Decimal
	ProtocolsMonitored   int
}

// Simulation is the outcome of a hypothetical rotation between two
// protocols at their current yields.
type Simulation struct {
	FromProtocol       string
	ToProtocol         string
	AmountBTC          decimal.Decimal
	FromAPY            decimal.Decimal
	ToAPY              decimal.Decimal
	AnnualProfitBefore decimal.Decimal
	AnnualProfitAfter  decimal.Decimal
	GasFeeBTC          decimal.Decimal
	NetGainBTC         decimal.Decimal
	ROIPercent         decimal.Decimal
	// PaybackPeriodDays is nil when the rotation never recovers its fee
	// (the yield delta is zero or negative).
	PaybackPeriodDays *decimal.Decimal
}
