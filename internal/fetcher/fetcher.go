package fetcher

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
)

// Quote is a raw upstream yield observation for one protocol.
type Quote struct {
	APYPercent decimal.Decimal
	TVLBTC     decimal.Decimal
}

// QuoteFetcher retrieves the current APY and TVL for a protocol.
// Implementations return an error on any upstream failure; fallback
// substitution is the caller's concern.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, proto config.Protocol) (Quote, error)
}
