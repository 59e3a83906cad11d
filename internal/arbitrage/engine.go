package arbitrage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
	"github.com/Pratik-Shirodkar/CasperEye/internal/fetcher"
)

// DefaultMinDurationHours is the assumed holding duration for a rotation
// when the caller does not specify one.
const DefaultMinDurationHours = 6

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// Deps are the injected collaborators of the engine. Clock defaults to
// time.Now when nil.
type Deps struct {
	Quotes fetcher.QuoteFetcher
	Clock  func() time.Time
}

type cacheEntry struct {
	quote     ProtocolQuote
	fetchedAt time.Time
}

// Engine owns the quote cache, the APY history log, and the current
// opportunity set. All shared state is guarded by a single mutex; cache
// entries are replaced wholesale, never updated field by field.
type Engine struct {
	cfg    config.ArbitrageConfig
	quotes fetcher.QuoteFetcher
	clock  func() time.Time
	logger zerolog.Logger

	sizes    []decimal.Decimal
	crossFee decimal.Decimal
	sameFee  decimal.Decimal

	mu            sync.Mutex
	cache         map[string]cacheEntry
	history       map[string]*historyBuffer
	opportunities []Opportunity
}

// NewEngine constructs an opportunity engine over the configured protocol table.
func NewEngine(cfg config.ArbitrageConfig, deps Deps, logger zerolog.Logger) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	sizes := make([]decimal.Decimal, 0, len(cfg.PositionSizes))
	for _, s := range cfg.PositionSizes {
		sizes = append(sizes, decimal.NewFromFloat(s))
	}

	return &Engine{
		cfg:      cfg,
		quotes:   deps.Quotes,
		clock:    clock,
		logger:   logger.With().Str("component", "arbitrage_engine").Logger(),
		sizes:    sizes,
		crossFee: decimal.NewFromFloat(cfg.CrossProtocolFee),
		sameFee:  decimal.NewFromFloat(cfg.SameProtocolFee),
		cache:    make(map[string]cacheEntry),
		history:  make(map[string]*historyBuffer),
	}
}

// Protocols exposes the configured protocol table in its declared order.
func (e *Engine) Protocols() []config.Protocol {
	return e.cfg.Protocols
}

// FallbackQuote returns the named fallback values for a protocol, used
// whenever the live source is unavailable or inconsistent.
func FallbackQuote(proto config.Protocol, now time.Time) ProtocolQuote {
	return ProtocolQuote{
		ProtocolID: proto.ID,
		Name:       proto.Name,
		APYPercent: decimal.NewFromFloat(proto.FallbackAPY),
		TVLBTC:     decimal.NewFromFloat(proto.FallbackTVL),
		FetchedAt:  now,
	}
}

// FetchQuote always yields a usable quote: a live fetch when the upstream
// cooperates, the protocol's fallback otherwise. Each call appends one APY
// history point for the protocol.
func (e *Engine) FetchQuote(ctx context.Context, protocolID string) (ProtocolQuote, error) {
	proto, ok := e.cfg.ProtocolByID(protocolID)
	if !ok {
		return ProtocolQuote{}, fmt.Errorf("unknown protocol %q", protocolID)
	}

	now := e.clock()
	quote := ProtocolQuote{ProtocolID: proto.ID, Name: proto.Name, FetchedAt: now}

	live, err := e.quotes.FetchQuote(ctx, proto)
	if err != nil {
		e.logger.Warn().Err(err).Str("protocol", proto.ID).Msg("live fetch failed, using fallback quote")
		quote = FallbackQuote(proto, now)
	} else {
		quote.APYPercent = live.APYPercent
		quote.TVLBTC = live.TVLBTC
	}

	e.mu.Lock()
	buf, ok := e.history[proto.ID]
	if !ok {
		buf = newHistoryBuffer(e.cfg.HistoryMaxPoints)
		e.history[proto.ID] = buf
	}
	buf.append(HistoryPoint{ProtocolID: proto.ID, APYPercent: quote.APYPercent, Timestamp: now})
	e.mu.Unlock()

	return quote, nil
}

// CachedQuote returns the cached quote while its age is below the TTL and
// refreshes it otherwise. Concurrent callers racing past an expired entry
// may each fetch; the entry is swapped as a whole record either way.
func (e *Engine) CachedQuote(ctx context.Context, protocolID string) (ProtocolQuote, error) {
	e.mu.Lock()
	entry, ok := e.cache[protocolID]
	now := e.clock()
	e.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < e.cfg.CacheTTL {
		return entry.quote, nil
	}

	quote, err := e.FetchQuote(ctx, protocolID)
	if err != nil {
		return ProtocolQuote{}, err
	}

	e.mu.Lock()
	e.cache[protocolID] = cacheEntry{quote: quote, fetchedAt: quote.FetchedAt}
	e.mu.Unlock()

	return quote, nil
}

// DetectOpportunities recomputes the full opportunity set across every
// unordered protocol pair and the fixed position size menu, replacing the
// previously stored set.
func (e *Engine) DetectOpportunities(ctx context.Context, minDurationHours int) ([]Opportunity, error) {
	if minDurationHours <= 0 {
		minDurationHours = DefaultMinDurationHours
	}

	quotes := make(map[string]ProtocolQuote, len(e.cfg.Protocols))
	for _, proto := range e.cfg.Protocols {
		q, err := e.CachedQuote(ctx, proto.ID)
		if err != nil {
			return nil, err
		}
		quotes[proto.ID] = q
	}

	now := e.clock()
	opportunities := make([]Opportunity, 0)

	for i := 0; i < len(e.cfg.Protocols); i++ {
		for j := i + 1; j < len(e.cfg.Protocols); j++ {
			from := quotes[e.cfg.Protocols[i].ID]
			to := quotes[e.cfg.Protocols[j].ID]

			// Rotate from the lower-yield side to the higher-yield side.
			if to.APYPercent.LessThan(from.APYPercent) {
				from, to = to, from
			}
			diff := to.APYPercent.Sub(from.APYPercent)
			if !diff.IsPositive() {
				continue
			}

			for _, amount := range e.sizes {
				annualProfit := diff.Div(hundred).Mul(amount)
				netProfit := annualProfit.Sub(e.crossFee)
				if !netProfit.IsPositive() {
					continue
				}

				opportunities = append(opportunities, Opportunity{
					FromProtocol:    from.ProtocolID,
					ToProtocol:      to.ProtocolID,
					FromName:        from.Name,
					ToName:          to.Name,
					FromAPY:         from.APYPercent,
					ToAPY:           to.APYPercent,
					APYDifferential: diff,
					AmountBTC:       amount,
					GasFeeBTC:       e.crossFee,
					AnnualProfitBTC: annualProfit,
					NetProfitBTC:    netProfit,
					ROIPercent:      netProfit.Div(amount).Mul(hundred),
					DurationHours:   minDurationHours,
					ComputedAt:      now,
				})
			}
		}
	}

	e.mu.Lock()
	e.opportunities = opportunities
	e.mu.Unlock()

	e.logger.Info().Int("count", len(opportunities)).Msg("opportunity detection pass complete")
	return opportunities, nil
}

// TopOpportunities returns the current set ordered by ROI descending,
// truncated to limit. Detection order breaks ties.
func (e *Engine) TopOpportunities(limit int) []Opportunity {
	e.mu.Lock()
	sorted := make([]Opportunity, len(e.opportunities))
	copy(sorted, e.opportunities)
	e.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ROIPercent.GreaterThan(sorted[j].ROIPercent)
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// APYHistory returns the retained history points for a protocol whose
// timestamp falls within the trailing window, in append order.
func (e *Engine) APYHistory(protocolID string, hours int) []HistoryPoint {
	cutoff := e.clock().Add(-time.Duration(hours) * time.Hour)

	e.mu.Lock()
	buf, ok := e.history[protocolID]
	var points []HistoryPoint
	if ok {
		points = buf.snapshot()
	}
	e.mu.Unlock()

	out := make([]HistoryPoint, 0, len(points))
	for _, p := range points {
		if !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// PerformanceMetrics summarises the current opportunity set. All-zero
// metrics when no opportunities are stored.
func (e *Engine) PerformanceMetrics() Metrics {
	e.mu.Lock()
	current := e.opportunities
	e.mu.Unlock()

	if len(current) == 0 {
		return Metrics{}
	}

	best := current[0].ROIPercent
	sumROI := decimal.Zero
	sumProfit := decimal.Zero
	for _, opp := range current {
		if opp.ROIPercent.GreaterThan(best) {
			best = opp.ROIPercent
		}
		sumROI = sumROI.Add(opp.ROIPercent)
		sumProfit = sumProfit.Add(opp.NetProfitBTC)
	}

	return Metrics{
		TotalOpportunities:   len(current),
		BestROI:              best,
		AvgROI:               sumROI.Div(decimal.NewFromInt(int64(len(current)))),
		TotalPotentialProfit: sumProfit,
		ProtocolsMonitored:   len(e.cfg.Protocols),
	}
}

// SimulateRotation computes the effect of rotating amountBTC between two
// protocols at their current yields. It reads (or refreshes) the cache but
// does not touch the stored opportunity set.
func (e *Engine) SimulateRotation(ctx context.Context, fromID, toID string, amountBTC decimal.Decimal) (Simulation, error) {
	if !amountBTC.IsPositive() {
		return Simulation{}, fmt.Errorf("amount must be greater than zero")
	}

	fromQuote, err := e.CachedQuote(ctx, fromID)
	if err != nil {
		return Simulation{}, err
	}
	toQuote, err := e.CachedQuote(ctx, toID)
	if err != nil {
		return Simulation{}, err
	}

	before := fromQuote.APYPercent.Div(hundred).Mul(amountBTC)
	after := toQuote.APYPercent.Div(hundred).Mul(amountBTC)
	netGain := after.Sub(before).Sub(e.crossFee)

	sim := Simulation{
		FromProtocol:       fromID,
		ToProtocol:         toID,
		AmountBTC:          amountBTC,
		FromAPY:            fromQuote.APYPercent,
		ToAPY:              toQuote.APYPercent,
		AnnualProfitBefore: before,
		AnnualProfitAfter:  after,
		GasFeeBTC:          e.crossFee,
		NetGainBTC:         netGain,
		ROIPercent:         netGain.Div(amountBTC).Mul(hundred),
	}

	// Guard the payback division: a non-positive yield delta never recovers
	// the fee.
	delta := after.Sub(before)
	if delta.IsPositive() {
		payback := e.crossFee.Div(delta).Mul(daysPerYear)
		sim.PaybackPeriodDays = &payback
	}

	return sim, nil
}
