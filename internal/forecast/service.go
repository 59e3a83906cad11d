package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
)

const (
	txQueryPath      = "/cosmos/tx/v1beta1/txs"
	undelegateAction = "/babylon.btcstaking.v1.MsgUndelegate"
	undelegationType = "babylon.btcstaking.v1.EventBTCUndelegation"

	delegatorPrefixLen = 10
)

var satsPerBTC = decimal.NewFromInt(100_000_000)

// Deps are the injected collaborators of the forecast service. Clock
// defaults to time.Now; Rand to a clock-seeded source (tests pass a fixed
// seed for reproducible synthetic schedules).
type Deps struct {
	Client *http.Client
	Clock  func() time.Time
	Rand   *rand.Rand
}

// Service analyses unbonding events and predicts liquidity shocks.
type Service struct {
	cfg    config.ForecastConfig
	client *http.Client
	clock  func() time.Time
	logger zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService constructs an unbonding forecast service.
func NewService(cfg config.ForecastConfig, deps Deps, logger zerolog.Logger) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	client := deps.Client
	if client == nil {
		client = &http.Client{}
	}
	rng := deps.Rand
	if rng == nil {
		seed := cfg.SyntheticSeed
		if seed == 0 {
			seed = clock().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	return &Service{
		cfg:    cfg,
		client: client,
		clock:  clock,
		logger: logger.With().Str("component", "unbonding_forecast").Logger(),
		rng:    rng,
	}
}

// FetchUnbondingEvents queries the prioritized endpoint list for recent
// undelegation transactions, returning parsed events from the first
// endpoint that responds. When every endpoint fails it falls back to a
// synthetic schedule so the forecast is never empty.
func (s *Service) FetchUnbondingEvents(ctx context.Context, limit int) ([]UnbondingEvent, error) {
	if limit <= 0 {
		limit = s.cfg.FetchLimit
	}

	for _, base := range s.cfg.Endpoints {
		events, err := s.fetchFromEndpoint(ctx, base, limit)
		if err != nil {
			s.logger.Debug().Err(err).Str("endpoint", base).Msg("unbonding endpoint failed")
			continue
		}
		s.logger.Info().Int("count", len(events)).Str("endpoint", base).Msg("unbonding events fetched")
		return events, nil
	}

	s.logger.Warn().Msg("all unbonding endpoints unavailable, generating synthetic schedule")
	return s.syntheticEvents(), nil
}

func (s *Service) fetchFromEndpoint(ctx context.Context, base string, limit int) ([]UnbondingEvent, error) {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query := url.Values{}
	query.Set("events", fmt.Sprintf("message.action='%s'", undelegateAction))
	query.Set("pagination.limit", strconv.Itoa(limit))
	query.Set("order_by", "ORDER_BY_DESC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+txQueryPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint status %d", resp.StatusCode)
	}

	var page txPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode tx page: %w", err)
	}

	events := make([]UnbondingEvent, 0, len(page.TxResponses))
	for _, tx := range page.TxResponses {
		if event, ok := s.parseUndelegation(tx); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

type txPage struct {
	TxResponses []txResponse `json:"tx_responses"`
}

type txResponse struct {
	TxHash    string  `json:"txhash"`
	Timestamp string  `json:"timestamp"`
	Logs      []txLog `json:"logs"`
}

type txLog struct {
	Events []txEvent `json:"events"`
}

type txEvent struct {
	Type       string        `json:"type"`
	Attributes []txAttribute `json:"attributes"`
}

type txAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// parseUndelegation extracts one unbonding event from a transaction log,
// skipping entries that lack a delegator or a positive amount.
func (s *Service) parseUndelegation(tx txResponse) (UnbondingEvent, bool) {
	if len(tx.Logs) == 0 {
		return UnbondingEvent{}, false
	}

	var delegator string
	var amountSat int64
	for _, event := range tx.Logs[0].Events {
		if event.Type != undelegationType {
			continue
		}
		for _, attr := range event.Attributes {
			switch attr.Key {
			case "delegator_addr":
				delegator = attr.Value
			case "amount_sat":
				amountSat, _ = strconv.ParseInt(attr.Value, 10, 64)
			}
		}
		break
	}

	if delegator == "" || amountSat == 0 {
		return UnbondingEvent{}, false
	}

	unbondAt, err := time.Parse(time.RFC3339, tx.Timestamp)
	if err != nil {
		return UnbondingEvent{}, false
	}

	return UnbondingEvent{
		TxID:       tx.TxHash,
		Delegator:  delegator,
		AmountBTC:  decimal.New(amountSat, 0).Div(satsPerBTC),
		UnbondAt:   unbondAt,
		MaturityAt: unbondAt.AddDate(0, 0, s.cfg.UnbondingPeriodDays),
		Status:     StatusUnbonding,
	}, true
}

// syntheticEvents produces a bounded pseudo-random unbonding schedule:
// clusters of 1-4 whale undelegations every 2-7 days across the horizon.
func (s *Service) syntheticEvents() []UnbondingEvent {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	now := s.clock()
	horizon := s.cfg.HorizonDays
	if horizon <= 0 {
		horizon = 90
	}

	events := make([]UnbondingEvent, 0)
	step := 2 + s.rng.Intn(6)
	for dayOffset := 0; dayOffset < horizon; dayOffset += step {
		clusterSize := 1 + s.rng.Intn(4)
		for i := 0; i < clusterSize; i++ {
			delegator := s.cfg.WhaleAddresses[s.rng.Intn(len(s.cfg.WhaleAddresses))]
			amount := decimal.NewFromFloat(0.5 + s.rng.Float64()*4.5).Round(2)
			unbondAt := now.AddDate(0, 0, dayOffset)

			events = append(events, UnbondingEvent{
				TxID:       fmt.Sprintf("0x%08x", s.rng.Uint32()),
				Delegator:  delegator,
				AmountBTC:  amount,
				UnbondAt:   unbondAt,
				MaturityAt: unbondAt.AddDate(0, 0, s.cfg.UnbondingPeriodDays),
				Status:     StatusUnbonding,
			})
		}
	}

	s.logger.Info().Int("count", len(events)).Msg("synthetic unbonding events generated")
	return events
}
