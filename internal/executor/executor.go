package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StatusPending is the only settlement state a synthetic rotation reaches;
// nothing here broadcasts to a chain.
const StatusPending = "pending"

const txIDHexLen = 40

// estimatedProfitRate is the flat profit estimate applied to every
// rotation (15% of the rotated amount), a stand-in for live APY math.
var estimatedProfitRate = decimal.NewFromFloat(0.15)

// Record is one executed rotation. Records are immutable once appended.
type Record struct {
	TxID               string
	FromProtocol       string
	ToProtocol         string
	AmountBTC          decimal.Decimal
	WalletAddress      string
	Status             string
	EstimatedProfitBTC decimal.Decimal
	CreatedAt          time.Time
}

// Result is the outcome payload of an execution attempt. Failures are
// reported here, never raised to the caller.
type Result struct {
	Success            bool
	TxID               string
	Message            string
	Error              string
	EstimatedProfitBTC decimal.Decimal
}

// Stats aggregates the full ledger.
type Stats struct {
	TotalTransactions int
	TotalVolumeBTC    decimal.Decimal
	TotalProfitBTC    decimal.Decimal
	AvgROIPercent     decimal.Decimal
}

// Executor keeps the append-only in-memory rotation ledger.
type Executor struct {
	clock  func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	records []Record
}

// New constructs a rotation executor. A nil clock defaults to time.Now.
func New(clock func() time.Time, logger zerolog.Logger) *Executor {
	if clock == nil {
		clock = time.Now
	}
	return &Executor{
		clock:  clock,
		logger: logger.With().Str("component", "rotation_executor").Logger(),
	}
}

// ExecuteRotation appends a synthetic settlement record for the rotation
// and returns its identifier and estimated profit. Invalid input produces
// a structured failure with no side effects.
func (e *Executor) ExecuteRotation(fromProtocol, toProtocol string, amountBTC decimal.Decimal, walletAddress string) Result {
	if fromProtocol == "" || toProtocol == "" || walletAddress == "" {
		return Result{
			Success: false,
			Error:   "missing required fields",
			Message: "from_protocol, to_protocol, amount_btc, and wallet_address are required",
		}
	}
	if !amountBTC.IsPositive() {
		return Result{
			Success: false,
			Error:   "invalid amount",
			Message: "amount_btc must be greater than zero",
		}
	}

	now := e.clock()
	txID := deriveTxID(walletAddress, fromProtocol, toProtocol, amountBTC, now)
	profit := amountBTC.Mul(estimatedProfitRate)

	record := Record{
		TxID:               txID,
		FromProtocol:       fromProtocol,
		ToProtocol:         toProtocol,
		AmountBTC:          amountBTC,
		WalletAddress:      walletAddress,
		Status:             StatusPending,
		EstimatedProfitBTC: profit,
		CreatedAt:          now,
	}

	e.mu.Lock()
	e.records = append(e.records, record)
	e.mu.Unlock()

	e.logger.Info().
		Str("tx_id", txID).
		Str("from", fromProtocol).
		Str("to", toProtocol).
		Str("amount_btc", amountBTC.String()).
		Msg("rotation executed")

	return Result{
		Success:            true,
		TxID:               txID,
		Message:            fmt.Sprintf("Rotation from %s to %s initiated", fromProtocol, toProtocol),
		EstimatedProfitBTC: profit,
	}
}

// TransactionHistory returns the wallet's records, matched case-insensitively.
func (e *Executor) TransactionHistory(walletAddress string) []Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Record, 0)
	for _, record := range e.records {
		if strings.EqualFold(record.WalletAddress, walletAddress) {
			out = append(out, record)
		}
	}
	return out
}

// TotalProfit sums estimated profit across the wallet's records.
func (e *Executor) TotalProfit(walletAddress string) decimal.Decimal {
	total := decimal.Zero
	for _, record := range e.TransactionHistory(walletAddress) {
		total = total.Add(record.EstimatedProfitBTC)
	}
	return total
}

// Stats aggregates the whole ledger; all zero when it is empty.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) == 0 {
		return Stats{}
	}

	volume := decimal.Zero
	profit := decimal.Zero
	for _, record := range e.records {
		volume = volume.Add(record.AmountBTC)
		profit = profit.Add(record.EstimatedProfitBTC)
	}

	avgROI := decimal.Zero
	if volume.IsPositive() {
		avgROI = profit.Div(volume).Mul(decimal.NewFromInt(100))
	}

	return Stats{
		TotalTransactions: len(e.records),
		TotalVolumeBTC:    volume,
		TotalProfitBTC:    profit,
		AvgROIPercent:     avgROI,
	}
}

func deriveTxID(wallet, from, to string, amount decimal.Decimal, ts time.Time) string {
	seed := fmt.Sprintf("%s%s%s%s%s", wallet, from, to, amount.String(), ts.Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(seed))
	return "0x" + hex.EncodeToString(sum[:])[:txIDHexLen]
}
