package executor

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return base }
}

func TestExecuteRotation(t *testing.T) {
	e := New(fixedClock(), zerolog.Nop())

	result := e.ExecuteRotation("lombard", "solv", decimal.NewFromInt(2), "0xAbCdEf1234567890aBcDeF1234567890abcdef12")
	if !result.Success {
		t.Fatalf("valid rotation should succeed: %+v", result)
	}
	if !strings.HasPrefix(result.TxID, "0x") || len(result.TxID) != 2+txIDHexLen {
		t.Fatalf("tx id should be 0x plus %d hex chars, got %q", txIDHexLen, result.TxID)
	}
	if !result.EstimatedProfitBTC.Equal(decimal.NewFromFloat(0.3)) {
		t.Fatalf("expected estimated profit 0.3 (15%% of 2), got %s", result.EstimatedProfitBTC)
	}

	records := e.TransactionHistory("0xAbCdEf1234567890aBcDeF1234567890abcdef12")
	if len(records) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(records))
	}
	if records[0].Status != StatusPending {
		t.Fatalf("records settle as %q, got %q", StatusPending, records[0].Status)
	}
	if records[0].TxID != result.TxID {
		t.Fatal("record and result must share the tx id")
	}
}

func TestExecuteRotationValidation(t *testing.T) {
	e := New(fixedClock(), zerolog.Nop())

	cases := []struct {
		name   string
		from   string
		to     string
		amount decimal.Decimal
		wallet string
	}{
		{"missing from", "", "solv", decimal.NewFromInt(1), "0xabc"},
		{"missing to", "lombard", "", decimal.NewFromInt(1), "0xabc"},
		{"missing wallet", "lombard", "solv", decimal.NewFromInt(1), ""},
		{"zero amount", "lombard", "solv", decimal.Zero, "0xabc"},
		{"negative amount", "lombard", "solv", decimal.NewFromInt(-1), "0xabc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := e.ExecuteRotation(tc.from, tc.to, tc.amount, tc.wallet)
			if result.Success {
				t.Fatalf("expected structured failure, got %+v", result)
			}
			if result.Error == "" || result.Message == "" {
				t.Fatalf("failures must carry error and message: %+v", result)
			}
			if result.TxID != "" {
				t.Fatal("failed rotations must not mint a tx id")
			}
		})
	}

	if got := e.Stats(); got.TotalTransactions != 0 {
		t.Fatalf("rejected rotations must not touch the ledger, got %+v", got)
	}
}

func TestTransactionHistoryCaseInsensitive(t *testing.T) {
	e := New(fixedClock(), zerolog.Nop())

	e.ExecuteRotation("lombard", "solv", decimal.NewFromInt(2), "0xABCDEF12")
	e.ExecuteRotation("solv", "babylon", decimal.NewFromInt(1), "0xabcdef12")
	e.ExecuteRotation("solv", "babylon", decimal.NewFromInt(1), "0xother")

	records := e.TransactionHistory("0xAbCdEf12")
	if len(records) != 2 {
		t.Fatalf("wallet match must ignore case, got %d records", len(records))
	}

	// 0.3 + 0.15 across the wallet's two rotations.
	if got := e.TotalProfit("0xabcdef12"); !got.Equal(decimal.NewFromFloat(0.45)) {
		t.Fatalf("expected total profit 0.45, got %s", got)
	}
	if got := e.TotalProfit("0xnobody"); !got.IsZero() {
		t.Fatalf("unknown wallet should sum to zero, got %s", got)
	}
}

func TestStats(t *testing.T) {
	e := New(fixedClock(), zerolog.Nop())

	if got := e.Stats(); got.TotalTransactions != 0 || !got.TotalVolumeBTC.IsZero() || !got.AvgROIPercent.IsZero() {
		t.Fatalf("empty ledger should report zero stats, got %+v", got)
	}

	e.ExecuteRotation("lombard", "solv", decimal.NewFromInt(2), "0xaa")
	e.ExecuteRotation("solv", "babylon", decimal.NewFromInt(3), "0xbb")

	stats := e.Stats()
	if stats.TotalTransactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", stats.TotalTransactions)
	}
	if !stats.TotalVolumeBTC.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected volume 5, got %s", stats.TotalVolumeBTC)
	}
	if !stats.TotalProfitBTC.Equal(decimal.NewFromFloat(0.75)) {
		t.Fatalf("expected profit 0.75, got %s", stats.TotalProfitBTC)
	}
	// Flat estimate means the aggregate ROI is always 15%.
	if !stats.AvgROIPercent.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected avg ROI 15, got %s", stats.AvgROIPercent)
	}
}

func TestConcurrentExecution(t *testing.T) {
	e := New(nil, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.ExecuteRotation("lombard", "solv", decimal.NewFromFloat(0.5), fmt.Sprintf("0xwallet%02d", i%4))
		}(i)
	}
	wg.Wait()

	stats := e.Stats()
	if stats.TotalTransactions != 20 {
		t.Fatalf("expected all 20 rotations recorded, got %d", stats.TotalTransactions)
	}
	if !stats.TotalVolumeBTC.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected volume 10, got %s", stats.TotalVolumeBTC)
	}
	if len(e.TransactionHistory("0xWALLET00")) != 5 {
		t.Fatal("per-wallet history lost records under concurrency")
	}
}
