package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/alerting"
	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
)

type stubDetector struct {
	opportunities []arbitrage.Opportunity
	err           error
}

func (s *stubDetector) DetectOpportunities(context.Context, int) ([]arbitrage.Opportunity, error) {
	return s.opportunities, s.err
}

type stubForecaster struct {
	result forecast.Forecast
	err    error
}

func (s *stubForecaster) CalculateForecast(context.Context, int) (forecast.Forecast, error) {
	return s.result, s.err
}

type recordingNotifier struct {
	notes []alerting.Notification
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, note alerting.Notification) error {
	r.notes = append(r.notes, note)
	return r.err
}

func shockForecast() forecast.Forecast {
	return forecast.Forecast{
		SupplyShockDates: []string{"2026-03-22"},
		Statistics: forecast.Statistics{
			TotalBTCUnlocking: decimal.NewFromInt(600),
			MaxDailyUnlock:    decimal.NewFromInt(600),
			ShockCount:        1,
		},
	}
}

func serviceConfig(alertsOn bool) *config.Config {
	return &config.Config{
		Forecast: config.ForecastConfig{HorizonDays: 90},
		Alerting: config.AlertingConfig{Enabled: alertsOn, Cooldown: 30 * time.Minute},
	}
}

func TestRefreshAlertsOnShock(t *testing.T) {
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := New(serviceConfig(true), nil, &stubDetector{}, &stubForecaster{result: shockForecast()}, notifier, func() time.Time { return now }, zerolog.Nop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected one alert, got %d", len(notifier.notes))
	}
	note := notifier.notes[0]
	if note.ShockCount != 1 || len(note.ShockDates) != 1 {
		t.Fatalf("alert should carry shock context: %+v", note)
	}
	if !note.GeneratedAt.Equal(now) {
		t.Fatalf("alert timestamp should come from the clock, got %s", note.GeneratedAt)
	}
}

func TestRefreshCooldownSuppressesRepeatAlerts(t *testing.T) {
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := New(serviceConfig(true), nil, &stubDetector{}, &stubForecaster{result: shockForecast()}, notifier, clock, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if err := svc.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("cooldown should suppress repeats, got %d alerts", len(notifier.notes))
	}

	now = now.Add(31 * time.Minute)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after cooldown: %v", err)
	}
	if len(notifier.notes) != 2 {
		t.Fatalf("expired cooldown should allow a new alert, got %d", len(notifier.notes))
	}
}

func TestRefreshNoAlertWithoutShock(t *testing.T) {
	notifier := &recordingNotifier{}
	forecaster := &stubForecaster{result: forecast.Forecast{Statistics: forecast.Statistics{ShockCount: 0}}}
	svc := New(serviceConfig(true), nil, &stubDetector{}, forecaster, notifier, nil, zerolog.Nop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("no shock days, no alert; got %d", len(notifier.notes))
	}
}

func TestRefreshAlertingDisabled(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := New(serviceConfig(false), nil, &stubDetector{}, &stubForecaster{result: shockForecast()}, notifier, nil, zerolog.Nop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("alerting disabled, got %d alerts", len(notifier.notes))
	}
}

func TestRefreshPropagatesEngineErrors(t *testing.T) {
	svc := New(serviceConfig(false), nil, &stubDetector{err: errors.New("boom")}, &stubForecaster{}, nil, nil, zerolog.Nop())
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("detector error should propagate")
	}

	svc = New(serviceConfig(false), nil, &stubDetector{}, &stubForecaster{err: errors.New("boom")}, nil, nil, zerolog.Nop())
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("forecaster error should propagate")
	}
}

func TestRefreshSurvivesNotifierError(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc := New(serviceConfig(true), nil, &stubDetector{}, &stubForecaster{result: shockForecast()}, notifier, nil, zerolog.Nop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("notifier failures must not fail the pass: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("notify should still have been attempted, got %d", len(notifier.notes))
	}
}
