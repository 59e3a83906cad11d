package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pratik-Shirodkar/CasperEye/internal/alerting"
	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
	"github.com/Pratik-Shirodkar/CasperEye/internal/scheduler"
)

// OpportunityDetector is the slice of the arbitrage engine the refresh
// loop needs.
type OpportunityDetector interface {
	DetectOpportunities(ctx context.Context, minDurationHours int) ([]arbitrage.Opportunity, error)
}

// Forecaster is the slice of the forecast service the refresh loop needs.
type Forecaster interface {
	CalculateForecast(ctx context.Context, daysAhead int) (forecast.Forecast, error)
}

// Service orchestrates the periodic refresh: an opportunity detection
// pass, a forecast pass, and supply-shock alerting with a cooldown.
type Service struct {
	sched      *scheduler.Scheduler
	detector   OpportunityDetector
	forecaster Forecaster
	notifier   alerting.Notifier
	logger     zerolog.Logger
	clock      func() time.Time

	horizonDays int
	alertsOn    bool
	cooldown    time.Duration

	mu        sync.Mutex
	lastAlert time.Time
}

// New constructs the refresh service. A nil clock defaults to time.Now.
func New(cfg *config.Config, sched *scheduler.Scheduler, detector OpportunityDetector, forecaster Forecaster, notifier alerting.Notifier, clock func() time.Time, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		sched:       sched,
		detector:    detector,
		forecaster:  forecaster,
		notifier:    notifier,
		logger:      logger.With().Str("component", "service").Logger(),
		clock:       clock,
		horizonDays: cfg.Forecast.HorizonDays,
		alertsOn:    cfg.Alerting.Enabled,
		cooldown:    cfg.Alerting.Cooldown,
	}
}

// Run begins the refresh loop.
func (s *Service) Run(ctx context.Context) error {
	return s.sched.Run(ctx, s.Refresh)
}

// Refresh executes one full analytics pass. Upstream failures inside the
// engines resolve to fallback data, so a pass only errors on internal
// faults.
func (s *Service) Refresh(ctx context.Context) error {
	opportunities, err := s.detector.DetectOpportunities(ctx, arbitrage.DefaultMinDurationHours)
	if err != nil {
		return err
	}

	result, err := s.forecaster.CalculateForecast(ctx, s.horizonDays)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int("opportunities", len(opportunities)).
		Int("forecast_days", len(result.Days)).
		Int("shock_days", result.Statistics.ShockCount).
		Msg("refresh pass complete")

	if s.alertsOn && s.notifier != nil && result.Statistics.ShockCount > 0 {
		s.maybeAlert(ctx, result)
	}

	return nil
}

func (s *Service) maybeAlert(ctx context.Context, result forecast.Forecast) {
	now := s.clock()

	s.mu.Lock()
	ready := s.lastAlert.IsZero() || now.Sub(s.lastAlert) >= s.cooldown
	if ready {
		s.lastAlert = now
	}
	s.mu.Unlock()

	if !ready {
		s.logger.Debug().Msg("supply-shock alert suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		GeneratedAt:       now,
		ShockDates:        result.SupplyShockDates,
		ShockCount:        result.Statistics.ShockCount,
		TotalBTCUnlocking: result.Statistics.TotalBTCUnlocking,
		MaxDailyUnlock:    result.Statistics.MaxDailyUnlock,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Msg("failed to dispatch supply-shock alert")
	}
}
