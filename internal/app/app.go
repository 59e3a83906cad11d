package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pratik-Shirodkar/CasperEye/internal/alerting"
	"github.com/Pratik-Shirodkar/CasperEye/internal/api"
	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
	"github.com/Pratik-Shirodkar/CasperEye/internal/executor"
	"github.com/Pratik-Shirodkar/CasperEye/internal/fetcher"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
	"github.com/Pratik-Shirodkar/CasperEye/internal/scheduler"
	"github.com/Pratik-Shirodkar/CasperEye/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newEngine() *arbitrage.Engine {
	quotes := fetcher.NewLive(fetcher.LiveOptions{
		UserAgent:       a.Config.Arbitrage.UserAgent,
		RateLimitPerSec: a.Config.Arbitrage.RateLimitPerSec,
	}, a.Logger)

	return arbitrage.NewEngine(a.Config.Arbitrage, arbitrage.Deps{Quotes: quotes}, a.Logger)
}

func (a *App) newForecaster() *forecast.Service {
	return forecast.NewService(a.Config.Forecast, forecast.Deps{}, a.Logger)
}

func (a *App) newExecutor() *executor.Executor {
	return executor.New(nil, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// Run executes the long-running analytics service: the HTTP API plus the
// periodic refresh loop, until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := a.newEngine()
	forecaster := a.newForecaster()
	exec := a.newExecutor()
	notifier := a.newNotifier()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, engine, forecaster, notifier, nil, a.Logger)

	server := api.NewServer(a.Config.Server.Addr, engine, forecaster, exec, a.Logger)
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error().Err(err).Msg("api server shutdown failed")
		}
	}()

	a.Logger.Info().Msg("starting analytics service")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("analytics service stopped")
	return nil
}

// DetectOptions configure the one-shot detection command.
type DetectOptions struct {
	MinDurationHours int
	TopLimit         int
}

// ForecastOptions configure the one-shot forecast command.
type ForecastOptions struct {
	DaysAhead int
}

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	FromProtocol string
	ToProtocol   string
	AmountBTC    float64
}

// ExportOptions hold parameters for exporting charts.
type ExportOptions struct {
	OpportunitiesPNG string
	ForecastPNG      string
	TopLimit         int
}
