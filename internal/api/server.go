package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Pratik-Shirodkar/CasperEye/internal/arbitrage"
	"github.com/Pratik-Shirodkar/CasperEye/internal/config"
	"github.com/Pratik-Shirodkar/CasperEye/internal/executor"
	"github.com/Pratik-Shirodkar/CasperEye/internal/forecast"
)

const (
	defaultTopLimit     = 5
	defaultHistoryHours = 24
)

// OpportunityEngine exposes the arbitrage engine operations the API serves.
type OpportunityEngine interface {
	DetectOpportunities(ctx context.Context, minDurationHours int) ([]arbitrage.Opportunity, error)
	TopOpportunities(limit int) []arbitrage.Opportunity
	APYHistory(protocolID string, hours int) []arbitrage.HistoryPoint
	PerformanceMetrics() arbitrage.Metrics
	SimulateRotation(ctx context.Context, fromID, toID string, amountBTC decimal.Decimal) (arbitrage.Simulation, error)
	Protocols() []config.Protocol
}

// ForecastProvider exposes the unbonding forecast operations.
type ForecastProvider interface {
	CalculateForecast(ctx context.Context, daysAhead int) (forecast.Forecast, error)
	HeatmapData(ctx context.Context) ([]forecast.HeatmapEntry, error)
}

// RotationExecutor exposes the synthetic settlement ledger.
type RotationExecutor interface {
	ExecuteRotation(fromProtocol, toProtocol string, amountBTC decimal.Decimal, walletAddress string) executor.Result
	TransactionHistory(walletAddress string) []executor.Record
	TotalProfit(walletAddress string) decimal.Decimal
	Stats() executor.Stats
}

// Server is the HTTP JSON surface over the analytics core.
type Server struct {
	httpServer *http.Server
	engine     OpportunityEngine
	forecasts  ForecastProvider
	executor   RotationExecutor
	logger     zerolog.Logger
}

// NewServer creates an API server bound to addr.
func NewServer(addr string, engine OpportunityEngine, forecasts ForecastProvider, exec RotationExecutor, logger zerolog.Logger) *Server {
	s := &Server{
		engine:    engine,
		forecasts: forecasts,
		executor:  exec,
		logger:    logger.With().Str("component", "api").Logger(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/api/health", s.handleHealth)

	restaking := router.Group("/api/restaking")
	restaking.GET("/opportunities", s.handleOpportunities)
	restaking.GET("/apy-history", s.handleAPYHistory)
	restaking.GET("/performance", s.handlePerformance)
	restaking.POST("/simulate", s.handleSimulate)
	restaking.POST("/execute", s.handleExecute)
	restaking.POST("/history", s.handleHistory)
	restaking.GET("/stats", s.handleStats)

	router.GET("/api/unbonding-forecast", s.handleForecast)
	router.GET("/api/unbonding-heatmap", s.handleHeatmap)
}

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("api server terminated")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleOpportunities(c *gin.Context) {
	opportunities, err := s.engine.DetectOpportunities(c.Request.Context(), arbitrage.DefaultMinDurationHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities":     toOpportunityDTOs(opportunities),
		"top_opportunities": toOpportunityDTOs(s.engine.TopOpportunities(defaultTopLimit)),
		"metrics":           toMetricsDTO(s.engine.PerformanceMetrics()),
	})
}

func (s *Server) handleAPYHistory(c *gin.Context) {
	hours := intQuery(c, "hours", defaultHistoryHours)

	history := make(map[string][]historyPointDTO)
	if protocol := c.Query("protocol"); protocol != "" {
		history[protocol] = toHistoryDTOs(s.engine.APYHistory(protocol, hours))
	} else {
		for _, proto := range s.engine.Protocols() {
			history[proto.ID] = toHistoryDTOs(s.engine.APYHistory(proto.ID, hours))
		}
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) handlePerformance(c *gin.Context) {
	c.JSON(http.StatusOK, toMetricsDTO(s.engine.PerformanceMetrics()))
}

type simulateRequest struct {
	FromProtocol string  `json:"from_protocol"`
	ToProtocol   string  `json:"to_protocol"`
	AmountBTC    float64 `json:"amount_btc"`
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	sim, err := s.engine.SimulateRotation(c.Request.Context(), req.FromProtocol, req.ToProtocol, decimal.NewFromFloat(req.AmountBTC))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toSimulationDTO(sim))
}

type executeRequest struct {
	FromProtocol  string  `json:"from_protocol"`
	ToProtocol    string  `json:"to_protocol"`
	AmountBTC     float64 `json:"amount_btc"`
	WalletAddress string  `json:"wallet_address"`
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	result := s.executor.ExecuteRotation(req.FromProtocol, req.ToProtocol, decimal.NewFromFloat(req.AmountBTC), req.WalletAddress)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   result.Error,
			"message": result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"tx_hash":              result.TxID,
		"message":              result.Message,
		"estimated_profit_btc": btc(result.EstimatedProfitBTC),
	})
}

type historyRequest struct {
	WalletAddress string `json:"wallet_address"`
}

func (s *Server) handleHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	records := s.executor.TransactionHistory(req.WalletAddress)
	c.JSON(http.StatusOK, gin.H{
		"transactions":      toTransactionDTOs(records),
		"total_profit_btc":  btc(s.executor.TotalProfit(req.WalletAddress)),
		"transaction_count": len(records),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, toStatsDTO(s.executor.Stats()))
}

func (s *Server) handleForecast(c *gin.Context) {
	days := intQuery(c, "days", 0)

	result, err := s.forecasts.CalculateForecast(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toForecastDTO(result))
}

func (s *Server) handleHeatmap(c *gin.Context) {
	heatmap, err := s.forecasts.HeatmapData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"heatmap": toHeatmapDTOs(heatmap)})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
