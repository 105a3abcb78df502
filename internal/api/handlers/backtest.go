package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/smartvest/internal/backtest"
	"github.com/wonny/smartvest/internal/contracts"
	"github.com/wonny/smartvest/internal/strategy"
	"github.com/wonny/smartvest/pkg/logger"
)

// UniverseProvider supplies the tracked ticker list for a run.
type UniverseProvider interface {
	Universe(ctx context.Context) ([]string, error)
}

// EngineFactory builds a fresh engine per request. Engines carry a per-run
// progress hook, so concurrent requests must not share one.
type EngineFactory func() *backtest.Engine

// BacktestHandler serves synchronous and streaming backtest runs.
type BacktestHandler struct {
	engines    EngineFactory
	universe   UniverseProvider
	strategies map[string]strategy.Strategy
	logger     *logger.Logger
	upgrader   websocket.Upgrader
}

// NewBacktestHandler creates the handler.
func NewBacktestHandler(engines EngineFactory, universe UniverseProvider, strategies map[string]strategy.Strategy, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		engines:    engines,
		universe:   universe,
		strategies: strategies,
		logger:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// backtestRequest is the JSON body for both transports. Omitted fields fall
// back to the strategy variant and then to the engine defaults.
type backtestRequest struct {
	Days         int      `json:"days,omitempty"`
	Capital      float64  `json:"capital,omitempty"`
	HoldDays     int      `json:"hold_days,omitempty"`
	MaxPositions int      `json:"max_positions,omitempty"`
	MinScore     *float64 `json:"min_score,omitempty"`
	Strategy     string   `json:"strategy,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Tickers      []string `json:"tickers,omitempty"`
}

// backtestResponse attaches the string-rendered profit factor to the result.
type backtestResponse struct {
	*contracts.BacktestResult
	ProfitFactor string `json:"profit_factor"`
}

// Run executes a backtest synchronously.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params, err := h.resolveParams(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	universe, err := h.resolveUniverse(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe")
		respondError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}

	result, err := h.engines().Run(r.Context(), params, universe)
	if err != nil {
		var verr *contracts.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "Backtest failed")
		return
	}

	respondJSON(w, http.StatusOK, backtestResponse{
		BacktestResult: result,
		ProfitFactor:   formatProfitFactor(result.Metrics),
	})
}

// streamMessage is the websocket envelope.
type streamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// RunStream executes a backtest over a websocket, pushing one progress
// message per simulated trading day and the full result at the end.
// The client sends a single backtestRequest after connecting.
func (h *BacktestHandler) RunStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req backtestRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeStreamError(conn, "Invalid request message")
		return
	}

	params, err := h.resolveParams(req)
	if err != nil {
		h.writeStreamError(conn, err.Error())
		return
	}

	universe, err := h.resolveUniverse(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe")
		h.writeStreamError(conn, "Failed to load universe")
		return
	}

	engine := h.engines()
	engine.OnProgress = func(p backtest.Progress) {
		// A slow or gone client must not wedge the run.
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(streamMessage{Type: "progress", Data: p}); err != nil {
			h.logger.WithError(err).Debug("Dropping progress update")
		}
	}

	result, err := engine.Run(r.Context(), params, universe)
	if err != nil {
		h.writeStreamError(conn, err.Error())
		return
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(streamMessage{Type: "result", Data: backtestResponse{
		BacktestResult: result,
		ProfitFactor:   formatProfitFactor(result.Metrics),
	}}); err != nil {
		h.logger.WithError(err).Warn("Failed to send backtest result")
	}
}

func (h *BacktestHandler) writeStreamError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(streamMessage{Type: "error", Data: message}); err != nil {
		h.logger.WithError(err).Debug("Failed to send stream error")
	}
}

// resolveParams layers request fields over the selected strategy variant
// over the engine defaults. Full range validation happens in the engine.
func (h *BacktestHandler) resolveParams(req backtestRequest) (backtest.Params, error) {
	params := backtest.DefaultParams()

	if req.Strategy != "" {
		variant, ok := h.strategies[req.Strategy]
		if !ok {
			return params, fmt.Errorf("unknown strategy %q", req.Strategy)
		}
		params = variant.Apply(params)
	}

	if req.Days != 0 {
		params.Days = req.Days
	}
	if req.Capital != 0 {
		params.Capital = req.Capital
	}
	if req.HoldDays != 0 {
		params.HoldDays = req.HoldDays
	}
	if req.MaxPositions != 0 {
		params.MaxPositions = req.MaxPositions
	}
	if req.MinScore != nil {
		params.MinScore = *req.MinScore
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return params, fmt.Errorf("invalid end_date %q, want YYYY-MM-DD", req.EndDate)
		}
		params.EndDate = end
	}
	return params, nil
}

func (h *BacktestHandler) resolveUniverse(ctx context.Context, req backtestRequest) ([]string, error) {
	if len(req.Tickers) > 0 {
		return req.Tickers, nil
	}
	return h.universe.Universe(ctx)
}
