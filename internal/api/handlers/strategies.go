package handlers

import (
	"net/http"

	"github.com/wonny/smartvest/internal/strategy"
)

// StrategyHandler exposes the loaded strategy variants.
type StrategyHandler struct {
	strategies map[string]strategy.Strategy
}

// NewStrategyHandler creates the handler.
func NewStrategyHandler(strategies map[string]strategy.Strategy) *StrategyHandler {
	return &StrategyHandler{strategies: strategies}
}

// List returns every configured variant.
// GET /api/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	out := make([]strategy.Strategy, 0, len(h.strategies))
	for _, name := range strategy.Names(h.strategies) {
		out = append(out, h.strategies[name])
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(out),
		"strategies": out,
	})
}
