package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/smartvest/internal/scoring"
	"github.com/wonny/smartvest/internal/strategy"
	"github.com/wonny/smartvest/pkg/logger"
)

const defaultRecommendLimit = 10

// RecommendHandler serves current-day buy candidates from the same scoring
// pipeline the backtests validate.
type RecommendHandler struct {
	ranker     *scoring.Ranker
	universe   UniverseProvider
	strategies map[string]strategy.Strategy
	logger     *logger.Logger
}

// NewRecommendHandler creates the handler.
func NewRecommendHandler(ranker *scoring.Ranker, universe UniverseProvider, strategies map[string]strategy.Strategy, log *logger.Logger) *RecommendHandler {
	return &RecommendHandler{
		ranker:     ranker,
		universe:   universe,
		strategies: strategies,
		logger:     log,
	}
}

// Get returns today's recommendations.
// GET /api/recommendations?limit=10&min_score=70&strategy=momentum
func (h *RecommendHandler) Get(w http.ResponseWriter, r *http.Request) {
	minScore := 70.0
	if name := r.URL.Query().Get("strategy"); name != "" {
		variant, ok := h.strategies[name]
		if !ok {
			respondError(w, http.StatusBadRequest, "Unknown strategy")
			return
		}
		minScore = variant.MinScore
	}
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100 {
			respondError(w, http.StatusBadRequest, "Invalid min_score")
			return
		}
		minScore = v
	}

	limit := defaultRecommendLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = v
	}

	universe, err := h.universe.Universe(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe")
		respondError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}

	recs, err := h.ranker.Recommend(r.Context(), time.Now(), universe, minScore, limit)
	if err != nil {
		h.logger.WithError(err).Error("Recommendation scoring failed")
		respondError(w, http.StatusInternalServerError, "Recommendation scoring failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"as_of":           time.Now().Format("2006-01-02"),
		"min_score":       minScore,
		"count":           len(recs),
		"recommendations": recs,
	})
}
