package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/wonny/smartvest/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// formatProfitFactor renders the one metric JSON cannot carry directly:
// profit factor is +Inf when nothing lost and undefined when nothing traded.
func formatProfitFactor(m contracts.Metrics) string {
	switch {
	case m.InsufficientData:
		return "n/a"
	case math.IsInf(m.ProfitFactor, 1):
		return "inf"
	default:
		return fmt.Sprintf("%.2f", m.ProfitFactor)
	}
}
