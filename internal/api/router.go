package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/smartvest/internal/api/handlers"
	"github.com/wonny/smartvest/pkg/logger"
)

// NewRouter configures all HTTP routes.
func NewRouter(backtestHandler *handlers.BacktestHandler, recommendHandler *handlers.RecommendHandler, strategyHandler *handlers.StrategyHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/backtest", backtestHandler.Run).Methods("POST")
	api.HandleFunc("/recommendations", recommendHandler.Get).Methods("GET")
	api.HandleFunc("/strategies", strategyHandler.List).Methods("GET")

	// Long-running backtests stream progress over a socket instead of
	// holding a plain request open.
	r.HandleFunc("/ws/backtest", backtestHandler.RunStream)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "smartvest-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
