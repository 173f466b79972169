package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler godoc
// @Summary Liveness and database connectivity probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if healthDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := healthDB.PingContext(ctx); err != nil {
			status = map[string]string{"status": "degraded", "database": err.Error()}
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
