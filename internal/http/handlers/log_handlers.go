package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// GetLogsHandler godoc
// @Summary List audit log entries, newest first
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} LogsSearchResult
// @Router /logs [get]
func GetLogsHandler(w http.ResponseWriter, r *http.Request) {
	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			page = v
		}
	}

	logs, total, err := logRepo.GetAll((page-1)*perPage, perPage)
	if err != nil {
		log.Printf("could not retrieve logs: %v", err)
		http.Error(w, "could not retrieve logs", http.StatusInternalServerError)
		return
	}

	response := LogsSearchResult{
		Data: make([]LogResponse, len(logs)),
		Meta: Meta{TotalCount: total},
	}
	for i, entry := range logs {
		response.Data[i] = LogResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			SaleID:    entry.SaleID,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
