package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const (
	dashboardRankLimit   = 5
	dashboardRecentLimit = 10
)

// GetDashboardHandler godoc
// @Summary Sales dashboard aggregates for a date range
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "Range start (YYYY-MM-DD, defaults to today)"
// @Param end_date query string false "Range end (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} DashboardResponse
// @Router /reports/dashboard [get]
func GetDashboardHandler(w http.ResponseWriter, r *http.Request) {
	start, end := parseDateRange(r)

	now := time.Now()
	today := dayStart(now)
	yesterday := today.AddDate(0, 0, -1)

	ranks, err := reportRepo.TopProducts(start, end, dashboardRankLimit)
	if err != nil {
		reportError(w, "top products", err)
		return
	}

	catSales, err := reportRepo.CategorySales(start, end)
	if err != nil {
		reportError(w, "category sales", err)
		return
	}

	todayTotal, err := reportRepo.TotalAmount(today, dayEnd(now))
	if err != nil {
		reportError(w, "today total", err)
		return
	}

	yesterdayTotal, err := reportRepo.TotalAmount(yesterday, dayEnd(yesterday))
	if err != nil {
		reportError(w, "yesterday total", err)
		return
	}

	rangeTotal, err := reportRepo.TotalAmount(start, end)
	if err != nil {
		reportError(w, "range total", err)
		return
	}

	allTime, err := reportRepo.AllTimeAmount()
	if err != nil {
		reportError(w, "all-time total", err)
		return
	}

	recent, err := reportRepo.RecentSales(start, end, dashboardRecentLimit)
	if err != nil {
		reportError(w, "recent sales", err)
		return
	}

	response := DashboardResponse{
		SaleRanks:      ranks,
		CategorySales:  catSales,
		TodayTotal:     todayTotal,
		YesterdayTotal: yesterdayTotal,
		RangeTotal:     rangeTotal,
		AllTimeTotal:   allTime,
		RecentSales:    make([]SaleResponse, len(recent)),
	}
	for i, s := range recent {
		response.RecentSales[i] = toSaleResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func reportError(w http.ResponseWriter, what string, err error) {
	log.Printf("could not compute %s: %v", what, err)
	http.Error(w, "could not build dashboard", http.StatusInternalServerError)
}
