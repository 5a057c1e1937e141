package http

import (
	"net/http"

	"bilancio/internal/summary"
)

func (s *server) handleStore(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.coord.Snapshot())
}

func (s *server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	key, _, _, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ms := s.coord.SummarizeMonth(key)
	respondJSON(w, http.StatusOK, map[string]any{
		"summary": ms,
		"status":  ms.Status(),
	})
}

func (s *server) handleYearSummaries(w http.ResponseWriter, r *http.Request) {
	years := s.coord.SummarizeAllYears()
	respondJSON(w, http.StatusOK, map[string]any{
		"years":  years,
		"totals": summary.Grand(years),
		"active": s.coord.ActiveMonthKey(),
	})
}

func (s *server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	_, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.CategoryBreakdown(year, monthIndex))
}

func (s *server) handleDailyAverage(w http.ResponseWriter, r *http.Request) {
	key, _, _, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"key":          key,
		"dailyAverage": s.coord.DailyAverage(key),
	})
}
