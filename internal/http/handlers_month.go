package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Viewing a month makes it the active one: it then always shows up
	// in the year rollup, even while still empty.
	s.coord.SetActiveMonth(year, monthIndex)

	respondJSON(w, http.StatusOK, map[string]any{
		"key":     key,
		"record":  s.coord.MonthRecord(year, monthIndex),
		"summary": s.coord.SummarizeMonth(key),
	})
}

func (s *server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	budget, err := parseBudget(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		rec.Budget = budget
		return nil
	})
	respondJSON(w, http.StatusOK, s.coord.SummarizeMonth(key))
}

func (s *server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	_, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDay(r, year, monthIndex)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.DaySummary(year, monthIndex, day))
}

func (s *server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDay(r, year, monthIndex)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := parseExpense(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dk := core.DayKey(year, monthIndex, day)
	s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		rec.Expenses[dk] = append(rec.Expenses[dk], expense)
		return nil
	})
	respondJSON(w, http.StatusCreated, s.coord.SummarizeMonth(key))
}

func (s *server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDay(r, year, monthIndex)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := parseExpense(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dk := core.DayKey(year, monthIndex, day)
	err = s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		if index >= len(rec.Expenses[dk]) {
			return errIndexOutOfRange
		}
		rec.Expenses[dk][index] = expense
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.SummarizeMonth(key))
}

func (s *server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDay(r, year, monthIndex)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dk := core.DayKey(year, monthIndex, day)
	err = s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		list := rec.Expenses[dk]
		if index >= len(list) {
			return errIndexOutOfRange
		}
		list = append(list[:index], list[index+1:]...)
		if len(list) == 0 {
			// The day entry goes away with its last expense; the month
			// record itself persists even when empty.
			delete(rec.Expenses, dk)
		} else {
			rec.Expenses[dk] = list
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.SummarizeMonth(key))
}

func (s *server) handleAddSubscription(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := parseSubscription(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		rec.Subscriptions = append(rec.Subscriptions, sub)
		return nil
	})
	respondJSON(w, http.StatusCreated, s.coord.SummarizeMonth(key))
}

func (s *server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := parseSubscription(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		if index >= len(rec.Subscriptions) {
			return errIndexOutOfRange
		}
		// An edit keeps the paid flag; only name, amount and day change.
		sub.Paid = rec.Subscriptions[index].Paid
		rec.Subscriptions[index] = sub
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.SummarizeMonth(key))
}

func (s *server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	key, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		if index >= len(rec.Subscriptions) {
			return errIndexOutOfRange
		}
		rec.Subscriptions = append(rec.Subscriptions[:index], rec.Subscriptions[index+1:]...)
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.coord.SummarizeMonth(key))
}

func (s *server) handleToggleSubscriptionPaid(w http.ResponseWriter, r *http.Request) {
	_, year, monthIndex, err := parseMonthKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var paid bool
	err = s.coord.Mutate(r.Context(), year, monthIndex, func(rec *core.MonthRecord) error {
		if index >= len(rec.Subscriptions) {
			return errIndexOutOfRange
		}
		rec.Subscriptions[index].Paid = !rec.Subscriptions[index].Paid
		paid = rec.Subscriptions[index].Paid
		return nil
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"paid": paid})
}
