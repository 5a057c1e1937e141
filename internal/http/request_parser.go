package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"

	"github.com/gorilla/mux"
)

// Everything arriving over HTTP is checked here before a Mutate call;
// the coordinator itself trusts its inputs.

var errIndexOutOfRange = errors.New("index out of range")

func parseMonthKey(r *http.Request) (key string, year, monthIndex int, err error) {
	key = mux.Vars(r)["key"]
	year, monthIndex, ok := core.ParseMonthKey(key)
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid month key %q: want YYYY-MM", key)
	}
	if monthIndex < 0 || monthIndex > 11 {
		return "", 0, 0, fmt.Errorf("invalid month key %q: month out of range", key)
	}
	return key, year, monthIndex, nil
}

func parseDay(r *http.Request, year, monthIndex int) (int, error) {
	day, err := strconv.Atoi(mux.Vars(r)["day"])
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", mux.Vars(r)["day"])
	}
	if day < 1 || day > core.DaysInMonth(year, monthIndex) {
		return 0, fmt.Errorf("day %d does not exist in this month", day)
	}
	return day, nil
}

func parseIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid index %q", mux.Vars(r)["index"])
	}
	return idx, nil
}

type expensePayload struct {
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
}

func parseExpense(r *http.Request) (core.Expense, error) {
	var p expensePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return core.Expense{}, fmt.Errorf("invalid request body: %w", err)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return core.Expense{}, core.ErrEmptyName
	}
	amount, err := core.ParseAmount(p.Amount.String())
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{Name: name, Amount: amount, Category: strings.TrimSpace(p.Category)}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

type subscriptionPayload struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
	Day    int         `json:"day"`
}

func parseSubscription(r *http.Request) (core.Subscription, error) {
	var p subscriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return core.Subscription{}, fmt.Errorf("invalid request body: %w", err)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return core.Subscription{}, core.ErrEmptyName
	}
	amount, err := core.ParseAmount(p.Amount.String())
	if err != nil {
		return core.Subscription{}, err
	}
	// Due day stays 1..31 regardless of month length; a day the month
	// does not have still counts toward the month's totals.
	sub := core.Subscription{Name: name, Amount: amount, Day: p.Day}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

type budgetPayload struct {
	Amount json.Number `json:"amount"`
}

func parseBudget(r *http.Request) (core.Money, error) {
	var p budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return core.Money{}, fmt.Errorf("invalid request body: %w", err)
	}
	return core.ParseBudget(p.Amount.String())
}
