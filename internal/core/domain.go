package core

import (
	"errors"
	"strings"
)

type (
	// Expense is a single spend recorded on a specific day. It is owned by
	// the day entry it lives in and has no identity of its own.
	Expense struct {
		Name     string `json:"name"`
		Amount   Money  `json:"amount"`
		Category string `json:"category,omitempty"`
	}

	// Subscription is a recurring charge owned by a month. Day is the due
	// day of month (1..31); it may not exist in every month (day 31 in
	// February) and aggregation still counts the amount regardless.
	Subscription struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
		Day    int    `json:"day"`
		Paid   bool   `json:"paid,omitempty"`
	}

	// MonthRecord holds everything the user recorded for one calendar
	// month. DailyBudget is carried for compatibility with stores written
	// by other clients; nothing here derives from it.
	MonthRecord struct {
		Budget        Money                `json:"budget"`
		DailyBudget   Money                `json:"dailyBudget,omitempty"`
		Subscriptions []Subscription       `json:"subscriptions"`
		Expenses      map[string][]Expense `json:"expenses"`
	}
)

var (
	ErrEmptyName  = errors.New("empty name")
	ErrInvalidDay = errors.New("invalid day")
)

// Validate checks user-input constraints. The aggregation engine never
// calls this; the edge layer rejects bad input before it reaches a store.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if s.Day < 1 || s.Day > 31 {
		return ErrInvalidDay
	}
	return s.Amount.Validate()
}

// NewMonthRecord returns an empty record with allocated collections.
func NewMonthRecord() *MonthRecord {
	return &MonthRecord{
		Subscriptions: []Subscription{},
		Expenses:      map[string][]Expense{},
	}
}

// Clone returns a deep copy of the record.
func (m MonthRecord) Clone() MonthRecord {
	out := m
	out.Subscriptions = append([]Subscription{}, m.Subscriptions...)
	out.Expenses = make(map[string][]Expense, len(m.Expenses))
	for dk, list := range m.Expenses {
		out.Expenses[dk] = append([]Expense{}, list...)
	}
	return out
}

// Normalize allocates nil collections so a decoded record behaves like a
// freshly created one and re-encodes with the same shape it was written.
func (m *MonthRecord) Normalize() {
	if m.Subscriptions == nil {
		m.Subscriptions = []Subscription{}
	}
	if m.Expenses == nil {
		m.Expenses = map[string][]Expense{}
	}
}
