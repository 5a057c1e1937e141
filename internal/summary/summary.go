// Package summary derives spending rollups from a ledger store. Every
// function is a pure read over the store it is given: no caching, no
// mutation, safe to call mid-edit-session.
package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// Status classifies a month or year against its budget.
type Status string

const (
	StatusNoData Status = "no_data"
	StatusUnder  Status = "under_budget"
	StatusOver   Status = "over_budget"
)

// MonthSummary is the derived rollup for one month key. Field names on
// the wire match the store's own serialization vocabulary.
type MonthSummary struct {
	Key           string     `json:"key"`
	Year          int        `json:"year"`
	MonthIndex    int        `json:"monthIndex"`
	Budget        core.Money `json:"budget"`
	DailyExpenses core.Money `json:"dailyExpenses"`
	Subscriptions core.Money `json:"subscriptions"`
	TotalSpent    core.Money `json:"totalSpent"`
	Remaining     core.Money `json:"remaining"`
	HasData       bool       `json:"hasData"`
}

// YearSummary aggregates the months of one calendar year, month index
// ascending.
type YearSummary struct {
	Year          int            `json:"year"`
	Months        []MonthSummary `json:"months"`
	TotalBudget   core.Money     `json:"totalBudget"`
	TotalExpenses core.Money     `json:"totalExpenses"`
	TotalSubs     core.Money     `json:"totalSubs"`
	TotalSpent    core.Money     `json:"totalSpent"`
	Remaining     core.Money     `json:"remaining"`
}

// Totals is a grand rollup across every summarized year.
type Totals struct {
	Budget    core.Money `json:"budget"`
	Expenses  core.Money `json:"expenses"`
	Subs      core.Money `json:"subs"`
	Spent     core.Money `json:"spent"`
	Remaining core.Money `json:"remaining"`
}

func (m MonthSummary) Status() Status {
	return status(m.HasData, m.Remaining)
}

func (y YearSummary) HasData() bool {
	return y.TotalBudget.IsPositive() || y.TotalExpenses.IsPositive() || y.TotalSubs.IsPositive()
}

func (y YearSummary) Status() Status {
	return status(y.HasData(), y.Remaining)
}

func status(hasData bool, remaining core.Money) Status {
	switch {
	case !hasData:
		return StatusNoData
	case remaining.Cents >= 0:
		return StatusUnder
	default:
		return StatusOver
	}
}

// Month summarizes a single month key. A key absent from the store (or a
// malformed key) yields zero totals and HasData=false, never an error.
func Month(s core.Store, key string) MonthSummary {
	year, monthIndex, _ := core.ParseMonthKey(key)
	rec := s.Month(key)

	var daily core.Money
	for _, list := range rec.Expenses {
		for _, e := range list {
			daily = daily.Add(e.Amount)
		}
	}
	// Subscriptions count toward the month even when their due day does
	// not exist in that month's calendar.
	var subs core.Money
	for _, sub := range rec.Subscriptions {
		subs = subs.Add(sub.Amount)
	}

	spent := daily.Add(subs)
	return MonthSummary{
		Key:           key,
		Year:          year,
		MonthIndex:    monthIndex,
		Budget:        rec.Budget,
		DailyExpenses: daily,
		Subscriptions: subs,
		TotalSpent:    spent,
		Remaining:     rec.Budget.Sub(spent),
		HasData:       rec.Budget.IsPositive() || daily.IsPositive() || subs.IsPositive(),
	}
}

// AllYears builds the historical rollup: one YearSummary per year that
// has any data, years descending, months ascending within a year. Months
// with no data are dropped from the listing, except activeKey: the month
// the user is currently viewing always appears, even when still empty.
// Store keys that are not valid month keys are ignored.
func AllYears(s core.Store, activeKey string) []YearSummary {
	keys := map[string]struct{}{}
	for key := range s {
		if core.ValidMonthKey(key) {
			keys[key] = struct{}{}
		}
	}
	if core.ValidMonthKey(activeKey) {
		keys[activeKey] = struct{}{}
	}

	byYear := map[int][]MonthSummary{}
	for key := range keys {
		ms := Month(s, key)
		if !ms.HasData && key != activeKey {
			continue
		}
		byYear[ms.Year] = append(byYear[ms.Year], ms)
	}

	years := make([]YearSummary, 0, len(byYear))
	for year, months := range byYear {
		sort.Slice(months, func(i, j int) bool { return months[i].MonthIndex < months[j].MonthIndex })
		ys := YearSummary{Year: year, Months: months}
		for _, ms := range months {
			ys.TotalBudget = ys.TotalBudget.Add(ms.Budget)
			ys.TotalExpenses = ys.TotalExpenses.Add(ms.DailyExpenses)
			ys.TotalSubs = ys.TotalSubs.Add(ms.Subscriptions)
		}
		ys.TotalSpent = ys.TotalExpenses.Add(ys.TotalSubs)
		ys.Remaining = ys.TotalBudget.Sub(ys.TotalSpent)
		years = append(years, ys)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year > years[j].Year })
	return years
}

// Grand sums the per-year totals of an AllYears result.
func Grand(years []YearSummary) Totals {
	var t Totals
	for _, ys := range years {
		t.Budget = t.Budget.Add(ys.TotalBudget)
		t.Expenses = t.Expenses.Add(ys.TotalExpenses)
		t.Subs = t.Subs.Add(ys.TotalSubs)
	}
	t.Spent = t.Expenses.Add(t.Subs)
	t.Remaining = t.Budget.Sub(t.Spent)
	return t
}

// DayTotal is the spend recorded on one calendar day: its expenses plus
// any subscriptions due that day.
type DayTotal struct {
	Expenses      core.Money `json:"expenses"`
	Subscriptions core.Money `json:"subscriptions"`
}

// Day totals a single calendar day of a month.
func Day(s core.Store, year, monthIndex, day int) DayTotal {
	rec := s.Month(core.MonthKey(year, monthIndex))
	var dt DayTotal
	for _, e := range rec.Expenses[core.DayKey(year, monthIndex, day)] {
		dt.Expenses = dt.Expenses.Add(e.Amount)
	}
	for _, sub := range rec.Subscriptions {
		if sub.Day == day {
			dt.Subscriptions = dt.Subscriptions.Add(sub.Amount)
		}
	}
	return dt
}

// DailyAverage is the month's daily expense total divided by elapsed
// days: today's day-of-month when now falls inside the month, otherwise
// the full month length.
func DailyAverage(s core.Store, key string, now time.Time) core.Money {
	year, monthIndex, ok := core.ParseMonthKey(key)
	if !ok {
		return core.Money{}
	}
	elapsed := core.DaysInMonth(year, monthIndex)
	if now.Year() == year && int(now.Month())-1 == monthIndex {
		elapsed = now.Day()
	}
	if elapsed <= 0 {
		return core.Money{}
	}
	avg := Month(s, key).DailyExpenses.Decimal().Div(decimal.NewFromInt(int64(elapsed)))
	return core.Money{Cents: avg.Shift(2).Round(0).IntPart()}
}
