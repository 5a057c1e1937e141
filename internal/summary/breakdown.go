package summary

import (
	"sort"

	"bilancio/internal/core"
)

// Uncategorized is the bucket for expenses without a category tag.
const Uncategorized = "uncategorized"

// CategoryTotal is one bucket of a month's category breakdown. Percent is
// the share of the month's daily expense total; Share is the amount
// relative to the largest bucket (the bar width), both in 0..100.
type CategoryTotal struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Percent  float64    `json:"percent"`
	Share    float64    `json:"share"`
}

// CategoryBreakdown groups a month's expenses by category, sorted by
// amount descending. Ties keep first-encountered order, with days visited
// in ascending day-key order so the result is deterministic.
func CategoryBreakdown(s core.Store, key string) []CategoryTotal {
	rec := s.Month(key)

	dayKeys := make([]string, 0, len(rec.Expenses))
	for dk := range rec.Expenses {
		dayKeys = append(dayKeys, dk)
	}
	sort.Strings(dayKeys)

	totals := map[string]core.Money{}
	order := map[string]int{}
	var total core.Money
	for _, dk := range dayKeys {
		for _, e := range rec.Expenses[dk] {
			cat := e.Category
			if cat == "" {
				cat = Uncategorized
			}
			if _, seen := totals[cat]; !seen {
				order[cat] = len(order)
			}
			totals[cat] = totals[cat].Add(e.Amount)
			total = total.Add(e.Amount)
		}
	}

	out := make([]CategoryTotal, 0, len(totals))
	for cat, amount := range totals {
		out = append(out, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return order[out[i].Category] < order[out[j].Category]
	})

	if len(out) == 0 {
		return out
	}
	max := out[0].Amount.Cents
	for i := range out {
		if total.IsPositive() {
			out[i].Percent = float64(out[i].Amount.Cents) / float64(total.Cents) * 100
		}
		if max > 0 {
			out[i].Share = float64(out[i].Amount.Cents) / float64(max) * 100
		}
	}
	return out
}
