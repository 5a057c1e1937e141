package summary

import (
	"testing"

	"bilancio/internal/core"
)

func TestCategoryBreakdown(t *testing.T) {
	s := storeWithMonth(t, "2024-01", func(rec *core.MonthRecord) {
		rec.Expenses["2024-01-03"] = []core.Expense{
			{Name: "groceries", Amount: core.Money{Cents: 10000}, Category: "food"},
			{Name: "snack", Amount: core.Money{Cents: 2500}},
		}
		rec.Expenses["2024-01-10"] = []core.Expense{
			{Name: "dinner", Amount: core.Money{Cents: 5000}, Category: "food"},
			{Name: "bus", Amount: core.Money{Cents: 2500}, Category: "transport"},
		}
	})

	out := CategoryBreakdown(s, "2024-01")
	if len(out) != 3 {
		t.Fatalf("got %d buckets, want 3", len(out))
	}

	if out[0].Category != "food" || out[0].Amount.Cents != 15000 {
		t.Errorf("top bucket = %s/%d, want food/15000", out[0].Category, out[0].Amount.Cents)
	}
	// Tie at 2500: uncategorized appears on an earlier day, so it comes first.
	if out[1].Category != Uncategorized {
		t.Errorf("second bucket = %s, want %s", out[1].Category, Uncategorized)
	}
	if out[2].Category != "transport" {
		t.Errorf("third bucket = %s, want transport", out[2].Category)
	}

	if out[0].Percent != 75 {
		t.Errorf("food percent = %v, want 75", out[0].Percent)
	}
	if out[0].Share != 100 {
		t.Errorf("top bucket share = %v, want 100", out[0].Share)
	}
	if want := float64(2500) / float64(15000) * 100; out[1].Share != want {
		t.Errorf("second bucket share = %v, want %v", out[1].Share, want)
	}
}

func TestCategoryBreakdownEmptyMonth(t *testing.T) {
	if out := CategoryBreakdown(core.Store{}, "2024-01"); len(out) != 0 {
		t.Errorf("empty month breakdown = %+v, want empty", out)
	}
}
