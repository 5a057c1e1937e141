package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "integer euros", input: "12", wantCents: 1200},
		{name: "two decimals", input: "12.34", wantCents: 1234},
		{name: "one decimal", input: "0.5", wantCents: 50},
		{name: "rounds half up", input: "10.555", wantCents: 1056},
		{name: "rounds down", input: "10.554", wantCents: 1055},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.wantCents)
			}
		})
	}
}

func TestParseBudget(t *testing.T) {
	got, err := ParseBudget("0")
	if err != nil {
		t.Fatalf("ParseBudget(0) unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("ParseBudget(0) = %d cents, want 0", got.Cents)
	}

	if _, err := ParseBudget("-1"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParseBudget(-1) error = %v, want ErrInvalidAmount", err)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1000}
	b := Money{Cents: 250}

	if got := a.Add(b); got.Cents != 1250 {
		t.Errorf("Add = %d, want 1250", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -750 {
		t.Errorf("Sub = %d, want -750", got.Cents)
	}
	if !(Money{}).IsZero() {
		t.Error("zero Money should report IsZero")
	}
	if (Money{Cents: -1}).IsPositive() {
		t.Error("negative Money should not report IsPositive")
	}
}

func TestMoneyJSON(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{name: "fractional", cents: 1234, want: "12.34"},
		{name: "whole euros drop trailing zeros", cents: 1000, want: "10"},
		{name: "cents only", cents: 5, want: "0.05"},
		{name: "zero", cents: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Money{Cents: tt.cents})
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal(%d cents) = %s, want %s", tt.cents, data, tt.want)
			}

			var back Money
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if back.Cents != tt.cents {
				t.Errorf("round trip = %d cents, want %d", back.Cents, tt.cents)
			}
		})
	}
}

func TestMoneyUnmarshalTolerance(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"12.34"`), &m); err != nil {
		t.Fatalf("quoted number: %v", err)
	}
	if m.Cents != 1234 {
		t.Errorf("quoted number = %d cents, want 1234", m.Cents)
	}

	if err := json.Unmarshal([]byte(`null`), &m); err != nil {
		t.Fatalf("null: %v", err)
	}
	if m.Cents != 0 {
		t.Errorf("null = %d cents, want 0", m.Cents)
	}

	if err := json.Unmarshal([]byte(`12.349`), &m); err != nil {
		t.Fatalf("extra precision: %v", err)
	}
	if m.Cents != 1235 {
		t.Errorf("extra precision = %d cents, want 1235", m.Cents)
	}
}
