package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Month keys are YYYY-MM, day keys YYYY-MM-DD. Months are addressed by a
// 0-based index (January = 0) everywhere in this package; the +1 happens
// only at key derivation so the stored keys stay human calendar months.

var monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthKey derives the store key for a year and 0-based month index.
func MonthKey(year, monthIndex int) string {
	return fmt.Sprintf("%04d-%02d", year, monthIndex+1)
}

// DayKey derives the expense-map key for a calendar day.
func DayKey(year, monthIndex, day int) string {
	return fmt.Sprintf("%s-%02d", MonthKey(year, monthIndex), day)
}

// ValidMonthKey reports whether key has the YYYY-MM shape. Keys that fail
// this test are tolerated in a loaded store but ignored by aggregation.
func ValidMonthKey(key string) bool {
	return monthKeyPattern.MatchString(key)
}

// ParseMonthKey splits a month key into year and 0-based month index.
func ParseMonthKey(key string) (year, monthIndex int, ok bool) {
	if !ValidMonthKey(key) {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(key[:4])
	m, _ := strconv.Atoi(key[5:7])
	return year, m - 1, true
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, monthIndex int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
