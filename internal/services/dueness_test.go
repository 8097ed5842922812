package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}
	anchor := core.NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2024, 3, 15), true},
		{"ran today", date(2024, 3, 15), date(2024, 3, 15), false},
		{"ran yesterday", date(2024, 3, 14), date(2024, 3, 15), true},
		{"ran last week", date(2024, 3, 8), date(2024, 3, 15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, anchor); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}
	anchor := core.NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", time.Time{}, date(2024, 3, 15), true},
		{"ran 3 days ago", date(2024, 3, 12), date(2024, 3, 15), false},
		{"ran exactly 7 days ago", date(2024, 3, 8), date(2024, 3, 15), true},
		{"ran 10 days ago", date(2024, 3, 5), date(2024, 3, 15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, anchor); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name    string
		anchor  core.Date
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", core.NewDate(2024, 1, 15), time.Time{}, date(2024, 3, 20), true},
		{"already ran this month", core.NewDate(2024, 1, 15), date(2024, 3, 15), date(2024, 3, 20), false},
		{"new month, past target day", core.NewDate(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 16), true},
		{"new month, on target day", core.NewDate(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 15), true},
		{"new month, before target day", core.NewDate(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 10), false},
		// Anchored on the 31st; February clamps to its last day.
		{"day clamped in short month", core.NewDate(2024, 1, 31), date(2024, 1, 31), date(2024, 2, 29), true},
		{"day clamped, not reached", core.NewDate(2024, 1, 31), date(2024, 1, 31), date(2024, 2, 28), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, tt.anchor); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name    string
		anchor  core.Date
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{"never run", core.NewDate(2023, 6, 15), time.Time{}, date(2024, 3, 1), true},
		{"already ran this year", core.NewDate(2023, 6, 15), date(2024, 6, 15), date(2024, 8, 1), false},
		{"before target month", core.NewDate(2023, 6, 15), date(2023, 6, 15), date(2024, 5, 20), false},
		{"target month, on day", core.NewDate(2023, 6, 15), date(2023, 6, 15), date(2024, 6, 15), true},
		{"target month, before day", core.NewDate(2023, 6, 15), date(2023, 6, 15), date(2024, 6, 10), false},
		{"past target month", core.NewDate(2023, 6, 15), date(2023, 6, 15), date(2024, 7, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, tt.anchor); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, f := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(f); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
	if _, err := GetDuenessChecker("fortnightly"); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
