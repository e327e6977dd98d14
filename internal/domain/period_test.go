package domain

import (
	"testing"
	"time"
)

func TestPeriodSince(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		days int
		want Period
	}{
		{0, PeriodDay},
		{1, PeriodDay},
		{2, PeriodDay},
		{3, PeriodWeek},
		{7, PeriodWeek},
		{8, PeriodMonth},
		{30, PeriodMonth},
		{31, PeriodYear},
		{365, PeriodYear},
		{366, PeriodAllTime},
		{1000, PeriodAllTime},
	}

	for _, tt := range tests {
		lastUpdated := now.AddDate(0, 0, -tt.days)
		if got := PeriodSince(lastUpdated, now); got != tt.want {
			t.Errorf("PeriodSince(%d days ago) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestPeriodSince_NeverSynced(t *testing.T) {
	if got := PeriodSince(time.Time{}, time.Now()); got != PeriodAllTime {
		t.Errorf("PeriodSince(zero) = %v, want %v", got, PeriodAllTime)
	}
}

func TestPeriodSince_PartialDays(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 2 days and 20 hours is still within the 2-day bucket by whole-day count.
	lastUpdated := now.Add(-(2*24 + 20) * time.Hour)
	if got := PeriodSince(lastUpdated, now); got != PeriodDay {
		t.Errorf("PeriodSince(2d20h) = %v, want %v", got, PeriodDay)
	}
}
