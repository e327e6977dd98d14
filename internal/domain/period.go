package domain

import "time"

// Period is the remote catalog's time-window parameter. It doubles as the
// refresh aggressiveness level: the longer the mirror has been stale, the wider
// the window requested on the next sync.
type Period string

const (
	PeriodDay     Period = "Day"
	PeriodWeek    Period = "Week"
	PeriodMonth   Period = "Month"
	PeriodYear    Period = "Year"
	PeriodAllTime Period = "AllTime"
)

// String returns the wire value of the period.
func (p Period) String() string {
	return string(p)
}

// PeriodSince maps the time elapsed since the last successful sync to a
// Period. A zero lastUpdated means the mirror has never been synced and falls
// through to AllTime.
func PeriodSince(lastUpdated, now time.Time) Period {
	if lastUpdated.IsZero() {
		return PeriodAllTime
	}

	days := int(now.Sub(lastUpdated).Hours() / 24)
	switch {
	case days <= 2:
		return PeriodDay
	case days <= 7:
		return PeriodWeek
	case days <= 30:
		return PeriodMonth
	case days <= 365:
		return PeriodYear
	default:
		return PeriodAllTime
	}
}
