package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY DATE - Calendar date abstraction (ledgers are day-scoped)
// =============================================================================

// DayDate is a calendar date with no time-of-day component.
// Every ledger row is keyed by (shop, DayDate); all comparisons and
// arithmetic happen at day granularity in UTC.
type DayDate struct {
	t time.Time
}

// Constructors
func NewDayDate(year int, month time.Month, day int) DayDate {
	return DayDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DayOf(t time.Time) DayDate {
	return NewDayDate(t.Year(), t.Month(), t.Day())
}

func Today() DayDate {
	return DayOf(time.Now().UTC())
}

// ParseDayDate parses a date in ISO form (2006-01-02).
func ParseDayDate(s string) (DayDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DayDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Arithmetic
func (d DayDate) AddDays(n int) DayDate { return DayOf(d.t.AddDate(0, 0, n)) }
func (d DayDate) Prev() DayDate         { return d.AddDays(-1) }
func (d DayDate) Next() DayDate         { return d.AddDays(1) }

// Comparison
func (d DayDate) Before(other DayDate) bool { return d.t.Before(other.t) }
func (d DayDate) After(other DayDate) bool  { return d.t.After(other.t) }
func (d DayDate) Equal(other DayDate) bool  { return d.t.Equal(other.t) }
func (d DayDate) IsZero() bool              { return d.t.IsZero() }

// Properties
func (d DayDate) Year() int         { return d.t.Year() }
func (d DayDate) Month() time.Month { return d.t.Month() }
func (d DayDate) Day() int          { return d.t.Day() }
func (d DayDate) Time() time.Time   { return d.t }

func (d DayDate) String() string { return d.t.Format("2006-01-02") }

// MonthYear returns the archive bucket label, e.g. "January 2026".
func (d DayDate) MonthYear() string { return d.t.Format("January 2006") }
