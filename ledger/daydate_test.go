package ledger_test

import (
	"testing"
	"time"

	"github.com/warp/daybook/ledger"
)

func TestDayDate_ParseAndFormat_RoundTrip(t *testing.T) {
	d, err := ledger.ParseDayDate("2026-03-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2026-03-15" {
		t.Errorf("format: want 2026-03-15, got %s", d.String())
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 15 {
		t.Errorf("components wrong: %v", d)
	}
}

func TestDayDate_ParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "15-03-2026", "2026/03/15", "yesterday"} {
		if _, err := ledger.ParseDayDate(in); err == nil {
			t.Errorf("ParseDayDate(%q): want error", in)
		}
	}
}

func TestDayDate_PrevNext_CrossesMonthAndYear(t *testing.T) {
	// Month boundary
	d := ledger.NewDayDate(2026, time.March, 1)
	if got := d.Prev().String(); got != "2026-02-28" {
		t.Errorf("prev across month: want 2026-02-28, got %s", got)
	}
	// Year boundary
	nye := ledger.NewDayDate(2025, time.December, 31)
	if got := nye.Next().String(); got != "2026-01-01" {
		t.Errorf("next across year: want 2026-01-01, got %s", got)
	}
	// Leap day
	leap := ledger.NewDayDate(2024, time.February, 28)
	if got := leap.Next().String(); got != "2024-02-29" {
		t.Errorf("leap day: want 2024-02-29, got %s", got)
	}
}

func TestDayDate_Comparisons(t *testing.T) {
	a := ledger.NewDayDate(2026, time.January, 10)
	b := ledger.NewDayDate(2026, time.January, 11)

	if !a.Before(b) || b.Before(a) {
		t.Error("Before broken")
	}
	if !b.After(a) {
		t.Error("After broken")
	}
	if !a.Equal(ledger.DayOf(time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC))) {
		t.Error("DayOf should truncate time-of-day")
	}
}

func TestDayDate_MonthYear_ArchiveBucket(t *testing.T) {
	d := ledger.NewDayDate(2026, time.August, 29)
	if got := d.MonthYear(); got != "August 2026" {
		t.Errorf("month-year: want August 2026, got %s", got)
	}
}
