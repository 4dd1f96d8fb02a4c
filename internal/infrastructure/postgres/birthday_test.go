package postgres

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBirthdayWindow_SameYear(t *testing.T) {
	t.Parallel()

	start, end, wraps := birthdayWindow(date(2025, time.June, 10), 7)
	if wraps {
		t.Fatal("mid-year window must not wrap")
	}
	if start != "0610" || end != "0617" {
		t.Fatalf("got [%s, %s], want [0610, 0617]", start, end)
	}
}

func TestBirthdayWindow_Wraparound(t *testing.T) {
	t.Parallel()

	start, end, wraps := birthdayWindow(date(2025, time.December, 29), 7)
	if !wraps {
		t.Fatal("Dec 29 + 7d must wrap into January")
	}
	if start != "1229" || end != "0105" {
		t.Fatalf("got [%s, %s], want [1229, 0105]", start, end)
	}

	// The matching condition for a wrapped window is (>= start OR <= end).
	in := func(md string) bool { return md >= start || md <= end }
	if !in("1231") {
		t.Fatal("Dec 31 must match")
	}
	if !in("0103") {
		t.Fatal("Jan 3 must match")
	}
	if in("0110") {
		t.Fatal("Jan 10 must not match")
	}
}

func TestBirthdayWindow_EndOfYearExactBoundary(t *testing.T) {
	t.Parallel()

	// Window ending exactly on Dec 31 stays in-year.
	start, end, wraps := birthdayWindow(date(2025, time.December, 24), 7)
	if wraps {
		t.Fatal("window ending on Dec 31 must not wrap")
	}
	if start != "1224" || end != "1231" {
		t.Fatalf("got [%s, %s], want [1224, 1231]", start, end)
	}
}

func TestBirthdayWindow_ZeroDays(t *testing.T) {
	t.Parallel()

	start, end, wraps := birthdayWindow(date(2025, time.March, 5), 0)
	if wraps || start != end || start != "0305" {
		t.Fatalf("got [%s, %s] wraps=%v, want single-day [0305, 0305]", start, end, wraps)
	}
}
