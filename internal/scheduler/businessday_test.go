package scheduler

import (
	"testing"
	"time"
)

func TestAddBusinessDays(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := map[string]struct {
		now  time.Time
		k    int
		want string
	}{
		"monday plus two":          {now: time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC), k: 2, want: "2026-10-14"},
		"thursday plus two":        {now: time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC), k: 2, want: "2026-10-19"},
		"friday plus two":          {now: time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC), k: 2, want: "2026-10-20"},
		"saturday plus two":        {now: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC), k: 2, want: "2026-10-20"},
		"sunday plus one":          {now: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), k: 1, want: "2026-10-19"},
		"zero days is today":       {now: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC), k: 0, want: "2026-10-17"},
		"crosses month end":        {now: time.Date(2026, 10, 30, 8, 0, 0, 0, time.UTC), k: 2, want: "2026-11-03"},
		"five days spans weekend":  {now: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC), k: 5, want: "2026-10-21"},
		"local zone keeps the day": {now: time.Date(2026, 10, 15, 22, 0, 0, 0, saoPaulo), k: 2, want: "2026-10-19"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := AddBusinessDays(tc.now, tc.k)
			if got.Format(time.DateOnly) != tc.want {
				t.Errorf("AddBusinessDays(%s, %d) = %s, want %s", tc.now, tc.k, got.Format(time.DateOnly), tc.want)
			}
			if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
				if tc.k > 0 {
					t.Errorf("target %s falls on a weekend", got.Format(time.DateOnly))
				}
			}
		})
	}
}

func TestAddBusinessDaysCountsExactlyK(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		now := start.AddDate(0, 0, i)
		for k := 1; k <= 4; k++ {
			target := AddBusinessDays(now, k)
			count := 0
			for d := truncateToDate(now).AddDate(0, 0, 1); !d.After(target); d = d.AddDate(0, 0, 1) {
				if isBusinessDay(d) {
					count++
				}
			}
			if count != k {
				t.Fatalf("now=%s k=%d: %d business days until %s", now.Format(time.DateOnly), k, count, target.Format(time.DateOnly))
			}
		}
	}
}
