package jobs

import (
	"testing"
	"time"
)

func TestNextMonthlyRun(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid-month rolls to next month",
			now:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 9, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name: "just before the run on day 1",
			now:  time.Date(2026, 9, 1, 0, 4, 59, 0, time.UTC),
			want: time.Date(2026, 9, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name: "exactly at the run time waits a month",
			now:  time.Date(2026, 9, 1, 0, 5, 0, 0, time.UTC),
			want: time.Date(2026, 10, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name: "december rolls into january",
			now:  time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC),
			want: time.Date(2027, 1, 1, 0, 5, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nextMonthlyRun(tc.now)
			if !got.Equal(tc.want) {
				t.Errorf("nextMonthlyRun(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
