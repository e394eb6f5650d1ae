package service

import (
	"testing"
	"time"
)

func TestComputeStreak(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	daysAgo := func(n int, hour int) time.Time {
		return time.Date(2024, 3, 10-n, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "no logs",
			dates:       nil,
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "three consecutive days ending today",
			dates:       []time.Time{daysAgo(2, 9), daysAgo(1, 9), daysAgo(0, 9)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "single old day",
			dates:       []time.Time{daysAgo(5, 9)},
			wantCurrent: 0,
			wantLongest: 1,
		},
		{
			name:        "single day today",
			dates:       []time.Time{daysAgo(0, 9)},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "single day yesterday",
			dates:       []time.Time{daysAgo(1, 23)},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "streak through yesterday while today is empty",
			dates:       []time.Time{daysAgo(3, 9), daysAgo(2, 9), daysAgo(1, 9)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "today and yesterday missing",
			dates:       []time.Time{daysAgo(4, 9), daysAgo(3, 9), daysAgo(2, 9)},
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name:        "duplicate days count once",
			dates:       []time.Time{daysAgo(1, 8), daysAgo(1, 20), daysAgo(0, 7), daysAgo(0, 12)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name: "longest run in the past",
			dates: []time.Time{
				daysAgo(20, 9), daysAgo(19, 9), daysAgo(18, 9), daysAgo(17, 9),
				daysAgo(1, 9), daysAgo(0, 9),
			},
			wantCurrent: 2,
			wantLongest: 4,
		},
		{
			name:        "unsorted input",
			dates:       []time.Time{daysAgo(0, 9), daysAgo(2, 9), daysAgo(1, 9)},
			wantCurrent: 3,
			wantLongest: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.dates, asOf)
			if got.Current != tt.wantCurrent {
				t.Errorf("Current = %d, want %d", got.Current, tt.wantCurrent)
			}
			if got.Longest != tt.wantLongest {
				t.Errorf("Longest = %d, want %d", got.Longest, tt.wantLongest)
			}
			if got.Longest < got.Current {
				t.Errorf("Longest %d < Current %d", got.Longest, got.Current)
			}
		})
	}
}

func TestComputeStreak_UTCDayBoundary(t *testing.T) {
	// 23:30 in UTC-5 is the next UTC day
	est := time.FixedZone("EST", -5*60*60)
	dates := []time.Time{
		time.Date(2024, 3, 8, 23, 30, 0, 0, est), // 2024-03-09 UTC
		time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC),
	}
	asOf := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got := ComputeStreak(dates, asOf)
	if got.Current != 2 {
		t.Errorf("Current = %d, want 2 when days are taken in UTC", got.Current)
	}
}
