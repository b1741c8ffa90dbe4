package scheduler

import (
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"00:30", "0 30 0 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"6:05", "0 5 6 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"12", "", true},
	}
	for _, tc := range cases {
		got, err := buildDailySpec(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("buildDailySpec(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("buildDailySpec(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	s := New(time.UTC)
	if _, err := s.ScheduleInterval(0, func() {}); err == nil {
		t.Error("zero interval accepted")
	}
	if _, err := s.ScheduleInterval(-time.Minute, func() {}); err == nil {
		t.Error("negative interval accepted")
	}
}

func TestScheduleDailyRuns(t *testing.T) {
	s := New(time.UTC)
	if _, err := s.ScheduleDaily("03:15", func() {}); err != nil {
		t.Fatalf("ScheduleDaily: %v", err)
	}
	s.Start()
	s.Stop()
}
