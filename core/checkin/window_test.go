package checkin

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2021, 3, 15, hour, min, 0, 0, time.UTC)
}

func TestWindowTiming(t *testing.T) {
	win := Window{Start: "09:00", End: "18:00"}

	tests := []struct {
		name string
		win  Window
		now  time.Time
		want Timing
	}{
		{"before start", win, at(8, 59), TimingBefore},
		{"at start", win, at(9, 0), TimingWithin},
		{"mid window", win, at(12, 30), TimingWithin},
		{"at end", win, at(18, 0), TimingWithin},
		{"after end", win, at(18, 1), TimingAfter},
		{"midnight", win, at(0, 0), TimingBefore},
		{"zero window always within", Window{}, at(3, 0), TimingWithin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.win.Timing(tt.now); got != tt.want {
				t.Errorf("Timing() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestWindowLateMinutes(t *testing.T) {
	win := Window{Start: "09:00", End: "18:00"}

	tests := []struct {
		name string
		win  Window
		now  time.Time
		want int
	}{
		{"before start", win, at(7, 0), 0},
		{"within", win, at(17, 59), 0},
		{"at end", win, at(18, 0), 0},
		{"one minute late", win, at(18, 1), 1},
		{"forty-two minutes late", win, at(18, 42), 42},
		{"seconds do not count", win, at(18, 0).Add(59 * time.Second), 0},
		{"zero window never late", Window{}, at(23, 59), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.win.LateMinutes(tt.now); got != tt.want {
				t.Errorf("LateMinutes() = %v; want %v", got, tt.want)
			}
		})
	}
}
