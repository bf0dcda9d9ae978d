package checkin

import (
	"strconv"
	"strings"
	"time"
)

// Timing places an attempt relative to a check-in window.
type Timing int

const (
	TimingWithin Timing = iota
	TimingBefore
	TimingAfter
)

// Window is a local time-of-day interval during which check-ins are expected.
// The zero Window is unrestricted. Windows never span midnight; position
// configuration rejects Start > End before the engine can see it.
type Window struct {
	Start string // "HH:MM"
	End   string // "HH:MM"
}

func (w Window) IsZero() bool { return w.Start == "" && w.End == "" }

// Timing classifies `now` against the window. `now` must already be in the
// position's local timezone.
func (w Window) Timing(now time.Time) Timing {
	if w.IsZero() {
		return TimingWithin
	}
	minute := now.Hour()*60 + now.Minute()
	if minute < minuteOfDay(w.Start) {
		return TimingBefore
	}
	if minute > minuteOfDay(w.End) {
		return TimingAfter
	}
	return TimingWithin
}

// LateMinutes returns how many whole minutes `now` lies past the window end,
// 0 when within or before it.
func (w Window) LateMinutes(now time.Time) int {
	if w.IsZero() {
		return 0
	}
	late := now.Hour()*60 + now.Minute() - minuteOfDay(w.End)
	if late < 0 {
		return 0
	}
	return late
}

func minuteOfDay(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}
