// Package booking decides whether reservation windows conflict.
//
// A reservation occupies the half-open interval [start, end). Windows that
// merely touch (one ends exactly when the next starts) do not conflict.
package booking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"service-portal-backend/internal/domain"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{"15:04", "15:04:05"}

// Window is a parsed reservation interval, end exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow builds the window for a slot. All slots are interpreted in
// UTC; only relative ordering matters for conflict checks.
func ParseWindow(s domain.Slot) (Window, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s.Date), time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: date %q", domain.ErrInvalidWindow, s.Date)
	}

	tod, err := parseTimeOfDay(s.StartTime)
	if err != nil {
		return Window{}, err
	}

	h := s.DurationHours
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return Window{}, fmt.Errorf("%w: duration %v hours", domain.ErrInvalidWindow, h)
	}
	d := time.Duration(h * float64(time.Hour))
	if d <= 0 {
		return Window{}, fmt.Errorf("%w: duration %v hours", domain.ErrInvalidWindow, h)
	}

	start := day.Add(tod)
	return Window{Start: start, End: start.Add(d)}, nil
}

func parseTimeOfDay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: start time %q", domain.ErrInvalidWindow, v)
}

// Valid reports whether the window has strictly positive length.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && w.End.After(w.Start)
}

// Overlaps applies the half-open test s1 < e2 && s2 < e1.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
