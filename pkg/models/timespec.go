package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidTimeSpec is returned when a time trigger carries neither a
// usable interval nor a parseable cron expression.
var ErrInvalidTimeSpec = errors.New("invalid time trigger configuration")

// TimeSpec is the parsed form of a time trigger's config. Exactly one of
// Interval or Cron is set. Cron expressions use the standard 5-field format
// (minute hour day month weekday).
type TimeSpec struct {
	Interval time.Duration
	Cron     cron.Schedule
}

// ParseTimeSpec reads "interval_seconds" or "cron" from a time trigger
// config. When both are present the interval wins.
func ParseTimeSpec(config map[string]any) (*TimeSpec, error) {
	if raw, ok := config["interval_seconds"]; ok {
		seconds, ok := toSeconds(raw)
		if !ok || seconds <= 0 {
			return nil, fmt.Errorf("%w: interval_seconds %v", ErrInvalidTimeSpec, raw)
		}

		return &TimeSpec{Interval: time.Duration(seconds * float64(time.Second))}, nil
	}

	if raw, ok := config["cron"]; ok {
		expr, ok := raw.(string)
		if !ok || expr == "" {
			return nil, fmt.Errorf("%w: cron %v", ErrInvalidTimeSpec, raw)
		}

		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

		schedule, err := parser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: cron %q: %w", ErrInvalidTimeSpec, expr, err)
		}

		return &TimeSpec{Cron: schedule}, nil
	}

	return nil, fmt.Errorf("%w: missing interval_seconds or cron", ErrInvalidTimeSpec)
}

// Due reports whether the trigger should fire at now given the workflow's
// last run. A workflow that has never run is due immediately.
func (s *TimeSpec) Due(lastRun *time.Time, now time.Time) bool {
	if lastRun == nil {
		return true
	}

	if s.Cron != nil {
		return !s.Cron.Next(*lastRun).After(now)
	}

	return now.Sub(*lastRun) >= s.Interval
}

func toSeconds(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
