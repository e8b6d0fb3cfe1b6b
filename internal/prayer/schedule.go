package prayer

import (
	"errors"
	"fmt"
	"time"
)

// ErrScheduleBuild is returned when a schedule cannot be built or is invalid.
var ErrScheduleBuild = errors.New("schedule build failed")

// Validation errors, all wrapping ErrScheduleBuild.
var (
	ErrEmptySchedule   = fmt.Errorf("%w: schedule has no events", ErrScheduleBuild)
	ErrUnordered       = fmt.Errorf("%w: events are not strictly ordered", ErrScheduleBuild)
	ErrOutsideDay      = fmt.Errorf("%w: event outside of the scheduled day", ErrScheduleBuild)
	ErrMissingSentinel = fmt.Errorf("%w: schedule must end with the next-day fajr", ErrScheduleBuild)
)

// Event is a single scheduled instant.
type Event struct {
	Kind    Kind
	Window  Window // set only for KindRestricted
	Instant time.Time
}

// Name returns the display name of the event, applying the weekday of its
// instant.
func (e Event) Name() string {
	if e.Kind == KindRestricted && e.Window != WindowNone {
		return fmt.Sprintf("Restricted (%s)", e.Window)
	}
	return DisplayName(e.Kind, e.Instant.Weekday())
}

// Audible reports whether the event has a cue.
func (e Event) Audible() bool {
	_, ok := CategoryFor(e.Kind)
	return ok
}

// Source builds the schedule for the local day containing now.
type Source interface {
	Build(coords Coordinates, params Parameters, now time.Time) (*Schedule, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(coords Coordinates, params Parameters, now time.Time) (*Schedule, error)

// Build calls f.
func (f SourceFunc) Build(coords Coordinates, params Parameters, now time.Time) (*Schedule, error) {
	return f(coords, params, now)
}

// Schedule is the immutable ordered list of events of one local day.
type Schedule struct {
	day    time.Time
	events []Event
	coords Coordinates
	params Parameters
}

// NewSchedule validates events and returns a Schedule for the local day that
// starts at day. Events must be strictly increasing, lie within the day, and
// the last event must be the next-day Fajr sentinel, which alone may fall on
// the following day.
func NewSchedule(day time.Time, events []Event, coords Coordinates, params Parameters) (*Schedule, error) {
	if len(events) == 0 {
		return nil, ErrEmptySchedule
	}

	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	last := events[len(events)-1]
	if last.Kind != KindFajrTomorrow {
		return nil, ErrMissingSentinel
	}

	for i, ev := range events {
		if i > 0 && !ev.Instant.After(events[i-1].Instant) {
			return nil, fmt.Errorf("%w: %s at %s", ErrUnordered, ev.Kind, ev.Instant.Format(time.RFC3339))
		}
		if ev.Kind == KindFajrTomorrow {
			if i != len(events)-1 {
				return nil, ErrMissingSentinel
			}
			if ev.Instant.Before(start) {
				return nil, fmt.Errorf("%w: %s at %s", ErrOutsideDay, ev.Kind, ev.Instant.Format(time.RFC3339))
			}
			continue
		}
		if ev.Instant.Before(start) || !ev.Instant.Before(end) {
			return nil, fmt.Errorf("%w: %s at %s", ErrOutsideDay, ev.Kind, ev.Instant.Format(time.RFC3339))
		}
	}

	copied := make([]Event, len(events))
	copy(copied, events)

	return &Schedule{
		day:    start,
		events: copied,
		coords: coords,
		params: params,
	}, nil
}

// Day returns the start of the local day the schedule covers.
func (s *Schedule) Day() time.Time {
	return s.day
}

// Events returns a copy of the scheduled events.
func (s *Schedule) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of events.
func (s *Schedule) Len() int {
	return len(s.events)
}

// Coordinates returns the coordinates the schedule was built with.
func (s *Schedule) Coordinates() Coordinates {
	return s.coords
}

// Parameters returns the calculation parameters the schedule was built with.
func (s *Schedule) Parameters() Parameters {
	return s.params
}

// Covers reports whether t falls on the schedule's local day.
func (s *Schedule) Covers(t time.Time) bool {
	return SameDay(s.day, t)
}

// Next returns the earliest event that is later than consumed and not before
// notBefore.
func (s *Schedule) Next(consumed, notBefore time.Time) (Event, bool) {
	for _, ev := range s.events {
		if !ev.Instant.After(consumed) || ev.Instant.Before(notBefore) {
			continue
		}
		return ev, true
	}
	return Event{}, false
}

// Current returns the latest event at or before now, if any.
func (s *Schedule) Current(now time.Time) (Event, bool) {
	var (
		current Event
		found   bool
	)
	for _, ev := range s.events {
		if ev.Instant.After(now) {
			break
		}
		current = ev
		found = true
	}
	return current, found
}

// Remaining returns the time from now until instant floored to whole hours
// and minutes. Past instants yield zero.
func Remaining(now, instant time.Time) (hours, minutes int) {
	d := instant.Sub(now)
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return total / 60, total % 60
}

// StartOfDay returns midnight of t's local day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
