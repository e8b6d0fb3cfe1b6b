package monitor

import "time"

// Clock supplies wall-clock time and the sleep between ticks.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct {
	loc *time.Location
}

// SystemClock returns the real clock, reporting times in loc.
// A nil loc uses the local zone.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
