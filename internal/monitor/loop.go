// Package monitor runs the loop that waits for the next event of the day
// and fires the playback trigger when it becomes due.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// State is the loop's position in its cycle.
type State int

const (
	// StateRebuilding requests a fresh schedule on the next tick.
	StateRebuilding State = iota
	// StateWaiting counts down to the next event.
	StateWaiting
	// StateFiring plays the cue of a due event.
	StateFiring
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRebuilding:
		return "rebuilding"
	case StateWaiting:
		return "waiting"
	case StateFiring:
		return "firing"
	default:
		return "unknown"
	}
}

// Trigger plays the cue for an event kind on a device, blocking until done.
type Trigger interface {
	Fire(ctx context.Context, kind prayer.Kind, device string) error
}

// Announcer is told about firings in addition to the status sink.
type Announcer interface {
	Announce(ctx context.Context, ev prayer.Event) error
	AnnounceFailure(ctx context.Context, ev prayer.Event, cause error) error
}

// Config is the immutable input of a loop.
type Config struct {
	Coordinates prayer.Coordinates
	Parameters  prayer.Parameters
	Device      string // empty = system default
	Tick        time.Duration
}

// DefaultTick is the loop cadence when Config.Tick is unset.
const DefaultTick = time.Second

// Loop drives the wait-and-fire cycle. It is not safe for concurrent use:
// exactly one goroutine calls Step or Run.
type Loop struct {
	cfg       Config
	source    prayer.Source
	trigger   Trigger
	clock     Clock
	status    StatusSink
	announcer Announcer
	logger    *slog.Logger

	state    State
	schedule *prayer.Schedule
	consumed time.Time // instant of the last fired event
	// Set by fire, cleared on the next tick.
	firedAt     time.Time
	playedUntil time.Time
}

// New creates a loop in the Rebuilding state.
func New(cfg Config, source prayer.Source, trigger Trigger, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}

	return &Loop{
		cfg:     cfg,
		source:  source,
		trigger: trigger,
		clock:   SystemClock(nil),
		status:  discardStatus{},
		logger:  logger,
		state:   StateRebuilding,
	}
}

// SetClock replaces the wall clock.
func (l *Loop) SetClock(clock Clock) {
	l.clock = clock
}

// SetStatus sets where status lines are written.
func (l *Loop) SetStatus(status StatusSink) {
	l.status = status
}

// SetAnnouncer sets an optional announcer for firings.
func (l *Loop) SetAnnouncer(announcer Announcer) {
	l.announcer = announcer
}

// State returns the current state.
func (l *Loop) State() State {
	return l.state
}

// Schedule returns the schedule currently tracked, nil before the first build.
func (l *Loop) Schedule() *prayer.Schedule {
	return l.schedule
}

// Run ticks until ctx is cancelled or a fatal error occurs. Cancellation
// interrupts both the sleep between ticks and a playing cue, and makes
// Run return nil.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("monitor started", "tick", l.cfg.Tick, "device", deviceLabel(l.cfg.Device))

	for ctx.Err() == nil {
		if err := l.Step(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		select {
		case <-ctx.Done():
		case <-l.clock.After(l.cfg.Tick):
		}
	}

	l.logger.Info("monitor stopped")
	return nil
}

// Step performs one tick. It returns an error only for fatal conditions:
// a failed schedule build or cancellation of ctx. Playback failures are
// logged and the loop moves on.
func (l *Loop) Step(ctx context.Context) error {
	now := l.clock.Now()
	firedAt, playedUntil := l.firedAt, l.playedUntil
	l.firedAt, l.playedUntil = time.Time{}, time.Time{}

	if l.state == StateRebuilding || l.schedule == nil || !l.schedule.Covers(now) {
		if err := l.rebuild(now); err != nil {
			return err
		}
	}

	// Nothing older than one tick is eligible, even after the process was
	// suspended between ticks, unless it came due while the previous tick
	// was blocked in playback.
	ev, ok := l.schedule.Next(l.consumed, now.Add(-l.cfg.Tick))
	if !firedAt.IsZero() {
		missed, found := l.schedule.Next(l.consumed, firedAt.Add(-l.cfg.Tick))
		if found && !missed.Instant.After(playedUntil) {
			ev, ok = missed, true
		}
	}
	if !ok {
		l.logger.Debug("schedule exhausted, rebuilding", "day", l.schedule.Day().Format(time.DateOnly))
		l.state = StateRebuilding
		return nil
	}

	hours, minutes := prayer.Remaining(now, ev.Instant)
	if hours > 0 || minutes > 0 {
		l.status.Status(waitingText(ev, hours, minutes))
		return nil
	}

	return l.fire(ctx, ev, now)
}

func (l *Loop) rebuild(now time.Time) error {
	schedule, err := l.source.Build(l.cfg.Coordinates, l.cfg.Parameters, now)
	if err != nil {
		if !errors.Is(err, prayer.ErrScheduleBuild) {
			err = fmt.Errorf("%w: %w", prayer.ErrScheduleBuild, err)
		}
		return err
	}

	l.schedule = schedule
	l.state = StateWaiting
	l.logger.Debug("schedule built", "day", schedule.Day().Format(time.DateOnly), "events", schedule.Len())
	return nil
}

func (l *Loop) fire(ctx context.Context, ev prayer.Event, now time.Time) error {
	l.state = StateFiring
	l.consumed = ev.Instant
	l.firedAt = now
	defer func() {
		l.playedUntil = l.clock.Now()
		l.state = StateRebuilding
	}()

	logger := l.logger.With("event", ev.Kind, "instant", ev.Instant.Format(time.TimeOnly))
	if !ev.Audible() {
		logger.Debug("marker reached", "name", ev.Name())
	} else {
		l.status.Event(firingText(ev))
		logger.Info("event due", "name", ev.Name())
	}

	if l.announcer != nil {
		if err := l.announcer.Announce(ctx, ev); err != nil {
			logger.Debug("announcement failed", "error", err)
		}
	}

	err := l.trigger.Fire(ctx, ev.Kind, l.cfg.Device)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.Warn("playback failed", "device", deviceLabel(l.cfg.Device), "error", err)
	l.status.Event(fmt.Sprintf("Could not play %s: %v", ev.Name(), err))
	if l.announcer != nil {
		if aerr := l.announcer.AnnounceFailure(ctx, ev, err); aerr != nil {
			logger.Debug("announcement failed", "error", aerr)
		}
	}
	return nil
}

func waitingText(ev prayer.Event, hours, minutes int) string {
	if !ev.Audible() {
		return fmt.Sprintf("Waiting for next marker in %2dh %2dm", hours, minutes)
	}
	return fmt.Sprintf("Next prayer (%s) starts in %2dh %2dm", ev.Name(), hours, minutes)
}

func firingText(ev prayer.Event) string {
	return "Prayer time is now: " + ev.Name()
}

func deviceLabel(device string) string {
	if device == "" {
		return "default"
	}
	return device
}

type discardStatus struct{}

func (discardStatus) Status(string) {}
func (discardStatus) Event(string)  {}
