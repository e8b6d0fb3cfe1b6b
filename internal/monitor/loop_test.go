package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/adhan/internal/audio"
	"github.com/jmylchreest/adhan/internal/prayer"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type firing struct {
	kind   prayer.Kind
	device string
	at     time.Time
}

type fakeTrigger struct {
	clock  *fakeClock
	err    error
	onFire func(ctx context.Context) error
	fired  []firing
}

func (t *fakeTrigger) Fire(ctx context.Context, kind prayer.Kind, device string) error {
	t.fired = append(t.fired, firing{kind, device, t.clock.now})
	if t.onFire != nil {
		return t.onFire(ctx)
	}
	return t.err
}

type recordingStatus struct {
	statuses []string
	events   []string
}

func (s *recordingStatus) Status(text string) { s.statuses = append(s.statuses, text) }
func (s *recordingStatus) Event(text string)  { s.events = append(s.events, text) }

func (s *recordingStatus) lastStatus() string {
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

type recordingAnnouncer struct {
	announced []prayer.Kind
	failures  []error
}

func (a *recordingAnnouncer) Announce(_ context.Context, ev prayer.Event) error {
	a.announced = append(a.announced, ev.Kind)
	return nil
}

func (a *recordingAnnouncer) AnnounceFailure(_ context.Context, _ prayer.Event, cause error) error {
	a.failures = append(a.failures, cause)
	return nil
}

// entry places a kind at a clock time relative to the start of a day.
type entry struct {
	kind   prayer.Kind
	offset time.Duration
}

func hm(hour, minute int) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
}

// fakeSource builds the same synthetic day for whatever date it is asked about.
type fakeSource struct {
	entries []entry
	err     error
	builds  []time.Time
}

func (s *fakeSource) Build(coords prayer.Coordinates, params prayer.Parameters, now time.Time) (*prayer.Schedule, error) {
	s.builds = append(s.builds, now)
	if s.err != nil {
		return nil, s.err
	}

	day := prayer.StartOfDay(now)
	var events []prayer.Event
	for _, e := range s.entries {
		events = append(events, prayer.Event{Kind: e.kind, Instant: day.Add(e.offset)})
	}
	events = append(events, prayer.Event{Kind: prayer.KindFajrTomorrow, Instant: day.AddDate(0, 0, 1).Add(hm(6, 0))})
	return prayer.NewSchedule(day, events, coords, params)
}

// Scenario schedule: Fajr 06:00, Dhuhr 12:00, next Fajr 06:00 tomorrow.
var scenarioDay = []entry{
	{prayer.KindFajr, hm(6, 0)},
	{prayer.KindDhuhr, hm(12, 0)},
}

// wednesday returns a clock time on 2025-03-12.
func wednesday(hour, minute, second int) time.Time {
	return time.Date(2025, 3, 12, hour, minute, second, 0, time.UTC)
}

type harness struct {
	loop    *Loop
	clock   *fakeClock
	source  *fakeSource
	trigger *fakeTrigger
	status  *recordingStatus
}

func newHarness(t *testing.T, start time.Time, entries []entry) *harness {
	t.Helper()
	clock := &fakeClock{now: start}
	source := &fakeSource{entries: entries}
	trigger := &fakeTrigger{clock: clock}
	status := &recordingStatus{}

	loop := New(Config{
		Coordinates: prayer.Coordinates{Latitude: 51.5, Longitude: -0.1},
		Parameters:  prayer.MethodMuslimWorldLeague.Parameters(),
		Device:      "speakers",
		Tick:        time.Second,
	}, source, trigger, nil)
	loop.SetClock(clock)
	loop.SetStatus(status)

	return &harness{loop: loop, clock: clock, source: source, trigger: trigger, status: status}
}

func (h *harness) step(t *testing.T) {
	t.Helper()
	require.NoError(t, h.loop.Step(context.Background()))
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	<-h.clock.After(time.Second)
	h.step(t)
}

func TestLoop_WaitingOneMinuteBefore(t *testing.T) {
	h := newHarness(t, wednesday(11, 59, 0), scenarioDay)
	assert.Equal(t, StateRebuilding, h.loop.State())

	h.step(t)

	assert.Equal(t, StateWaiting, h.loop.State())
	assert.Equal(t, "Next prayer (Dhuhr) starts in  0h  1m", h.status.lastStatus())
	assert.Empty(t, h.trigger.fired)
	assert.Len(t, h.source.builds, 1)
}

func TestLoop_FiresAtInstantThenRebuilds(t *testing.T) {
	h := newHarness(t, wednesday(12, 0, 0), scenarioDay)

	h.step(t)

	require.Len(t, h.trigger.fired, 1)
	assert.Equal(t, prayer.KindDhuhr, h.trigger.fired[0].kind)
	assert.Equal(t, "speakers", h.trigger.fired[0].device)
	category, _ := prayer.CategoryFor(h.trigger.fired[0].kind)
	assert.Equal(t, prayer.CategoryNormal, category)
	assert.Equal(t, []string{"Prayer time is now: Dhuhr"}, h.status.events)
	assert.Equal(t, StateRebuilding, h.loop.State())

	h.tick(t)

	assert.Len(t, h.source.builds, 2)
	assert.Len(t, h.trigger.fired, 1)
	assert.Equal(t, StateWaiting, h.loop.State())
	assert.Equal(t, "Next prayer (Fajr) starts in 17h 59m", h.status.lastStatus())
}

func TestLoop_FiresWithinLastMinuteOnlyOnce(t *testing.T) {
	h := newHarness(t, wednesday(11, 59, 30), scenarioDay)

	h.step(t)
	require.Len(t, h.trigger.fired, 1)

	// The cue ended before the event's exact instant.
	for range 40 {
		h.tick(t)
	}
	assert.Len(t, h.trigger.fired, 1)
	assert.Contains(t, h.status.lastStatus(), "(Fajr)")
}

func TestLoop_RecoverableFailuresDoNotStall(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		err   error
		next  string
	}{
		{"no cue for fajr", wednesday(6, 0, 0), fmt.Errorf("%w: /cues/fajr is empty", audio.ErrNoCue), "Dhuhr"},
		{"no device", wednesday(12, 0, 0), fmt.Errorf("%w: %q not found and no default device", audio.ErrDevice, "NonexistentSpeaker"), "Fajr"},
		{"decode", wednesday(12, 0, 0), audio.ErrDecode, "Fajr"},
		{"unclassified", wednesday(12, 0, 0), errors.New("backend exploded"), "Fajr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.start, scenarioDay)
			h.trigger.err = tt.err
			announcer := &recordingAnnouncer{}
			h.loop.SetAnnouncer(announcer)

			h.step(t)
			require.Len(t, h.trigger.fired, 1)
			assert.Equal(t, StateRebuilding, h.loop.State())
			require.Len(t, h.status.events, 2)
			assert.Contains(t, h.status.events[1], "Could not play")
			assert.Equal(t, []error{tt.err}, announcer.failures)

			h.tick(t)
			assert.Len(t, h.source.builds, 2)
			assert.Contains(t, h.status.lastStatus(), "("+tt.next+")")
			assert.Len(t, h.trigger.fired, 1)
		})
	}
}

func TestLoop_FridayMiddayPrayerName(t *testing.T) {
	friday := time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)
	h := newHarness(t, friday, scenarioDay)

	h.step(t)
	assert.Equal(t, "Next prayer (Jumua) starts in  1h  0m", h.status.lastStatus())

	h.clock.now = friday.Add(time.Hour)
	h.step(t)
	assert.Equal(t, []string{"Prayer time is now: Jumua"}, h.status.events)
}

func TestLoop_NonAudibleMarkers(t *testing.T) {
	h := newHarness(t, wednesday(6, 30, 0), []entry{
		{prayer.KindSunrise, hm(7, 0)},
		{prayer.KindDhuhr, hm(12, 0)},
	})

	h.step(t)
	assert.Equal(t, "Waiting for next marker in  0h 30m", h.status.lastStatus())

	h.clock.now = wednesday(7, 0, 0)
	h.step(t)
	require.Len(t, h.trigger.fired, 1)
	assert.Equal(t, prayer.KindSunrise, h.trigger.fired[0].kind)
	assert.Empty(t, h.status.events)

	h.tick(t)
	assert.Equal(t, "Next prayer (Dhuhr) starts in  4h 59m", h.status.lastStatus())
}

func TestLoop_EventDueDuringPlaybackStillFires(t *testing.T) {
	h := newHarness(t, wednesday(12, 0, 0), []entry{
		{prayer.KindDhuhr, hm(12, 0)},
		{prayer.KindAsr, hm(12, 3)},
	})
	h.trigger.onFire = func(context.Context) error {
		h.clock.now = h.clock.now.Add(5 * time.Minute)
		return nil
	}

	h.step(t)
	h.tick(t)

	require.Len(t, h.trigger.fired, 2)
	assert.Equal(t, prayer.KindDhuhr, h.trigger.fired[0].kind)
	assert.Equal(t, prayer.KindAsr, h.trigger.fired[1].kind)
}

func TestLoop_SkipsEventsMissedWhileSuspended(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		fired int
	}{
		{"while waiting", wednesday(10, 0, 0), 0},
		{"after a firing", wednesday(6, 0, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.start, scenarioDay)
			h.step(t)
			require.Len(t, h.trigger.fired, tt.fired)

			// Host slept through Dhuhr.
			h.clock.now = wednesday(19, 0, 0)
			h.step(t)

			assert.Len(t, h.trigger.fired, tt.fired)
			assert.Equal(t, "Next prayer (Fajr) starts in 11h  0m", h.status.lastStatus())
			assert.NotContains(t, h.status.events, "Prayer time is now: Dhuhr")
		})
	}
}

func TestLoop_NeverSelectsPastEvents(t *testing.T) {
	h := newHarness(t, wednesday(13, 0, 0), scenarioDay)

	h.step(t)
	assert.Empty(t, h.trigger.fired)
	assert.Equal(t, "Next prayer (Fajr) starts in 17h  0m", h.status.lastStatus())
}

func TestLoop_RebuildsOnDateChange(t *testing.T) {
	h := newHarness(t, wednesday(23, 59, 59), scenarioDay)

	h.step(t)
	h.tick(t)

	require.Len(t, h.source.builds, 2)
	assert.Equal(t, 13, h.loop.Schedule().Day().Day())
	assert.Equal(t, "Next prayer (Fajr) starts in  6h  0m", h.status.lastStatus())
	assert.Empty(t, h.trigger.fired)
}

func TestLoop_ScheduleBuildFailureIsFatal(t *testing.T) {
	h := newHarness(t, wednesday(9, 0, 0), scenarioDay)
	h.source.err = errors.New("sun did not rise")

	err := h.loop.Step(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, prayer.ErrScheduleBuild))

	err = h.loop.Run(context.Background())
	assert.True(t, errors.Is(err, prayer.ErrScheduleBuild))
}

func TestLoop_AnnouncesFiring(t *testing.T) {
	h := newHarness(t, wednesday(6, 0, 0), scenarioDay)
	announcer := &recordingAnnouncer{}
	h.loop.SetAnnouncer(announcer)

	h.step(t)
	assert.Equal(t, []prayer.Kind{prayer.KindFajr}, announcer.announced)
	assert.Empty(t, announcer.failures)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, wednesday(11, 59, 50), scenarioDay)
	ctx, cancel := context.WithCancel(context.Background())

	// Playback is interrupted by shutdown.
	h.trigger.onFire = func(ctx context.Context) error {
		cancel()
		return fmt.Errorf("%w: %w", audio.ErrPlayback, ctx.Err())
	}

	require.NoError(t, h.loop.Run(ctx))
	require.Len(t, h.trigger.fired, 1)
	assert.Equal(t, prayer.KindDhuhr, h.trigger.fired[0].kind)
}

func TestLoop_RunTicksUntilCancelled(t *testing.T) {
	h := newHarness(t, wednesday(5, 58, 0), scenarioDay)
	ctx, cancel := context.WithCancel(context.Background())
	h.trigger.onFire = func(context.Context) error {
		if h.trigger.fired[len(h.trigger.fired)-1].kind == prayer.KindDhuhr {
			cancel()
		}
		return nil
	}

	require.NoError(t, h.loop.Run(ctx))

	require.Len(t, h.trigger.fired, 2)
	assert.Equal(t, prayer.KindFajr, h.trigger.fired[0].kind)
	assert.Equal(t, wednesday(5, 59, 1), h.trigger.fired[0].at)
	assert.Equal(t, prayer.KindDhuhr, h.trigger.fired[1].kind)
	// One build at start plus one after each firing.
	assert.Len(t, h.source.builds, 2)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "rebuilding", StateRebuilding.String())
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "firing", StateFiring.String())
	assert.Equal(t, "unknown", State(9).String())
}
