package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// Trigger resolves an event to a cue and plays it on an output device.
// Each call resolves the device and picks the cue afresh.
type Trigger struct {
	backend Backend
	cues    *CueStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewTrigger creates a playback trigger. A zero timeout lets playback run
// until the cue ends.
func NewTrigger(backend Backend, cues *CueStore, timeout time.Duration, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Trigger{
		backend: backend,
		cues:    cues,
		timeout: timeout,
		logger:  logger,
	}
}

// Fire plays a cue for kind on the named device, blocking until playback
// completes. Kinds without a cue category return nil without touching the
// device. An empty device name selects the system default.
func (t *Trigger) Fire(ctx context.Context, kind prayer.Kind, deviceName string) error {
	category, ok := prayer.CategoryFor(kind)
	if !ok {
		t.logger.Debug("no cue for event", "event", kind)
		return nil
	}

	id := ulid.Make().String()
	logger := t.logger.With("trigger_id", id, "event", kind, "category", category)

	var device Device
	devices, err := t.backend.Devices(ctx)
	if err != nil {
		// The backend still opens the system default; it reports ErrDevice
		// itself when there is none.
		logger.Warn("device enumeration failed, using system default", "device", deviceName, "error", err)
		device = Device{Default: true}
	} else {
		device, err = ResolveDevice(devices, deviceName)
		if err != nil {
			return err
		}
		if deviceName != "" && device.Name != deviceName {
			logger.Warn("device not found, using default", "device", deviceName, "default", device.Name)
		}
	}

	path, err := t.cues.Pick(category)
	if err != nil {
		return err
	}

	f, err := t.cues.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoCue, err)
	}
	sound, err := t.backend.Decode(path, f)
	if err != nil {
		if !errors.Is(err, ErrDecode) {
			err = fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	logger.Info("playing cue", "cue", path, "device", device.Name, "duration", sound.Duration())
	start := time.Now()

	if err := t.backend.Play(ctx, device, sound); err != nil {
		if !errors.Is(err, ErrPlayback) && !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %w", ErrPlayback, err)
		}
		return err
	}

	logger.Debug("cue finished", "cue", path, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
