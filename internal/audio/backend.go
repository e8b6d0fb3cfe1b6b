package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Sound is a fully decoded cue held in memory.
type Sound struct {
	Path   string
	buffer *beep.Buffer
}

// Duration returns the playing time of the sound.
func (s *Sound) Duration() time.Duration {
	if s == nil || s.buffer == nil {
		return 0
	}
	return s.buffer.Format().SampleRate.D(s.buffer.Len())
}

// Backend decodes cues and plays them on an output device.
type Backend interface {
	DeviceLister

	// Decode reads a whole cue into memory. name selects the format by extension.
	Decode(name string, r io.ReadCloser) (*Sound, error)

	// Play blocks until the sound has finished or ctx is done.
	Play(ctx context.Context, device Device, sound *Sound) error
}

// DecodeFile decodes a cue by file extension. Supports WAV, OGG, and MP3 formats.
func DecodeFile(name string, r io.ReadCloser) (*Sound, error) {
	defer func() { _ = r.Close() }()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".ogg":
		streamer, format, err = vorbis.Decode(r)
	case ".mp3":
		streamer, format, err = mp3.Decode(r)
	default:
		return nil, fmt.Errorf("%w: unsupported audio format %q: %s", ErrDecode, ext, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	if buffer.Len() == 0 {
		return nil, fmt.Errorf("%w: %s contains no samples", ErrDecode, name)
	}

	return &Sound{Path: name, buffer: buffer}, nil
}

// SpeakerBackend plays cues through the beep speaker.
type SpeakerBackend struct {
	*SystemDevices

	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Whether speaker has been initialized, and for which device
	initialized bool
	device      string

	// Sample rate for the speaker
	sampleRate beep.SampleRate
}

// NewSpeakerBackend creates a backend that lists host devices through
// devices and plays through the default audio driver.
func NewSpeakerBackend(devices *SystemDevices, logger *slog.Logger) *SpeakerBackend {
	if logger == nil {
		logger = slog.Default()
	}
	if devices == nil {
		devices = NewSystemDevices(nil, nil, logger)
	}

	return &SpeakerBackend{
		SystemDevices: devices,
		logger:        logger,
		volume:        1.0,
		sampleRate:    beep.SampleRate(44100),
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (b *SpeakerBackend) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.volume = min(max(volume, 0), 1)
	b.logger.Debug("volume set", "volume", b.volume)
}

// Decode implements Backend.
func (b *SpeakerBackend) Decode(name string, r io.ReadCloser) (*Sound, error) {
	return DecodeFile(name, r)
}

// Play implements Backend.
func (b *SpeakerBackend) Play(ctx context.Context, device Device, sound *Sound) error {
	if sound == nil || sound.buffer == nil {
		return fmt.Errorf("%w: nothing to play", ErrPlayback)
	}
	if err := b.ensureInitialized(device); err != nil {
		return err
	}

	b.mu.Lock()
	volume := b.volume
	sampleRate := b.sampleRate
	b.mu.Unlock()

	buffer := sound.buffer
	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	// Resample if necessary
	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	// Apply volume
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return fmt.Errorf("%w: %s interrupted: %w", ErrPlayback, sound.Path, ctx.Err())
	}
}

// ensureInitialized opens the speaker on first use. The audio driver
// context can only be created once per process, so the device chosen on
// the first trigger stays bound; later triggers naming another device
// are logged.
func (b *SpeakerBackend) ensureInitialized(device Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		if device.Name != b.device {
			b.logger.Warn("speaker already bound to another device",
				"device", device.Name, "bound", b.device)
		}
		return nil
	}

	// The ALSA pulse plugin honours PULSE_SINK when the stream is opened.
	if device.Host == HostPulse && !device.Default {
		if err := os.Setenv("PULSE_SINK", device.Name); err != nil {
			return fmt.Errorf("%w: %w", ErrDevice, err)
		}
	}

	// Use a reasonable buffer size for low latency
	bufferSize := b.sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(b.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("%w: failed to initialize speaker: %w", ErrDevice, err)
	}

	b.initialized = true
	b.device = device.Name
	b.logger.Debug("speaker initialized", "sample_rate", b.sampleRate, "device", device.Name)
	return nil
}

// Close stops all playback and releases resources.
func (b *SpeakerBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		speaker.Close()
		b.initialized = false
	}
	b.logger.Debug("speaker backend closed")
}

// volumeToExponent converts a linear volume (0-1) to a base-2 exponent
// for effects.Volume: 0.5 is -1, 0.25 is -2.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
