package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// Host backends that can enumerate output devices.
const (
	HostPulse = "pulseaudio"
	HostALSA  = "alsa"
)

const alsaCardsPath = "/proc/asound/cards"

// Device is an output device enumerated from the host.
type Device struct {
	Name        string
	Description string
	Host        string
	Default     bool
}

// DeviceLister enumerates host output devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]Device, error)
}

// ResolveDevice picks the device whose name matches name exactly, falling
// back to the default device. An empty name asks for the default directly.
func ResolveDevice(devices []Device, name string) (Device, error) {
	if name != "" {
		for _, d := range devices {
			if d.Name == name {
				return d, nil
			}
		}
	}

	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}

	if name != "" {
		return Device{}, fmt.Errorf("%w: %q not found and no default device", ErrDevice, name)
	}
	return Device{}, fmt.Errorf("%w: no default device", ErrDevice)
}

// CommandRunner runs an external command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SystemDevices lists PulseAudio/PipeWire sinks through pactl and falls
// back to the ALSA card list when no sound server answers.
type SystemDevices struct {
	logger *slog.Logger
	fs     afero.Fs
	run    CommandRunner
}

// NewSystemDevices creates a device lister backed by the host.
// A nil fs reads the real filesystem, a nil run executes real commands.
func NewSystemDevices(fs afero.Fs, run CommandRunner, logger *slog.Logger) *SystemDevices {
	if logger == nil {
		logger = slog.Default()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if run == nil {
		run = execRunner
	}
	return &SystemDevices{logger: logger, fs: fs, run: run}
}

// Devices returns every output device, with at most one marked default.
func (s *SystemDevices) Devices(ctx context.Context) ([]Device, error) {
	sinks, err := s.pulseSinks(ctx)
	if err == nil && len(sinks) > 0 {
		return sinks, nil
	}
	if err != nil {
		s.logger.Debug("pactl unavailable, falling back to alsa", "error", err)
	}

	cards, err := s.alsaCards()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate output devices: %w", err)
	}
	return cards, nil
}

// Hosts returns the host backends that currently answer.
func (s *SystemDevices) Hosts(ctx context.Context) []string {
	var hosts []string
	if _, err := s.run(ctx, "pactl", "info"); err == nil {
		hosts = append(hosts, HostPulse)
	}
	if ok, _ := afero.Exists(s.fs, alsaCardsPath); ok {
		hosts = append(hosts, HostALSA)
	}
	return hosts
}

func (s *SystemDevices) pulseSinks(ctx context.Context) ([]Device, error) {
	out, err := s.run(ctx, "pactl", "list", "short", "sinks")
	if err != nil {
		return nil, err
	}
	sinks := parsePactlSinks(out)
	if len(sinks) == 0 {
		return nil, nil
	}

	defaultName := ""
	if out, err := s.run(ctx, "pactl", "get-default-sink"); err == nil {
		defaultName = strings.TrimSpace(string(out))
	}

	marked := false
	for i := range sinks {
		if sinks[i].Name == defaultName {
			sinks[i].Default = true
			marked = true
		}
	}
	// Older pactl lacks get-default-sink; the server still routes somewhere.
	if !marked {
		sinks[0].Default = true
	}
	return sinks, nil
}

func (s *SystemDevices) alsaCards() ([]Device, error) {
	data, err := afero.ReadFile(s.fs, alsaCardsPath)
	if err != nil {
		return nil, err
	}
	return parseALSACards(data), nil
}

// parsePactlSinks parses `pactl list short sinks`:
// index, name, driver, sample spec and state separated by tabs.
func parsePactlSinks(out []byte) []Device {
	var devices []Device
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		d := Device{Name: fields[1], Host: HostPulse}
		if len(fields) >= 4 {
			d.Description = fields[3]
		}
		devices = append(devices, d)
	}
	return devices
}

// parseALSACards parses /proc/asound/cards, where each card starts with
// " N [id             ]: driver - long name". Card 0 is the default.
func parseALSACards(data []byte) []Device {
	var devices []Device
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		open := strings.Index(line, "[")
		closing := strings.Index(line, "]")
		if open <= 0 || closing < open || line[0] < '0' || line[0] > '9' {
			continue
		}

		d := Device{
			Name:    strings.TrimSpace(line[open+1 : closing]),
			Host:    HostALSA,
			Default: len(devices) == 0,
		}
		if _, desc, ok := strings.Cut(line[closing+1:], " - "); ok {
			d.Description = strings.TrimSpace(desc)
		}
		devices = append(devices, d)
	}
	return devices
}
