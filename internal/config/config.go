// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// ErrConfiguration is wrapped by every error that makes the configuration
// unusable.
var ErrConfiguration = errors.New("configuration error")

// Default configuration values.
const (
	DefaultMethod          = prayer.MethodMuslimWorldLeague
	DefaultDevice          = "default"
	DefaultVolume          = 100
	DefaultTick            = time.Second
	DefaultPlaybackTimeout = 15 * time.Minute
)

// Config is the adhan configuration.
// Loaded from ~/.config/adhan/config.toml (or a .yaml/.yml file).
type Config struct {
	Location    LocationConfig    `toml:"location" yaml:"location"`
	Calculation CalculationConfig `toml:"calculation" yaml:"calculation"`
	Audio       AudioConfig       `toml:"audio" yaml:"audio"`
	Monitor     MonitorConfig     `toml:"monitor" yaml:"monitor"`
	Notify      NotifyConfig      `toml:"notify" yaml:"notify"`
}

// LocationConfig holds the observer position.
type LocationConfig struct {
	Latitude  float64 `toml:"latitude" yaml:"latitude"`
	Longitude float64 `toml:"longitude" yaml:"longitude"`
	Timezone  string  `toml:"timezone" yaml:"timezone"` // IANA name, empty = local
}

// CalculationConfig holds the juristic parameters. Zero angles and empty
// names fall back to the method's defaults.
type CalculationConfig struct {
	Method           string            `toml:"method" yaml:"method"`
	FajrAngle        float64           `toml:"fajr_angle" yaml:"fajr_angle"`
	IshaAngle        float64           `toml:"isha_angle" yaml:"isha_angle"`
	IshaInterval     int               `toml:"isha_interval" yaml:"isha_interval"` // minutes after maghrib
	MaghribAngle     float64           `toml:"maghrib_angle" yaml:"maghrib_angle"`
	Madhab           string            `toml:"madhab" yaml:"madhab"`                         // shafi, hanafi
	HighLatitudeRule string            `toml:"high_latitude_rule" yaml:"high_latitude_rule"` // middle_of_the_night, seventh_of_the_night, twilight_angle
	Adjustments      AdjustmentsConfig `toml:"adjustments" yaml:"adjustments"`
}

// AdjustmentsConfig holds per-prayer offsets in minutes.
type AdjustmentsConfig struct {
	Fajr    int `toml:"fajr" yaml:"fajr"`
	Sunrise int `toml:"sunrise" yaml:"sunrise"`
	Dhuhr   int `toml:"dhuhr" yaml:"dhuhr"`
	Asr     int `toml:"asr" yaml:"asr"`
	Maghrib int `toml:"maghrib" yaml:"maghrib"`
	Isha    int `toml:"isha" yaml:"isha"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Device          string   `toml:"device" yaml:"device"`   // Output device name, "default" = system default
	CueDir          string   `toml:"cue_dir" yaml:"cue_dir"` // Holds fajr/ and normal/ subdirectories
	Volume          int      `toml:"volume" yaml:"volume"`   // 0-100
	PlaybackTimeout Duration `toml:"playback_timeout" yaml:"playback_timeout"`
}

// MonitorConfig contains monitor loop settings.
type MonitorConfig struct {
	Tick              Duration `toml:"tick" yaml:"tick"`
	RestrictedMarkers bool     `toml:"restricted_markers" yaml:"restricted_markers"`
}

// NotifyConfig contains desktop notification settings.
type NotifyConfig struct {
	Desktop bool `toml:"desktop" yaml:"desktop"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Calculation: CalculationConfig{
			Method: string(DefaultMethod),
		},
		Audio: AudioConfig{
			Device:          DefaultDevice,
			Volume:          DefaultVolume,
			PlaybackTimeout: Duration(DefaultPlaybackTimeout),
		},
		Monitor: MonitorConfig{
			Tick:              Duration(DefaultTick),
			RestrictedMarkers: true,
		},
	}
}

// Generate returns a configuration with zero coordinates and every
// parameter of method written out explicitly.
func Generate(method prayer.Method) *Config {
	p := method.Parameters()
	cfg := DefaultConfig()
	cfg.Calculation = CalculationConfig{
		Method:           string(method),
		FajrAngle:        p.FajrAngle,
		IshaAngle:        p.IshaAngle,
		IshaInterval:     p.IshaInterval,
		MaghribAngle:     p.MaghribAngle,
		Madhab:           string(p.Madhab),
		HighLatitudeRule: string(p.HighLatitudeRule),
	}
	return cfg
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path. Unlike the defaults of
// other sections, coordinates cannot be guessed, so a missing file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no config file at %s (create one with 'adhan generate <method>'): %w",
				ErrConfiguration, path, err)
		}
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path, creating parent
// directories as needed. The format follows the file extension.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
	}

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return invalid("latitude must be between -90 and 90, got %f", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return invalid("longitude must be between -180 and 180, got %f", c.Location.Longitude)
	}
	if c.Location.Timezone != "" {
		if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
			return invalid("unknown timezone %q", c.Location.Timezone)
		}
	}

	calc := c.Calculation
	if _, err := prayer.ParseMethod(calc.Method); err != nil {
		return invalid("%v, must be one of: %v", err, prayer.Methods())
	}
	switch prayer.Madhab(calc.Madhab) {
	case "", prayer.MadhabShafi, prayer.MadhabHanafi:
	default:
		return invalid("invalid madhab %q, must be shafi or hanafi", calc.Madhab)
	}
	switch prayer.HighLatitudeRule(calc.HighLatitudeRule) {
	case "", prayer.HighLatitudeMiddleOfTheNight, prayer.HighLatitudeSeventhOfTheNight, prayer.HighLatitudeTwilightAngle:
	default:
		return invalid("invalid high_latitude_rule %q", calc.HighLatitudeRule)
	}
	if calc.FajrAngle < 0 || calc.IshaAngle < 0 || calc.MaghribAngle < 0 {
		return invalid("twilight angles must not be negative")
	}
	if calc.IshaInterval < 0 {
		return invalid("isha_interval must not be negative, got %d", calc.IshaInterval)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return invalid("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}
	if c.Audio.PlaybackTimeout < 0 {
		return invalid("playback_timeout must not be negative")
	}
	if c.Monitor.Tick <= 0 {
		return invalid("tick must be positive, got %s", c.Monitor.Tick.Duration())
	}

	return nil
}

// TimeLocation returns the configured timezone, or the local zone when unset.
func (c *Config) TimeLocation() *time.Location {
	if c.Location.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Coordinates returns the configured position.
func (c *Config) Coordinates() prayer.Coordinates {
	return prayer.Coordinates{
		Latitude:  c.Location.Latitude,
		Longitude: c.Location.Longitude,
	}
}

// Parameters resolves the calculation parameters: the method's defaults
// overlaid with any explicitly configured values.
func (c *Config) Parameters() prayer.Parameters {
	method, err := prayer.ParseMethod(c.Calculation.Method)
	if err != nil {
		method = DefaultMethod
	}
	p := method.Parameters()

	calc := c.Calculation
	if calc.FajrAngle > 0 {
		p.FajrAngle = calc.FajrAngle
	}
	if calc.IshaAngle > 0 {
		p.IshaAngle = calc.IshaAngle
	}
	if calc.IshaInterval > 0 {
		p.IshaInterval = calc.IshaInterval
	}
	if calc.MaghribAngle > 0 {
		p.MaghribAngle = calc.MaghribAngle
	}
	if calc.Madhab != "" {
		p.Madhab = prayer.Madhab(calc.Madhab)
	}
	if calc.HighLatitudeRule != "" {
		p.HighLatitudeRule = prayer.HighLatitudeRule(calc.HighLatitudeRule)
	}
	p.Adjustments = prayer.Adjustments{
		Fajr:    calc.Adjustments.Fajr,
		Sunrise: calc.Adjustments.Sunrise,
		Dhuhr:   calc.Adjustments.Dhuhr,
		Asr:     calc.Adjustments.Asr,
		Maghrib: calc.Adjustments.Maghrib,
		Isha:    calc.Adjustments.Isha,
	}
	return p
}

// DeviceName returns the configured output device, empty meaning the
// system default.
func (c *Config) DeviceName() string {
	return NormalizeDevice(c.Audio.Device)
}

// NormalizeDevice maps the "default" sentinel to the empty device name.
// Device names are matched case-exact, so "Default" is a real device.
func NormalizeDevice(name string) string {
	if name == DefaultDevice {
		return ""
	}
	return name
}

// CueDirectory returns the directory holding the cue categories.
// Expands ~ to home directory.
func (c *Config) CueDirectory() string {
	if c.Audio.CueDir == "" {
		return AudioPath()
	}
	return expandPath(c.Audio.CueDir)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
