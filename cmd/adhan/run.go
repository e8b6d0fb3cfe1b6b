package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/audio"
	"github.com/jmylchreest/adhan/internal/config"
	"github.com/jmylchreest/adhan/internal/monitor"
	"github.com/jmylchreest/adhan/internal/notify"
	"github.com/jmylchreest/adhan/internal/prayer"
)

var runCmd = &cobra.Command{
	Use:   "run [device]",
	Short: "Monitor prayer times and play the cue when each begins",
	Long: `Monitor today's prayer times and play a cue when each prayer begins.

The optional device argument names the output device (see 'adhan list devices');
it overrides audio.device from the configuration. Unknown devices fall back to
the system default.

A status line shows the next prayer and the time remaining. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// player bundles the playback side shared by run and test.
type player struct {
	backend *audio.SpeakerBackend
	cues    *audio.CueStore
	trigger *audio.Trigger
}

func newPlayer(cfg *config.Config) *player {
	backend := audio.NewSpeakerBackend(audio.NewSystemDevices(nil, nil, logger), logger)
	backend.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	cues := audio.NewCueStore(afero.NewOsFs(), cfg.CueDirectory(), nil)
	trigger := audio.NewTrigger(backend, cues, cfg.Audio.PlaybackTimeout.Duration(), logger)

	return &player{backend: backend, cues: cues, trigger: trigger}
}

// deviceArg returns the device named on the command line, else the configured one.
func deviceArg(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return config.NormalizeDevice(args[0])
	}
	return cfg.DeviceName()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := newPlayer(cfg)
	defer p.backend.Close()

	var desktop *notify.Desktop
	if cfg.Notify.Desktop {
		sender, err := notify.NewBusSender()
		if err != nil {
			logger.Warn("desktop notifications disabled", "error", err)
		} else {
			desktop = notify.NewDesktop(sender, logger)
		}
	}

	watcher, err := audio.NewCueWatcher(p.cues, logger)
	if err != nil {
		logger.Warn("cue directories will not be watched", "error", err)
	} else {
		if desktop != nil {
			watcher.OnChange = warnEmptyCues(ctx, desktop, p.cues)
		}
		if err := watcher.Start(); err != nil {
			logger.Warn("failed to start cue watcher", "error", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	loop := monitor.New(monitor.Config{
		Coordinates: cfg.Coordinates(),
		Parameters:  cfg.Parameters(),
		Device:      deviceArg(cfg, args),
		Tick:        cfg.Monitor.Tick.Duration(),
	}, prayer.NewCalculator(cfg.Monitor.RestrictedMarkers), p.trigger, logger)
	loop.SetClock(monitor.SystemClock(cfg.TimeLocation()))

	status := monitor.NewStatusWriter(os.Stdout)
	defer status.Close()
	loop.SetStatus(status)

	if desktop != nil {
		loop.SetAnnouncer(desktop)
	}

	return loop.Run(ctx)
}

// warnEmptyCues returns a watcher callback that raises a desktop warning
// when a category runs out of cues.
func warnEmptyCues(ctx context.Context, desktop *notify.Desktop, cues *audio.CueStore) func(prayer.Category, int) {
	return func(category prayer.Category, count int) {
		if count > 0 {
			return
		}
		if _, err := desktop.Notify(ctx, "cues-"+string(category),
			fmt.Sprintf("No %s cues left", category),
			cues.Dir(category),
			notify.LevelWarning); err != nil {
			logger.Debug("empty cue warning not sent", "category", category, "error", err)
		}
	}
}
