package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/adhan/internal/audio"
	"github.com/jmylchreest/adhan/internal/config"
	"github.com/jmylchreest/adhan/internal/notify"
	"github.com/jmylchreest/adhan/internal/prayer"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"configuration", fmt.Errorf("%w: latitude out of range", config.ErrConfiguration), exitConfiguration},
		{"schedule build", fmt.Errorf("%w: polar night", prayer.ErrScheduleBuild), exitScheduleBuild},
		{"recoverable trigger failure", fmt.Errorf("%w: empty", audio.ErrNoCue), exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRenderTimetable(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) // Friday
	s, err := prayer.NewSchedule(day, []prayer.Event{
		{Kind: prayer.KindFajr, Instant: day.Add(5 * time.Hour)},
		{Kind: prayer.KindSunrise, Instant: day.Add(6*time.Hour + 30*time.Minute)},
		{Kind: prayer.KindDhuhr, Instant: day.Add(12*time.Hour + 15*time.Minute)},
		{Kind: prayer.KindFajrTomorrow, Instant: day.AddDate(0, 0, 1).Add(5 * time.Hour)},
	}, prayer.Coordinates{Latitude: 51.5074, Longitude: -0.1278}, prayer.MethodMuslimWorldLeague.Parameters())
	require.NoError(t, err)

	var buf bytes.Buffer
	renderTimetable(&buf, s, day.Add(9*time.Hour))
	out := buf.String()

	assert.Contains(t, out, "Friday, 14 March 2025")
	assert.Contains(t, out, "51.5074, -0.1278")
	assert.Contains(t, out, "muslim_world_league")
	assert.Contains(t, out, "Fajr                   05:00  4 hours ago")
	assert.Contains(t, out, "Sunrise                06:30  2 hours ago  <- now")
	assert.Contains(t, out, "Jumua                  12:15  3 hours from now  <- next")
	assert.Contains(t, out, "Fajr (tomorrow)        05:00")
	assert.NotContains(t, out, "Dhuhr")
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("AST", 3*3600)
	now := time.Date(2025, 3, 12, 22, 0, 0, 0, loc)

	got, err := parseDate("2025-03-14", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 12, 0, 0, 0, loc), got)

	_, err = parseDate("not a date at all", now)
	assert.Error(t, err)
}

func TestGenerateWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	generateOpts.output = path
	generateOpts.force = false
	t.Cleanup(func() { generateOpts.output = "" })

	var out bytes.Buffer
	generateCmd.SetOut(&out)
	require.NoError(t, runGenerate(generateCmd, []string{"karachi"}))
	assert.Contains(t, out.String(), "karachi")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, prayer.MethodKarachi, cfg.Parameters().Method)

	err = runGenerate(generateCmd, []string{"karachi"})
	assert.Error(t, err)

	err = runGenerate(generateCmd, []string{"astrology"})
	assert.Equal(t, exitConfiguration, exitCode(err))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

type recordingSender struct {
	sent []*notify.Notification
}

func (s *recordingSender) Send(_ context.Context, n *notify.Notification) (uint32, error) {
	s.sent = append(s.sent, n)
	return uint32(len(s.sent)), nil
}

func TestWarnEmptyCues(t *testing.T) {
	sender := &recordingSender{}
	cues := audio.NewCueStore(afero.NewMemMapFs(), "/cues", nil)
	onChange := warnEmptyCues(context.Background(), notify.NewDesktop(sender, nil), cues)

	onChange(prayer.CategoryNormal, 2)
	assert.Empty(t, sender.sent)

	onChange(prayer.CategoryFajr, 0)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "No fajr cues left", sender.sent[0].Summary)
	assert.Equal(t, cues.Dir(prayer.CategoryFajr), sender.sent[0].Body)
}
