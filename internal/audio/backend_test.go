package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSilence writes a WAV file holding the given duration of silence.
func writeSilence(t *testing.T, fs afero.Fs, path string, d time.Duration) {
	t.Helper()
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}

	f, err := fs.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(d)), format))
	require.NoError(t, f.Close())
}

func TestDecodeFile_WAV(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSilence(t, fs, "/cues/normal/short.wav", 250*time.Millisecond)

	f, err := fs.Open("/cues/normal/short.wav")
	require.NoError(t, err)

	sound, err := DecodeFile("/cues/normal/short.wav", f)
	require.NoError(t, err)
	assert.Equal(t, "/cues/normal/short.wav", sound.Path)
	assert.Equal(t, 250*time.Millisecond, sound.Duration())
}

func TestDecodeFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage.wav", "this is not a riff header"},
		{"garbage.mp3", ""},
		{"notes.txt", "plain text"},
		{"cue.flac", "fLaC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.name, []byte(tt.content), 0644))
			f, err := fs.Open(tt.name)
			require.NoError(t, err)

			_, err = DecodeFile(tt.name, f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

func TestSound_DurationNil(t *testing.T) {
	var s *Sound
	assert.Zero(t, s.Duration())
	assert.Zero(t, (&Sound{Path: "x.wav"}).Duration())
}

func TestVolumeToExponent(t *testing.T) {
	assert.InDelta(t, 0, volumeToExponent(1), 1e-9)
	assert.InDelta(t, -1, volumeToExponent(0.5), 1e-9)
	assert.InDelta(t, -2, volumeToExponent(0.25), 1e-9)
	assert.Equal(t, -10.0, volumeToExponent(0))
}

func TestSpeakerBackend_SetVolumeClamps(t *testing.T) {
	b := NewSpeakerBackend(NewSystemDevices(afero.NewMemMapFs(), fakeRunner(nil), nil), nil)
	assert.Equal(t, 1.0, b.volume)

	b.SetVolume(1.5)
	assert.Equal(t, 1.0, b.volume)
	b.SetVolume(-1)
	assert.Equal(t, 0.0, b.volume)
	b.SetVolume(0.6)
	assert.Equal(t, 0.6, b.volume)
}
