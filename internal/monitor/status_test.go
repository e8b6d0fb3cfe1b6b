package monitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusWriter_PlainStreamWritesChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatusWriterTo(&buf, false)

	s.Status("Next prayer (Dhuhr) starts in  0h  2m")
	s.Status("Next prayer (Dhuhr) starts in  0h  2m")
	s.Status("Next prayer (Dhuhr) starts in  0h  1m")
	s.Event("Prayer time is now: Dhuhr")
	s.Close()

	assert.Equal(t,
		"Next prayer (Dhuhr) starts in  0h  2m\n"+
			"Next prayer (Dhuhr) starts in  0h  1m\n"+
			"Prayer time is now: Dhuhr\n",
		buf.String())
}

func TestStatusWriter_TerminalRewritesInPlace(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatusWriterTo(&buf, true)

	s.Status("Waiting for next marker in  0h 10m")
	s.Status("Waiting for next marker in  0h 10m")
	s.Status("Next prayer (Asr) starts in  0h  9m")
	s.Event("Prayer time is now: Asr")

	assert.Equal(t,
		"\rWaiting for next marker in  0h 10m"+
			"\rNext prayer (Asr) starts in  0h  9m"+
			"\rPrayer time is now: Asr            \n",
		buf.String())
}

func TestStatusWriter_CloseEndsPendingLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatusWriterTo(&buf, true)

	s.Close()
	assert.Empty(t, buf.String())

	s.Status("Next prayer (Isha) starts in  1h  0m")
	s.Close()
	assert.Equal(t, "\rNext prayer (Isha) starts in  1h  0m\n", buf.String())
}
