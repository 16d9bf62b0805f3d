package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLevel(prev)
		SetOutput(zerolog.ConsoleWriter{Out: &bytes.Buffer{}})
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogs(t, zerolog.WarnLevel)

	Debugf("probe %s", "lsmod")
	Infof("gate %s", "ubuntu")
	assert.Empty(t, buf.String())

	Warnf("sink write failed for %s", "1.1.1.1")
	assert.Contains(t, buf.String(), "sink write failed for 1.1.1.1")
}

func TestErrorWithErr(t *testing.T) {
	buf := captureLogs(t, zerolog.DebugLevel)

	ErrorWithErr(errors.New("disk full"), "report write failed")
	out := buf.String()
	assert.Contains(t, out, "report write failed")
	assert.Contains(t, out, "disk full")
}

func TestLoggerFields(t *testing.T) {
	buf := captureLogs(t, zerolog.DebugLevel)

	Logger().Debug().Str("control", "1.4.3").Int("exit_code", 1).Msg("probe finished")
	out := buf.String()
	assert.Contains(t, out, `"control":"1.4.3"`)
	assert.Contains(t, out, `"exit_code":1`)
}
