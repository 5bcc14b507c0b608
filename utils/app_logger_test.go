package utils

import (
	"bytes"
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	waLog "go.mau.fi/whatsmeow/util/log"
)

type recordingWALogger struct {
	module string
	lines  *[]string
}

func (r recordingWALogger) add(level, format string, args ...interface{}) {
	*r.lines = append(*r.lines, fmt.Sprintf("%s %s %s", r.module, level, fmt.Sprintf(format, args...)))
}

func (r recordingWALogger) Warnf(format string, args ...interface{})  { r.add("WARN", format, args...) }
func (r recordingWALogger) Errorf(format string, args ...interface{}) { r.add("ERROR", format, args...) }
func (r recordingWALogger) Infof(format string, args ...interface{})  { r.add("INFO", format, args...) }
func (r recordingWALogger) Debugf(format string, args ...interface{}) { r.add("DEBUG", format, args...) }
func (r recordingWALogger) Sub(module string) waLog.Logger {
	return recordingWALogger{module: r.module + "/" + module, lines: r.lines}
}

func TestFilteredLoggerDropsNoisyErrors(t *testing.T) {
	var lines []string
	fl := &FilteredLogger{Logger: recordingWALogger{module: "Client", lines: &lines}}

	fl.Errorf("Failed to decrypt message from %s", "628111111111")
	fl.Errorf("Mismatching LTHash for %s", "regular")
	fl.Errorf("websocket closed: %v", "EOF")
	fl.Sub("Send").Warnf("retry receipt for %s", "abc")

	assert.Equal(t, []string{
		"Client ERROR websocket closed: EOF",
		"Client/Send WARN retry receipt for abc",
	}, lines)
}

func TestAppLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &AppLogger{prefix: "[TEST]", out: log.New(&buf, "", 0)}

	l.Debug("tersembunyi")
	l.Info("halo %d", 1)
	assert.NotContains(t, buf.String(), "tersembunyi")
	assert.Contains(t, buf.String(), "[TEST] ℹ️  halo 1")

	l.debug = true
	l.Debug("terlihat")
	assert.Contains(t, buf.String(), "terlihat")
}

func TestInitLoggerFromLevel(t *testing.T) {
	InitLoggerFromLevel(" DEBUG ")
	assert.True(t, GetLogger().IsDebug())

	InitLoggerFromLevel("info")
	assert.False(t, GetLogger().IsDebug())
}
