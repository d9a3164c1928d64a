package nanitws

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf).WithField("net", "ws_connection").WithField("host", "h:1")

	l.Infof("opened %d", 1)
	l.Debugln("<= [PING]")

	out := buf.String()
	assert.Contains(t, out, "INFO [host=h:1, net=ws_connection]: opened 1\n")
	assert.Contains(t, out, "DEBUG [host=h:1, net=ws_connection]: <= [PING]\n")
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	l := NewSlogLogger(base).WithField("component", "manager")

	l.Debugf("hidden %s", "x")
	l.Warnf("dropping message: %s", "bad json")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="dropping message: bad json"`)
	assert.Contains(t, out, "component=manager")
}
