package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSlog(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestSlog(t)
	ctx := context.Background()

	log.Debug(ctx, "checking", "state", "checking")
	log.Info(ctx, "signed in", "user_id", "u1")
	log.Warn(ctx, "refresh failed", "attempt", 1)
	log.Error(ctx, "sign out failed", "code", 503)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=checking", "state=checking",
		"level=INFO", `msg="signed in"`, "user_id=u1",
		"level=WARN", "attempt=1",
		"level=ERROR", "code=503",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestSlog(t)

	log.With("component", "session").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "k=v")
}

func TestZapLogger_LevelsAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&buf, false)
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	log.With("component", "guard").Info(ctx, "redirect", "to", "/login")
	log.Error(ctx, "boom")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "redirect")
	assert.Contains(t, out, `"component": "guard"`)
	assert.Contains(t, out, `"to": "/login"`)
	assert.Contains(t, out, "ERROR")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("slog", true, &buf)
	require.NoError(t, err)
	l.Debug(context.Background(), "dbg")
	assert.Contains(t, buf.String(), "level=DEBUG")

	l, err = New("zap", false, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	l, err = New("", false, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("logrus", false, &buf)
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().With("a", 1).Error(context.TODO(), "dropped")
	})
}
