package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	logger := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)).With("request_id", "req-1")

	logger.Info("portal loaded", "role", "worker")
	logger.Error("stage write failed", "error", "timeout")

	assert.Equal(t, 2, bytes.Count(info.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(errs.Bytes(), []byte("\n")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(errs.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "timeout", line["error"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func bufferedPG() *PGHandler {
	return &PGHandler{buffer: make([]models.SystemLog, 0, 50)}
}

func TestPGHandler_MapsKnownAttrs(t *testing.T) {
	h := bufferedPG()
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(h).With("request_id", "req-9")
	logger.Error("onboarding write failed",
		"user_id", "3f1c",
		"role", "worker",
		"action", "submit_basics",
		"path", "/api/onboarding/basics",
		"error", "connection reset",
		"attempt", 2,
	)

	require.Len(t, h.buffer, 1)
	entry := h.buffer[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "onboarding write failed", entry.Message)
	assert.Equal(t, "req-9", entry.RequestID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "3f1c", *entry.UserID)
	assert.Equal(t, "worker", entry.Role)
	assert.Equal(t, "submit_basics", entry.Action)
	assert.Equal(t, "/api/onboarding/basics", entry.Path)
	assert.Equal(t, "connection reset", entry.Error)
	assert.JSONEq(t, `{"attempt":2}`, string(entry.Extra))
}

func TestMultiHandler_With(t *testing.T) {
	var a, b bytes.Buffer
	base := NewMultiHandler(slog.NewJSONHandler(&a, nil))
	both := base.With(slog.NewJSONHandler(&b, nil))

	slog.New(both).Info("waitlist joined")
	assert.NotZero(t, a.Len())
	assert.NotZero(t, b.Len())

	a.Reset()
	b.Reset()
	slog.New(base).Info("only base")
	assert.NotZero(t, a.Len())
	assert.Zero(t, b.Len())
}
