package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfIncludesErrorField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, slog.LevelDebug)

	log.Errorf(errors.New("boom"), "failed to save cart %s", "abc")

	require.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"msg":"failed to save cart abc"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, slog.LevelInfo)

	log.Debugf("hidden")
	assert.Empty(t, buf.String())

	log.Infof("visible %d", 1)
	assert.Contains(t, buf.String(), "visible 1")
}

func TestWithKeepsFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, slog.LevelInfo).With("session_id", "s-1")

	log.Warnf("warn")
	assert.Contains(t, buf.String(), `"session_id":"s-1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
