package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsAreAttached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: "file", FilePath: path, MaxSize: 1}))
	t.Cleanup(func() {
		_ = Close()
		defaultLogger = nil
		fileWriter = nil
	})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-1")
	ctx = ContextWithMutationID(ctx, "mut-1")
	InfoContext(ctx, "task created", "task_id", "t-1")
	DebugContext(context.Background(), "plain")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "task created", first["msg"])
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "user-1", first["user_id"])
	assert.Equal(t, "mut-1", first["mutation_id"])
	assert.Equal(t, "t-1", first["task_id"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotContains(t, second, "request_id")
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(ContextWithRequestID(context.Background(), "abc")))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
