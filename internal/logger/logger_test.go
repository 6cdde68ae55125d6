package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_parseLevel(t *testing.T) {
	valid := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for input, want := range valid {
		t.Run(input, func(t *testing.T) {
			got, err := parseLevel(input)

			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}

	for _, input := range []string{"", "verbose", "trace"} {
		t.Run("invalid "+input, func(t *testing.T) {
			_, err := parseLevel(input)

			require.Error(t, err)
		})
	}
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, formatText, LevelInfo)
	require.NoError(t, err)

	l.With("transaction_id", "tx-1").Info("transaction approved", "amount", "500.00")

	out := buf.String()
	require.Contains(t, out, "level=INFO")
	require.Contains(t, out, `msg="transaction approved"`)
	require.Contains(t, out, "transaction_id=tx-1")
	require.Contains(t, out, "amount=500.00")
	require.Contains(t, out, "source=logger_test.go:", "source points to the caller, not the wrapper")
	require.NotContains(t, out, "/logger_test.go", "source is trimmed to base name")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, formatJSON, LevelInfo)
	require.NoError(t, err)

	l.WithGroup("approval").Warn("profile conflict, retrying", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "profile conflict, retrying", entry["msg"])
	require.Equal(t, map[string]any{"attempt": float64(2)}, entry["approval"])
}

func TestLogger_Levels(t *testing.T) {
	calls := map[string]func(Logger){
		LevelDebug: func(l Logger) { l.Debug("m") },
		LevelInfo:  func(l Logger) { l.Info("m") },
		LevelWarn:  func(l Logger) { l.Warn("m") },
		LevelError: func(l Logger) { l.Error("m") },
	}
	order := []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

	for i, configured := range order {
		for j, called := range order {
			t.Run(configured+" logger, "+called+" call", func(t *testing.T) {
				var buf bytes.Buffer
				l, err := newLogger(&buf, formatText, configured)
				require.NoError(t, err)

				calls[called](l)

				require.Equal(t, j >= i, buf.Len() > 0)
			})
		}
	}
}

func TestLogger_New(t *testing.T) {
	t.Run("known environments", func(t *testing.T) {
		for _, env := range []string{EnvDevelopment, EnvProduction} {
			l, err := New(env, LevelInfo)

			require.NoError(t, err)
			require.NotNil(t, l)
		}
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := New("staging", LevelInfo)

		require.Error(t, err)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := New(EnvProduction, "verbose")

		require.Error(t, err)
	})
}

// Loggers created by the public constructors write to stderr only
func TestLogger_Stderr(t *testing.T) {
	origOut, origErr := os.Stdout, os.Stderr
	t.Cleanup(func() { os.Stdout, os.Stderr = origOut, origErr })

	rOut, wOut, err := os.Pipe()
	require.NoError(t, err)
	rErr, wErr, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout, os.Stderr = wOut, wErr

	text, err := NewTextLogger(LevelInfo)
	require.NoError(t, err)
	text.Info("text line")
	jsonLogger, err := NewJSONLogger(LevelInfo)
	require.NoError(t, err)
	jsonLogger.Info("json line")
	NewNoOpLogger().Error("discarded")

	require.NoError(t, wOut.Close())
	require.NoError(t, wErr.Close())
	stdout, err := io.ReadAll(rOut)
	require.NoError(t, err)
	stderr, err := io.ReadAll(rErr)
	require.NoError(t, err)

	require.Empty(t, stdout)
	require.Contains(t, string(stderr), "text line")
	require.Contains(t, string(stderr), "json line")
	require.NotContains(t, string(stderr), "discarded")
}
