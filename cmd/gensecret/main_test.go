package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, run(&out, nil))

		require.Len(t, strings.TrimSpace(out.String()), 64)
	})

	t.Run("env line", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, run(&out, []string{"-n", "16", "--env"}))

		line := strings.TrimSpace(out.String())
		require.True(t, strings.HasPrefix(line, "SECRET_KEY="))
		require.Len(t, strings.TrimPrefix(line, "SECRET_KEY="), 32)
	})

	t.Run("too short", func(t *testing.T) {
		require.Error(t, run(&bytes.Buffer{}, []string{"-n", "8"}))
	})
}
