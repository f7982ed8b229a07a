package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	s := bufio.NewScanner(buf)
	var out []map[string]any
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	require.NoError(t, s.Err())
	return out
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	require.NoError(t, SetLevel("info"))

	Logger().Debug().Msg("debug message should be filtered")
	Logger().Info().Int("k", 1).Msg("info message")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "info message", records[0]["message"])

	buf.Reset()
	require.NoError(t, SetLevel("debug"))
	Logger().Debug().Int("a", 2).Msg("visible debug")
	records = decodeLines(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "debug", records[0]["level"])
}

func TestFieldExtraction(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	require.NoError(t, SetLevel("debug"))

	l := WithAlias(WithSession(Logger(), "sess-1", "encode"), "com.example.Foo")
	l.Info().Int("extra", 42).Msg("hello world")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	rec := records[0]
	require.Equal(t, "sess-1", rec["session_id"])
	require.Equal(t, "encode", rec["direction"])
	require.Equal(t, "com.example.Foo", rec["class_alias"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "debug",
		"info":  "info",
		"warn":  "warn",
		"error": "error",
	}
	for in, expect := range cases {
		require.NoError(t, SetLevel(in))
		require.Equal(t, expect, Level())
	}
	require.Error(t, SetLevel("bogus"))
}
