package console

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

var results = []probe.Result{
	{Endpoint: probe.Endpoint{Host: "127.0.0.1", Port: 80}, Outcome: probe.Connected, Elapsed: 1500 * time.Microsecond},
	{Endpoint: probe.Endpoint{Host: "127.0.0.1", Port: 81}, Outcome: probe.Refused, Elapsed: time.Millisecond, Err: "connection refused"},
}

func TestWriterText(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "")
	require.NoError(t, err)
	w.Begin(models.RunInfo{ID: "run-1"})

	for _, res := range results {
		require.NoError(t, w.Write(res))
	}
	require.NoError(t, w.Summary(models.Summarize(results)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "127.0.0.1:80 "))
	assert.Contains(t, lines[0], "connected")
	assert.Contains(t, lines[0], "1.5ms")
	assert.Contains(t, lines[1], "refused")
	assert.True(t, strings.HasSuffix(lines[1], "  connection refused"))
	assert.Equal(t, "run run-1: 2 endpoint(s), connected=1, refused=1", lines[2])
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatJSON)
	require.NoError(t, err)
	w.Begin(models.RunInfo{ID: "run-2"})

	for _, res := range results {
		require.NoError(t, w.Write(res))
	}
	require.NoError(t, w.Summary(models.Summarize(results)))

	dec := json.NewDecoder(&buf)
	for i, want := range results {
		var rec models.ResultRecord
		require.NoError(t, dec.Decode(&rec))
		assert.Equal(t, models.RunID("run-2"), rec.RunID)
		assert.Equal(t, i, rec.Position)
		assert.Equal(t, want.Endpoint.Port, rec.Port)
		assert.Equal(t, want.Outcome, rec.Outcome)
		assert.Equal(t, want.Err, rec.Error)
	}
	assert.False(t, dec.More())
}

func TestNewWriterUnknownFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}
