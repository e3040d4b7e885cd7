package envlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStringFormatting(t *testing.T) {
	rec := Record{
		{Key: "is_success", Value: true},
		{Key: "step", Value: 42},
		{Key: "success_rate", Value: 0.66667},
		{Key: "pose", Value: []float64{0.12345, -1.0, 2.0}},
	}

	assert.Equal(t,
		"is_success: 1, step: 42, success_rate: 0.667, pose: 0.123 -1 2,",
		rec.String())
}

func TestRecordTimeKeys(t *testing.T) {
	small := Record{{Key: "cpu_time", Value: 0.0000123}}
	assert.Equal(t, "cpu_time: 1.23e-05,", small.String())

	large := Record{{Key: "sim_time", Value: 1.23456}}
	assert.Equal(t, "sim_time: 1.235,", large.String())

	// Only keys containing "time" get the scientific treatment
	plain := Record{{Key: "distance", Value: 0.0000123}}
	assert.Equal(t, "distance: 0,", plain.String())
}

func TestRecordBooleansRenderAsBits(t *testing.T) {
	rec := Record{
		{Key: "collision", Value: false},
		{Key: "timeout", Value: true},
	}
	assert.Equal(t, "collision: 0, timeout: 1,", rec.String())
}

func TestRecordGet(t *testing.T) {
	rec := Record{{Key: "step", Value: 7}}

	v, ok := rec.Get("step")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestLoggerFileRewrittenPerEpisode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.txt")
	l, err := New(File, path)
	require.NoError(t, err)

	first := []Record{
		{{Key: "step", Value: 1}},
		{{Key: "step", Value: 2}},
	}
	require.NoError(t, l.EpisodeEnd(first))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "step: 1,\nstep: 2,\n", string(data))

	// The next episode overwrites the file
	second := []Record{{{Key: "step", Value: 1}}}
	require.NoError(t, l.EpisodeEnd(second))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestLoggerRejectsUnknownMode(t *testing.T) {
	_, err := New(7, "")
	assert.Error(t, err)
}
