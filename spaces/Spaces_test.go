package spaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeDictPreservesOrder(t *testing.T) {
	joints := NewUniformBox(6, -1, 1)
	pose := NewUniformBox(3, -1, 1)
	distance := NewUniformBox(2, -1, 1)

	d, err := ComposeDict(
		[]Named{{Key: "joints", Space: joints}, {Key: "pose", Space: pose}},
		[]Named{{Key: "distance", Space: distance}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"joints", "pose", "distance"}, d.Keys())
	assert.Equal(t, 3, d.Len())

	got, ok := d.Get("pose")
	require.True(t, ok)
	assert.Equal(t, 3, got.Len())
}

func TestComposeDictRejectsDuplicateKeys(t *testing.T) {
	b := NewUniformBox(1, -1, 1)

	_, err := ComposeDict(
		[]Named{{Key: "joints", Space: b}},
		[]Named{{Key: "joints", Space: b}},
	)
	require.Error(t, err)
	assert.ErrorAs(t, err, &ErrDuplicateKey{})
	assert.Contains(t, err.Error(), "joints")
}

func TestNewBoxLengthMismatch(t *testing.T) {
	_, err := NewBox([]float64{0, 0}, []float64{1})
	assert.Error(t, err)
}

func TestBoxContains(t *testing.T) {
	b := NewUniformBox(2, -1, 1)

	assert.True(t, b.Contains([]float64{0.5, -0.5}))
	assert.True(t, b.Contains([]float64{-1, 1}))
	assert.False(t, b.Contains([]float64{1.5, 0}))
	assert.False(t, b.Contains([]float64{0}))
	assert.False(t, b.Contains([]float64{0, 0, 0}))
}
