package seqnet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFacadeTrainSaveLoad tests the public surface end to end.
func TestFacadeTrainSaveLoad(t *testing.T) {
	n := New(WithSeed(3))
	require.NoError(t, n.AddAffineLayer(2, 4))
	require.NoError(t, n.AddRReLULayer(4))
	require.NoError(t, n.AddAffineLayer(4, 2))
	require.NoError(t, n.AddSoftMaxLayer(2))

	inputs := [][]float64{{0, 1}, {1, 0}, {1, 1}, {0, 0}}
	teachers := [][]float64{{1, 0}, {1, 0}, {0, 1}, {0, 1}}
	h, err := n.Fit(inputs, teachers, TrainConfig{
		Epochs:    50,
		BatchSize: 2,
		Loss:      CrossEntropy,
		Optimizer: Adam(0.01),
	})
	require.NoError(t, err)
	assert.Len(t, h.Loss, 50)

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, n.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	want := append([]float64(nil), n.Predict(inputs[0])...)
	assert.Equal(t, want, loaded.Predict(inputs[0]))
	assert.Equal(t, KindRReLU, loaded.Layers()[1].Kind())
}

// TestFacadeErrors tests the re-exported sentinels.
func TestFacadeErrors(t *testing.T) {
	n := New()
	require.NoError(t, n.AddAffineLayer(2, 3))
	assert.ErrorIs(t, n.AddSigmoidLayer(2), ErrIncompatibleLayer)

	err := n.UnmarshalBinary([]byte{1, 0, 0, 0x70, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.True(t, IsDecodeError(err))
}
