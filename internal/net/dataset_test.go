package net

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadCSV tests column selection and teacher ordering.
func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "data.csv", "f1,f2,l1,f3,l2\n1,2,0,3,1\n4,5,1,6,0\n")

	d, err := LoadCSV(path, []int{4, 2}, true)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, d.Inputs)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, d.Teachers)
}

// TestLoadCSVErrors tests malformed files.
func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(writeFile(t, "empty.csv", "a,b\n"), []int{1}, true)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = LoadCSV(writeFile(t, "nan.csv", "1,x\n"), []int{1}, false)
	assert.ErrorContains(t, err, "row 0, col 1")

	_, err = LoadCSV(writeFile(t, "col.csv", "1,2\n"), []int{5}, false)
	assert.Error(t, err)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "none.csv"), nil, false)
	assert.Error(t, err)
}

// TestDatasetNormalize tests min-max scaling.
func TestDatasetNormalize(t *testing.T) {
	d := &Dataset{Inputs: [][]float64{{10, 0, 7}, {20, 5, 7}, {30, 10, 7}}}
	d.Normalize()

	assert.Equal(t, [][]float64{{0, 0, 0}, {0.5, 0.5, 0}, {1, 1, 0}}, d.Inputs)
}

// TestDatasetSplit tests the split point and the degenerate ratios.
func TestDatasetSplit(t *testing.T) {
	d := &Dataset{
		Inputs:   [][]float64{{1}, {2}, {3}, {4}},
		Teachers: [][]float64{{1}, {0}, {1}, {0}},
	}

	train, test := d.Split(0.75)
	assert.Equal(t, 3, train.Len())
	assert.Equal(t, 1, test.Len())
	assert.Equal(t, [][]float64{{4}}, test.Inputs)

	all, none := d.Split(1)
	assert.Equal(t, 4, all.Len())
	assert.Equal(t, 0, none.Len())
}

// TestSummary tests the layer table.
func TestSummary(t *testing.T) {
	n := newMLP(t, 1, 2, 3, 1)
	var sb strings.Builder
	require.NoError(t, n.Summary(&sb))

	out := sb.String()
	assert.Contains(t, out, "Affine_0")
	assert.Contains(t, out, "Sigmoid_3")
	// 2·3+3 + 3·1+1
	assert.Contains(t, out, "Total params: 13")
}
