package net

import (
	"bytes"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// recorder counts callback events.
type recorder struct {
	BaseCallback
	begin, end   int
	epochs       []int
	batchBegins  int
	batchEnds    int
	epochLosses  []float64
	stopAfterOne bool
}

func (r *recorder) OnTrainBegin(n *Network) { r.begin++ }
func (r *recorder) OnTrainEnd(n *Network)   { r.end++ }
func (r *recorder) OnEpochBegin(epoch int, n *Network) {
	r.epochs = append(r.epochs, epoch)
}
func (r *recorder) OnEpochEnd(epoch int, loss float64, n *Network) {
	r.epochLosses = append(r.epochLosses, loss)
}
func (r *recorder) OnBatchBegin(batch int, n *Network)             { r.batchBegins++ }
func (r *recorder) OnBatchEnd(batch int, loss float64, n *Network) { r.batchEnds++ }
func (r *recorder) ShouldStop() bool                               { return r.stopAfterOne }

func regressionData() ([][]float64, [][]float64) {
	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {0.5, 0.5}}
	teachers := [][]float64{{0.1}, {0.4}, {0.6}, {0.9}, {0.5}}
	return inputs, teachers
}

// TestTrainConfigValidate tests rejected configurations.
func TestTrainConfigValidate(t *testing.T) {
	assert.NoError(t, TrainConfig{Epochs: 1}.Validate())

	bad := []TrainConfig{
		{Epochs: 0},
		{Epochs: 1, BatchSize: -1},
		{Epochs: 1, SkipBelow: -0.5},
	}
	for _, cfg := range bad {
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "%+v", cfg)
	}
}

// TestFitRejectsBadData tests the data checks.
func TestFitRejectsBadData(t *testing.T) {
	cfg := TrainConfig{Epochs: 1}

	_, err := New().Fit([][]float64{{1}}, [][]float64{{1}}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	n := newMLP(t, 1, 2, 3, 1)
	_, err = n.Fit(nil, nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = n.Fit([][]float64{{1, 2}}, [][]float64{{1}, {0}}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = n.Fit([][]float64{{1, 2, 3}}, [][]float64{{1}}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = n.Fit([][]float64{{1, 2}}, [][]float64{{1, 0}}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestFitReducesLoss tests that training lowers the epoch loss.
func TestFitReducesLoss(t *testing.T) {
	inputs, teachers := regressionData()
	n := newMLP(t, 2, 2, 6, 1)

	h, err := n.Fit(inputs, teachers, TrainConfig{
		Epochs:    200,
		BatchSize: 1,
		Shuffle:   true,
		Optimizer: opt.NewAdam(0.005),
	})
	require.NoError(t, err)
	require.Len(t, h.Loss, 200)
	assert.Less(t, h.Last(), h.Loss[0])

	mean, err := n.Evaluate(inputs, teachers, nil)
	require.NoError(t, err)
	assert.InDelta(t, h.Last(), mean, 0.05)
}

// TestFitBatchEvents tests batch boundaries and event order.
func TestFitBatchEvents(t *testing.T) {
	inputs, teachers := regressionData()
	n := newMLP(t, 3, 2, 3, 1)
	rec := &recorder{}

	_, err := n.Fit(inputs, teachers, TrainConfig{
		Epochs:    2,
		BatchSize: 2,
		Callbacks: []Callback{rec},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.begin)
	assert.Equal(t, 1, rec.end)
	assert.Equal(t, []int{0, 1}, rec.epochs)
	assert.Equal(t, 6, rec.batchBegins, "three batches of 2, 2, 1 per epoch")
	assert.Equal(t, 6, rec.batchEnds)
	assert.Len(t, rec.epochLosses, 2)
}

// TestFitWholeEpochBatch tests that BatchSize 0 updates once per epoch.
func TestFitWholeEpochBatch(t *testing.T) {
	inputs, teachers := regressionData()
	rec := &recorder{}
	_, err := newMLP(t, 4, 2, 3, 1).Fit(inputs, teachers, TrainConfig{
		Epochs:    3,
		Callbacks: []Callback{rec},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rec.batchEnds)
}

// TestFitSkipBelow tests that fitted examples are not backwarded.
func TestFitSkipBelow(t *testing.T) {
	inputs, teachers := regressionData()
	n := newMLP(t, 5, 2, 3, 1)
	before, err := n.MarshalBinary()
	require.NoError(t, err)

	h, err := n.Fit(inputs, teachers, TrainConfig{Epochs: 2, SkipBelow: 1e9})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5}, h.Skipped)

	after, err := n.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, before, after, "no update when everything is skipped")
}

// TestFitStopper tests that a Stopper ends training.
func TestFitStopper(t *testing.T) {
	inputs, teachers := regressionData()
	rec := &recorder{stopAfterOne: true}
	h, err := newMLP(t, 6, 2, 3, 1).Fit(inputs, teachers, TrainConfig{
		Epochs:    10,
		Callbacks: []Callback{rec},
	})
	require.NoError(t, err)
	assert.Len(t, h.Loss, 1)
	assert.Equal(t, 1, rec.end)
}

// TestEarlyStopping tests patience counting.
func TestEarlyStopping(t *testing.T) {
	var buf bytes.Buffer
	es := NewEarlyStopping(2, 0.1)
	es.Out = log.New(&buf, "", 0)

	es.OnEpochEnd(0, 1.0, nil)
	es.OnEpochEnd(1, 0.95, nil)
	assert.False(t, es.ShouldStop())
	es.OnEpochEnd(2, 0.5, nil)
	es.OnEpochEnd(3, 0.45, nil)
	assert.False(t, es.ShouldStop())
	es.OnEpochEnd(4, 0.44, nil)
	assert.True(t, es.ShouldStop())
	assert.Contains(t, buf.String(), "early stopping at epoch 4")
}

// TestModelCheckpoint tests saving on improvement.
func TestModelCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.bin")
	n := newMLP(t, 7, 2, 3, 1)
	ckpt := NewModelCheckpoint(path)
	ckpt.ResetAdam = true

	ckpt.OnEpochEnd(0, 0.5, n)
	require.NoError(t, ckpt.Err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	n.Layers()[0].Params()[0].Value[0] += 1
	ckpt.OnEpochEnd(1, 0.7, n)
	unchanged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, unchanged, "worse loss does not overwrite")

	ckpt.OnEpochEnd(2, 0.3, n)
	improved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, improved)

	bad := NewModelCheckpoint(filepath.Join(t.TempDir(), "missing", "x.bin"))
	bad.OnEpochEnd(0, 1, n)
	assert.Error(t, bad.Err)
}

// TestLoggerInterval tests the epoch filter.
func TestLoggerInterval(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Interval: 2, Out: log.New(&buf, "", 0)}
	for epoch := 0; epoch < 5; epoch++ {
		l.OnEpochEnd(epoch, 0.25, nil)
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "epoch "))
	assert.Contains(t, buf.String(), "epoch 4: loss = 0.250000")
}

// TestSchedulerCallback tests that the wrapped scheduler steps per epoch.
func TestSchedulerCallback(t *testing.T) {
	inputs, teachers := regressionData()
	sgd := opt.NewSGD(0.4)
	cb := NewSchedulerCallback(opt.NewStepLR(sgd, 1, 0.5))

	_, err := newMLP(t, 8, 2, 3, 1).Fit(inputs, teachers, TrainConfig{
		Epochs:    2,
		Optimizer: sgd,
		Callbacks: []Callback{cb},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, sgd.Rate(), 1e-15)
}

// TestCSVLogger tests the written rows.
func TestCSVLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	logger := NewCSVLogger(path, false)
	n := New()

	logger.OnTrainBegin(n)
	logger.OnEpochEnd(0, 0.5, n)
	logger.OnEpochEnd(1, 0.4, n)
	logger.OnTrainEnd(n)
	require.NoError(t, logger.Err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"epoch", "loss", "time_seconds"}, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "0.500000", records[1][1])
}

// TestCSVLoggerBadPath tests that an unopenable file is reported.
func TestCSVLoggerBadPath(t *testing.T) {
	logger := NewCSVLogger(filepath.Join(t.TempDir(), "no", "dir.csv"), true)
	logger.OnTrainBegin(nil)
	logger.OnEpochEnd(0, 1, nil)
	logger.OnTrainEnd(nil)
	assert.Error(t, logger.Err)
}
