package net

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// TrainConfig configures Fit.
type TrainConfig struct {
	Epochs int
	// BatchSize is the number of examples whose gradients are accumulated
	// before each update. 0 updates once per epoch.
	BatchSize int
	// Shuffle visits the examples in a new random order every epoch.
	Shuffle bool
	// SkipBelow skips the backward pass for examples whose loss is already
	// at or below it. 0 disables skipping.
	SkipBelow float64
	// NormalizeGradients rescales each gradient buffer to unit norm before
	// every update.
	NormalizeGradients bool

	Loss      loss.Loss     // default loss.Square
	Optimizer opt.Optimizer // default plain descent at opt.DefaultLearningRate
	Callbacks []Callback
}

// Validate checks the configuration.
func (c TrainConfig) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: Epochs must be > 0, got %d", ErrInvalidConfig, c.Epochs)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: BatchSize must be >= 0, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.SkipBelow < 0 || math.IsNaN(c.SkipBelow) {
		return fmt.Errorf("%w: SkipBelow must be >= 0, got %g", ErrInvalidConfig, c.SkipBelow)
	}
	return nil
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Loss == nil {
		c.Loss = loss.Square{}
	}
	if c.Optimizer == nil {
		c.Optimizer = opt.NewSGD(opt.DefaultLearningRate)
	}
	return c
}

// History records the mean loss of every completed epoch.
type History struct {
	Loss []float64
	// Skipped counts, per epoch, the examples whose backward pass was
	// skipped by SkipBelow.
	Skipped []int
}

// Last returns the final epoch loss, or NaN when no epoch ran.
func (h History) Last() float64 {
	if len(h.Loss) == 0 {
		return math.NaN()
	}
	return h.Loss[len(h.Loss)-1]
}

// Fit trains the network on the paired inputs and teachers. Every example
// is forwarded, scored and, unless skipped, backwarded; accumulated
// gradients are applied every BatchSize examples and at the end of each
// epoch. Training stops after Epochs or when a Stopper callback asks.
func (n *Network) Fit(inputs, teachers [][]float64, cfg TrainConfig) (History, error) {
	var h History
	if err := cfg.Validate(); err != nil {
		return h, err
	}
	if err := n.checkData(inputs, teachers); err != nil {
		return h, err
	}
	cfg = cfg.withDefaults()

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}
	var rng *rand.Rand
	if cfg.Shuffle {
		if n.cfg.src != nil {
			rng = rand.New(n.cfg.src)
		} else {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}

	n.ZeroGradients()
	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, n)
		}
		if rng != nil {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		total, skipped := n.runEpoch(inputs, teachers, order, cfg)
		epochLoss := total / float64(len(order))
		h.Loss = append(h.Loss, epochLoss)
		h.Skipped = append(h.Skipped, skipped)

		stop := false
		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(epoch, epochLoss, n)
			if s, ok := cb.(Stopper); ok && s.ShouldStop() {
				stop = true
			}
		}
		if stop {
			break
		}
	}

	for _, cb := range cfg.Callbacks {
		cb.OnTrainEnd(n)
	}
	return h, nil
}

// runEpoch makes one pass in the given order and returns the summed loss
// and the number of skipped examples.
func (n *Network) runEpoch(inputs, teachers [][]float64, order []int, cfg TrainConfig) (float64, int) {
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = len(order)
	}

	var total, batchLoss float64
	skipped, pending, batch, inBatch := 0, 0, 0, 0

	flush := func() {
		if pending > 0 {
			if cfg.NormalizeGradients {
				n.NormalizeGradients()
			}
			n.Update(cfg.Optimizer)
			pending = 0
		}
		for _, cb := range cfg.Callbacks {
			cb.OnBatchEnd(batch, batchLoss/float64(inBatch), n)
		}
		batch++
		batchLoss, inBatch = 0, 0
	}

	for _, idx := range order {
		if inBatch == 0 {
			for _, cb := range cfg.Callbacks {
				cb.OnBatchBegin(batch, n)
			}
		}

		n.SetInput(inputs[idx])
		n.Forward()
		l := n.Loss(cfg.Loss, teachers[idx])
		total += l
		batchLoss += l
		inBatch++

		if cfg.SkipBelow > 0 && l <= cfg.SkipBelow {
			skipped++
		} else {
			n.Backward()
			pending++
		}

		if inBatch == batchSize {
			flush()
		}
	}
	if inBatch > 0 {
		flush()
	}
	return total, skipped
}

// checkData verifies that the example sets are paired and fit the network.
func (n *Network) checkData(inputs, teachers [][]float64) error {
	if len(n.layers) == 0 {
		return fmt.Errorf("%w: network has no layers", ErrInvalidConfig)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no training examples", ErrInvalidConfig)
	}
	if len(inputs) != len(teachers) {
		return fmt.Errorf("%w: %d inputs but %d teachers", ErrInvalidConfig, len(inputs), len(teachers))
	}
	for i := range inputs {
		if len(inputs[i]) != n.InputSize() {
			return fmt.Errorf("%w: input %d has %d values, network expects %d",
				ErrInvalidConfig, i, len(inputs[i]), n.InputSize())
		}
		if len(teachers[i]) != n.OutputSize() {
			return fmt.Errorf("%w: teacher %d has %d values, network outputs %d",
				ErrInvalidConfig, i, len(teachers[i]), n.OutputSize())
		}
	}
	return nil
}
