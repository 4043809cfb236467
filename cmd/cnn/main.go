// Command cnn trains a convolution → max pooling → affine → softmax
// classifier that tells horizontal from vertical bars in small synthetic
// images.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

const (
	side    = 8
	filters = 4
	kernel  = 3
	classes = 2
)

// bars returns count images, each with one full-length bar plus noise. Class
// 0 bars run along the width, class 1 along the height.
func bars(rng *rand.Rand, count int) ([][]float64, [][]float64) {
	inputs := make([][]float64, count)
	teachers := make([][]float64, count)
	for i := range inputs {
		x := make([]float64, side*side)
		for j := range x {
			x[j] = 0.1 * rng.Float64()
		}

		class := i % classes
		line := rng.IntN(side)
		for k := 0; k < side; k++ {
			// Element (w, h) sits at w·side + h.
			if class == 0 {
				x[k*side+line] = 1
			} else {
				x[line*side+k] = 1
			}
		}

		t := make([]float64, classes)
		t[class] = 1
		inputs[i], teachers[i] = x, t
	}
	return inputs, teachers
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func main() {
	var (
		epochs     = flag.Int("epochs", 60, "training epochs")
		batch      = flag.Int("batch", 0, "examples per update, 0 for the whole set")
		alpha      = flag.Float64("alpha", 0.01, "Adam step size")
		seed       = flag.Uint64("seed", 7, "initialisation and data seed")
		checkpoint = flag.String("checkpoint", "cnn_network.bin", "best-model file")
		csvLog     = flag.String("csv", "", "optional per-epoch CSV log")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "cnn: ", log.LstdFlags)
	rng := rand.New(rand.NewPCG(*seed, *seed))

	n := net.New(net.WithSeed(*seed))
	conv := filters * (side - kernel + 1) * (side - kernel + 1)
	pooled := filters * 3 * 3
	for _, err := range []error{
		n.AddConvolutionLayer(side, side, 1, kernel, filters, 1, 0),
		n.AddRReLULayer(conv),
		n.AddMaxPoolingLayer(side-kernel+1, side-kernel+1, filters, 2, 2, 0),
		n.AddAffineLayer(pooled, classes),
		n.AddSoftMaxLayer(classes),
	} {
		if err != nil {
			logger.Fatal(err)
		}
	}
	if err := n.Summary(os.Stdout); err != nil {
		logger.Fatal(err)
	}

	train, trainT := bars(rng, 64)
	test, testT := bars(rng, 32)

	adam := opt.NewAdam(*alpha)
	ckpt := net.NewModelCheckpoint(*checkpoint)
	ckpt.ResetAdam = true
	ckpt.Out = logger
	stop := net.NewEarlyStopping(10, 1e-4)
	stop.Out = logger
	callbacks := []net.Callback{
		net.Logger{Interval: 10, Out: logger},
		ckpt,
		stop,
		net.NewSchedulerCallback(opt.NewReduceLROnPlateau(adam, 0.5, 3, 1e-4, 1e-5).SetCooldown(2)),
	}
	if *csvLog != "" {
		callbacks = append(callbacks, net.NewCSVLogger(*csvLog, false))
	}

	h, err := n.Fit(train, trainT, net.TrainConfig{
		Epochs:             *epochs,
		BatchSize:          *batch,
		Shuffle:            true,
		NormalizeGradients: true,
		Loss:               loss.NewCrossEntropy(),
		Optimizer:          adam,
		Callbacks:          callbacks,
	})
	if err != nil {
		logger.Fatal(err)
	}
	if ckpt.Err != nil {
		logger.Fatal(ckpt.Err)
	}
	logger.Printf("trained %d epochs, final loss %.6f", len(h.Loss), h.Last())

	best, err := net.Load(*checkpoint)
	if err != nil {
		logger.Fatal(err)
	}
	correct := 0
	for i, x := range test {
		if argmax(best.Predict(x)) == argmax(testT[i]) {
			correct++
		}
	}
	fmt.Printf("test accuracy of best checkpoint: %d/%d\n", correct, len(test))
}
