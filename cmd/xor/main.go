// Command xor trains a small network on the XOR truth table, saves it and
// checks that the reloaded copy predicts the same values.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

func main() {
	var (
		hidden = flag.Int("hidden", 8, "hidden layer width")
		epochs = flag.Int("epochs", 5000, "training epochs")
		rate   = flag.Float64("rate", 0.2, "learning rate")
		adam   = flag.Bool("adam", false, "use Adam instead of plain descent")
		seed   = flag.Uint64("seed", 42, "initialisation seed")
		out    = flag.String("out", "xor_network.bin", "model file")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "xor: ", log.LstdFlags)

	n := net.New(net.WithSeed(*seed))
	for _, err := range []error{
		n.AddAffineLayer(2, *hidden),
		n.AddReLULayer(*hidden),
		n.AddAffineLayer(*hidden, 1),
		n.AddSigmoidLayer(1),
	} {
		if err != nil {
			logger.Fatal(err)
		}
	}
	if err := n.Summary(os.Stdout); err != nil {
		logger.Fatal(err)
	}

	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	teachers := [][]float64{{0}, {1}, {1}, {0}}

	var o opt.Optimizer = opt.NewSGD(*rate)
	if *adam {
		o = opt.NewAdam(*rate)
	}

	h, err := n.Fit(inputs, teachers, net.TrainConfig{
		Epochs:    *epochs,
		BatchSize: 1,
		SkipBelow: 1e-4,
		Optimizer: o,
		Callbacks: []net.Callback{net.Logger{Interval: *epochs / 10, Out: logger}},
	})
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("final loss %.6f", h.Last())

	for i, x := range inputs {
		fmt.Printf("%v -> %.4f (want %v)\n", x, n.Predict(x)[0], teachers[i][0])
	}

	if err := n.Save(*out); err != nil {
		logger.Fatal(err)
	}
	loaded, err := net.Load(*out)
	if err != nil {
		logger.Fatal(err)
	}

	for _, x := range inputs {
		want := n.Predict(x)[0]
		if got := loaded.Predict(x)[0]; got != want {
			logger.Fatalf("reloaded network predicts %v for %v, want %v", got, x, want)
		}
	}
	logger.Printf("saved to %s and verified reload", *out)
}
