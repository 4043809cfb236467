package net

import (
	"fmt"
	"io"

	"github.com/FlavioCFOliveira/seqnet/internal/loss"
)

// Summary writes a table of the layers with their output widths and
// learnable value counts.
func (n *Network) Summary(w io.Writer) error {
	const rule = "_________________________________________________________________"
	const double = "================================================================="

	if _, err := fmt.Fprintf(w, "Network\n%s\n%-25s %-20s %-10s\n%s\n",
		rule, "Layer (kind)", "Output Shape", "Param #", double); err != nil {
		return err
	}

	totalParams := 0
	for i, l := range n.layers {
		params := 0
		for _, p := range l.Params() {
			params += p.Len()
		}
		totalParams += params

		name := fmt.Sprintf("%s_%d", l.Kind(), i)
		if _, err := fmt.Fprintf(w, "%-25s %-20s %-10d\n", name, fmt.Sprintf("(%d)", l.OutputSize()), params); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s\nTotal params: %d\n%s\n", double, totalParams, rule)
	return err
}

// Evaluate returns the mean loss of l over the paired examples without
// touching any gradient.
func (n *Network) Evaluate(inputs, teachers [][]float64, l loss.Loss) (float64, error) {
	if err := n.checkData(inputs, teachers); err != nil {
		return 0, err
	}
	if l == nil {
		l = loss.Square{}
	}

	var total float64
	for i := range inputs {
		total += l.Forward(n.Predict(inputs[i]), teachers[i])
	}
	return total / float64(len(inputs)), nil
}
