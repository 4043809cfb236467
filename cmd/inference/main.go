// Command inference loads a saved network and runs it over a CSV file,
// printing one output vector per row and, when teacher columns are given,
// the mean loss.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

func parseColumns(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var cols []int
	for _, field := range strings.Split(s, ",") {
		c, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("bad column %q: %w", field, err)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func main() {
	var (
		model   = flag.String("model", "", "network file written by Save")
		data    = flag.String("data", "", "CSV input file")
		header  = flag.Bool("header", false, "skip the first CSV line")
		labels  = flag.String("teachers", "", "comma-separated teacher column indexes")
		entropy = flag.Bool("ce", false, "report cross-entropy instead of squared error")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "inference: ", 0)
	if *model == "" || *data == "" {
		flag.Usage()
		os.Exit(2)
	}

	n, err := net.Load(*model)
	if err != nil {
		logger.Fatal(err)
	}
	cols, err := parseColumns(*labels)
	if err != nil {
		logger.Fatal(err)
	}
	d, err := net.LoadCSV(*data, cols, *header)
	if err != nil {
		logger.Fatal(err)
	}

	for i, x := range d.Inputs {
		out := n.Predict(x)
		if out == nil {
			logger.Fatalf("row %d has %d values, network expects %d", i, len(x), n.InputSize())
		}
		fmt.Println(strings.Trim(fmt.Sprint(out), "[]"))
	}

	if len(cols) == 0 {
		return
	}
	var l loss.Loss = loss.Square{}
	if *entropy {
		l = loss.NewCrossEntropy()
	}
	mean, err := n.Evaluate(d.Inputs, d.Teachers, l)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("mean loss over %d rows: %.6f", d.Len(), mean)
}
