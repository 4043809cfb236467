package net

import (
	"log"
	"math"
	"os"

	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// Callback receives training events from Fit.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
	OnBatchBegin(batch int, n *Network)
	OnBatchEnd(batch int, loss float64, n *Network)
}

// Stopper is implemented by callbacks that can end training early. Fit
// checks it after every epoch.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(n *Network)                        {}
func (BaseCallback) OnTrainEnd(n *Network)                          {}
func (BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}
func (BaseCallback) OnBatchBegin(batch int, n *Network)             {}
func (BaseCallback) OnBatchEnd(batch int, loss float64, n *Network) {}

// SchedulerCallback steps a learning-rate scheduler at the end of every
// epoch.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, loss float64, n *Network) {
	c.scheduler.Step()
	c.scheduler.StepWithLoss(loss)
}

// EarlyStopping stops training when the epoch loss has not improved by more
// than Threshold for Patience epochs.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	Out       *log.Logger

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		if c.Out != nil && !c.Stopped {
			c.Out.Printf("early stopping at epoch %d: loss %.6f did not improve for %d epochs", epoch, loss, c.Patience)
		}
		c.Stopped = true
	}
}

// ShouldStop implements Stopper.
func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// ModelCheckpoint saves the network whenever the epoch loss reaches a new
// best. With ResetAdam set the Adam moments are cleared after each save, so
// training restarts its moment estimates from the checkpoint.
type ModelCheckpoint struct {
	BaseCallback
	Filename  string
	ResetAdam bool
	Out       *log.Logger

	bestLoss float64
	// Err holds the last save failure.
	Err error
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.MaxFloat64,
	}
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss >= c.bestLoss {
		return
	}
	c.bestLoss = loss
	if err := n.Save(c.Filename); err != nil {
		c.Err = err
		if c.Out != nil {
			c.Out.Printf("checkpoint: %v", err)
		}
		return
	}
	if c.ResetAdam {
		n.ResetAdam()
	}
	if c.Out != nil {
		c.Out.Printf("checkpoint saved to %s: loss %.6f is new best", c.Filename, loss)
	}
}

// Logger prints the epoch loss every Interval epochs. A nil Out writes to
// standard error.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	out := c.Out
	if out == nil {
		out = log.New(os.Stderr, "", log.LstdFlags)
	}
	out.Printf("epoch %d: loss = %.6f", epoch, loss)
}
