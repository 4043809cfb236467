package opt

import "math"

// Scheduler defines the interface for learning rate schedulers.
type Scheduler interface {
	Step()
	StepWithLoss(loss float64)
	Rate() float64
}

// BaseScheduler provides default implementations for Scheduler.
type BaseScheduler struct{}

func (s BaseScheduler) Step()                     {}
func (s BaseScheduler) StepWithLoss(loss float64) {}

// StepLR multiplies the rate by gamma every stepSize epochs.
type StepLR struct {
	BaseScheduler
	optimizer RateSetter
	stepSize  int
	gamma     float64
	lastEpoch int
}

func NewStepLR(optimizer RateSetter, stepSize int, gamma float64) *StepLR {
	if stepSize < 1 {
		stepSize = 1
	}
	return &StepLR{
		optimizer: optimizer,
		stepSize:  stepSize,
		gamma:     gamma,
	}
}

func (s *StepLR) Step() {
	s.lastEpoch++
	if s.lastEpoch%s.stepSize == 0 {
		s.optimizer.SetRate(s.optimizer.Rate() * s.gamma)
	}
}

func (s *StepLR) Rate() float64 {
	return s.optimizer.Rate()
}

// ExponentialLR multiplies the rate by gamma every epoch.
type ExponentialLR struct {
	BaseScheduler
	optimizer RateSetter
	gamma     float64
}

func NewExponentialLR(optimizer RateSetter, gamma float64) *ExponentialLR {
	return &ExponentialLR{
		optimizer: optimizer,
		gamma:     gamma,
	}
}

func (s *ExponentialLR) Step() {
	s.optimizer.SetRate(s.optimizer.Rate() * s.gamma)
}

func (s *ExponentialLR) Rate() float64 {
	return s.optimizer.Rate()
}

// ReduceLROnPlateau reduces the rate when the loss has stopped improving.
type ReduceLROnPlateau struct {
	BaseScheduler
	optimizer RateSetter
	factor    float64
	patience  int
	threshold float64
	cooldown  int
	minRate   float64

	bestLoss        float64
	numBadEpochs    int
	cooldownCounter int
}

func NewReduceLROnPlateau(optimizer RateSetter, factor float64, patience int, threshold, minRate float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minRate:   minRate,
		bestLoss:  math.MaxFloat64,
	}
}

// SetCooldown makes the scheduler ignore the given number of epochs after
// every reduction.
func (s *ReduceLROnPlateau) SetCooldown(epochs int) *ReduceLROnPlateau {
	s.cooldown = max(epochs, 0)
	return s
}

func (s *ReduceLROnPlateau) StepWithLoss(currentLoss float64) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if currentLoss < s.bestLoss-s.threshold {
		s.bestLoss = currentLoss
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs >= s.patience {
		s.optimizer.SetRate(math.Max(s.optimizer.Rate()*s.factor, s.minRate))
		s.numBadEpochs = 0
		s.cooldownCounter = s.cooldown
	}
}

func (s *ReduceLROnPlateau) Rate() float64 {
	return s.optimizer.Rate()
}
