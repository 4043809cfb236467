// Package seqnet is the public entry point to the layer-chain network
// engine: affine, ReLU-family, sigmoid, softmax, convolution and max
// pooling layers trained with plain gradient steps or Adam and persisted
// in a compact tagged binary format.
package seqnet

import (
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// Re-export common types for easier access
type (
	Network     = net.Network
	Option      = net.Option
	Layer       = layer.Layer
	Kind        = layer.Kind
	Geometry    = layer.Geometry
	Optimizer   = opt.Optimizer
	Loss        = loss.Loss
	TrainConfig = net.TrainConfig
	History     = net.History
	Dataset     = net.Dataset
	Callback    = net.Callback
)

// Layer kinds as stored in the binary format.
const (
	KindBlank       = layer.KindBlank
	KindAffine      = layer.KindAffine
	KindReLU        = layer.KindReLU
	KindRReLU       = layer.KindRReLU
	KindLReLU       = layer.KindLReLU
	KindSigmoid     = layer.KindSigmoid
	KindSoftMax     = layer.KindSoftMax
	KindConvolution = layer.KindConvolution
	KindMaxPooling  = layer.KindMaxPooling
)

// Errors
var (
	ErrIncompatibleLayer = net.ErrIncompatibleLayer
	ErrUnknownKind       = net.ErrUnknownKind
	ErrMissingTerminator = net.ErrMissingTerminator
	ErrLayerTooLarge     = net.ErrLayerTooLarge
	ErrInvalidConfig     = net.ErrInvalidConfig
	ErrInvalidShape      = layer.ErrInvalidShape
)

// New creates an empty network.
func New(opts ...Option) *Network {
	return net.New(opts...)
}

// Options
func WithSeed(seed uint64) Option {
	return net.WithSeed(seed)
}

func WithSquaredNormalInit() Option {
	return net.WithInit(layer.InitSquaredNormal)
}

// Model persistence
func Load(filename string, opts ...Option) (*Network, error) {
	return net.Load(filename, opts...)
}

func LoadCSV(filename string, teacherCols []int, hasHeader bool) (*Dataset, error) {
	return net.LoadCSV(filename, teacherCols, hasHeader)
}

// IsDecodeError reports whether err describes malformed network data.
func IsDecodeError(err error) bool {
	return net.IsDecodeError(err)
}

// Optimizers
func SGD(rate float64) *opt.SGD {
	return opt.NewSGD(rate)
}

func Adam(alpha float64) *opt.Adam {
	return opt.NewAdam(alpha)
}

func StepLR(o opt.RateSetter, stepSize int, gamma float64) *opt.StepLR {
	return opt.NewStepLR(o, stepSize, gamma)
}

func ExponentialLR(o opt.RateSetter, gamma float64) *opt.ExponentialLR {
	return opt.NewExponentialLR(o, gamma)
}

func ReduceLROnPlateau(o opt.RateSetter, factor float64, patience int, threshold, minRate float64) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(o, factor, patience, threshold, minRate)
}

// Losses
var (
	Square       = loss.Square{}
	CrossEntropy = loss.NewCrossEntropy()
)

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, minDelta float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func SchedulerCallback(scheduler opt.Scheduler) Callback {
	return net.NewSchedulerCallback(scheduler)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}
