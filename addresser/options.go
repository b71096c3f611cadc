package addresser

import (
	"log/slog"
	"time"

	"github.com/royalcat/communityaddr/geomodel"
	"github.com/royalcat/communityaddr/housenumber"
)

const (
	defaultMaxStreetDistance = 100.0
	defaultStepTimeout       = 2 * time.Second
	defaultBatchWorkers      = 8
)

type options struct {
	version           string
	maxStreetDistance float64
	spacing           int
	stepTimeout       time.Duration
	batchWorkers      int
	cache             Cache
	logger            *slog.Logger
}

func loadOptions(opts ...Option) options {
	options := options{
		version:           geomodel.AlgorithmV2,
		maxStreetDistance: defaultMaxStreetDistance,
		spacing:           housenumber.DefaultSpacing,
		stepTimeout:       defaultStepTimeout,
		batchWorkers:      defaultBatchWorkers,
		logger:            slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}

type Option interface {
	apply(*options)
}

type algorithmVersion string

func (v algorithmVersion) apply(o *options) {
	o.version = string(v)
}

// WithAlgorithm selects the address algorithm version.
// Default: v2
func WithAlgorithm(version string) Option {
	return algorithmVersion(version)
}

type maxStreetDistance float64

func (d maxStreetDistance) apply(o *options) {
	o.maxStreetDistance = float64(d)
}

// WithMaxStreetDistance sets how far in meters a named street may be from the
// building to be used. Default: 100
func WithMaxStreetDistance(meters float64) Option {
	return maxStreetDistance(meters)
}

type spacing int

func (s spacing) apply(o *options) {
	o.spacing = int(s)
}

// WithSpacing sets the house number step. Default: 5
func WithSpacing(step int) Option {
	return spacing(step)
}

type stepTimeout time.Duration

func (t stepTimeout) apply(o *options) {
	o.stepTimeout = time.Duration(t)
}

// WithStepTimeout bounds each street lookup and placeholder store call.
// Default: 2s
func WithStepTimeout(timeout time.Duration) Option {
	return stepTimeout(timeout)
}

type batchWorkers int

func (n batchWorkers) apply(o *options) {
	o.batchWorkers = int(n)
}

// WithBatchWorkers limits concurrent computations in AssignBatch. Default: 8
func WithBatchWorkers(n int) Option {
	return batchWorkers(n)
}

type cacheOption struct {
	cache Cache
}

func (c cacheOption) apply(o *options) {
	o.cache = c.cache
}

func WithCache(cache Cache) Option {
	return cacheOption{cache: cache}
}

type loggerOption struct {
	logger *slog.Logger
}

func (l loggerOption) apply(o *options) {
	if l.logger != nil {
		o.logger = l.logger
	}
}

func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}
