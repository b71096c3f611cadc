package streetindex

const defaultSearchRadius = 250.0

type options struct {
	searchRadius float64
}

func loadOptions(opts ...Option) options {
	o := options{searchRadius: defaultSearchRadius}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

type Option interface {
	apply(*options)
}

type searchRadius float64

func (r searchRadius) apply(o *options) {
	if r > 0 {
		o.searchRadius = float64(r)
	}
}

// WithSearchRadius limits lookups to streets within radius meters.
// Default: 250
func WithSearchRadius(radius float64) Option {
	return searchRadius(radius)
}
