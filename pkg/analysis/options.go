package analysis

import (
	"runtime"

	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/metrics"
)

// Option configures an analysis.
type Option func(*options)

type options struct {
	parallelism int
	logger      logging.Logger
	metrics     *metrics.Registry
}

func defaults(opts []Option) options {
	o := options{
		parallelism: runtime.GOMAXPROCS(0),
		logger:      logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithParallelism bounds concurrent inference calls. Zero or less keeps
// one per CPU.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) { o.metrics = m }
}
