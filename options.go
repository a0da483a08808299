package qbasis

import (
	"log/slog"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/codec"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/persistence"
	"github.com/hupe1980/qbasis/resource"
)

type options struct {
	threads          int
	logger           *Logger
	metricsCollector MetricsCollector
	rc               *resource.Controller
	dispatch         basis.Dispatch
	compression      persistence.CompressionType
	codec            codec.Codec
}

// Option configures a qbasis call.
type Option func(*options)

// WithThreads sets the number of worker goroutines. Values below 1 select
// runtime.GOMAXPROCS(0), queried once per call.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the collector that receives per-call measurements.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController limits scratch memory, worker goroutines and
// artifact IO across calls sharing rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithForceParallel runs the parallel basis builder whenever more than one
// thread is configured, bypassing the size heuristic.
func WithForceParallel() Option {
	return func(o *options) {
		o.dispatch = basis.DispatchParallel
	}
}

// WithForceSequential always runs the sequential basis builder.
func WithForceSequential() Option {
	return func(o *options) {
		o.dispatch = basis.DispatchSequential
	}
}

// WithCompression selects the block compression of saved artifacts.
func WithCompression(ct persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

// WithCodec sets the codec used for saved expansions.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		codec:            codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) basisOptions() []basis.Option {
	return []basis.Option{
		basis.WithThreads(o.threads),
		basis.WithLogger(o.logger.Logger),
		basis.WithResourceController(o.rc),
		basis.WithDispatch(o.dispatch),
	}
}

func (o *options) nlceOptions(observer func(nlce.Event)) []nlce.Option {
	return []nlce.Option{
		nlce.WithThreads(o.threads),
		nlce.WithLogger(o.logger.Logger),
		nlce.WithResourceController(o.rc),
		nlce.WithObserver(observer),
	}
}

func (o *options) persistenceOptions() []persistence.Option {
	return []persistence.Option{
		persistence.WithCompression(o.compression),
		persistence.WithCodec(o.codec),
		persistence.WithResourceController(o.rc),
		persistence.WithLogger(o.logger.Logger),
	}
}
