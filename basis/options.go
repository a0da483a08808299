package basis

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/qbasis/resource"
)

// Dispatch selects between the sequential and the parallel builder.
type Dispatch int

const (
	// DispatchAuto runs in parallel when more than one thread is available, the
	// candidate count exceeds the thread count and the group is non-trivial.
	DispatchAuto Dispatch = iota
	// DispatchSequential always runs the sequential builder.
	DispatchSequential
	// DispatchParallel runs the parallel builder whenever threads > 1.
	DispatchParallel
)

// Stats describes one build.
type Stats struct {
	Kind     string // "full" or "pcon"
	Parallel bool
	Threads  int
	Tested   uint64
	Accepted int
	Duration time.Duration
	Err      error
}

type options struct {
	threads  int
	logger   *slog.Logger
	rc       *resource.Controller
	dispatch Dispatch
	observer func(Stats)
}

// Option configures a build or mapper call.
type Option func(*options)

// WithThreads sets the number of worker goroutines.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithLogger sets the logger. nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResourceController charges parallel scratch buffers and worker
// goroutines to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithDispatch overrides the dispatch policy.
func WithDispatch(d Dispatch) Option {
	return func(o *options) {
		o.dispatch = d
	}
}

// WithObserver registers fn to receive the Stats of every build.
func WithObserver(fn func(Stats)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.threads < 1 {
		o.threads = runtime.GOMAXPROCS(0)
	}
	return o
}
