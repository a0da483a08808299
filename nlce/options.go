package nlce

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/qbasis/resource"
)

// Stage names a step of the expansion.
type Stage string

const (
	StageGrow        Stage = "grow"
	StageClassify    Stage = "classify"
	StageSubclusters Stage = "subclusters"
)

// Event reports one completed stage.
type Event struct {
	Stage    Stage
	Order    int
	Inputs   int // seeds, clusters or topologies consumed
	Outputs  int // clusters, topologies or embeddings produced
	Duration time.Duration
}

type options struct {
	threads  int
	logger   *slog.Logger
	rc       *resource.Controller
	observer func(Event)
}

// Option configures growth and expansion.
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

// WithResourceController charges worker goroutines to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithObserver registers fn to receive an Event per completed stage.
func WithObserver(fn func(Event)) Option {
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

func (o *options) emit(ev Event) {
	if o.observer != nil {
		o.observer(ev)
	}
}
