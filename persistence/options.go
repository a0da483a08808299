package persistence

import (
	"log/slog"

	"github.com/hupe1980/qbasis/codec"
	"github.com/hupe1980/qbasis/resource"
)

type options struct {
	compression CompressionType
	blockSize   int
	codec       codec.Codec
	rc          *resource.Controller
	logger      *slog.Logger
}

// Option configures Save and Load calls.
type Option func(*options)

// WithCompression selects the payload block codec. Load ignores it; the
// header names the codec used.
func WithCompression(ct CompressionType) Option {
	return func(o *options) { o.compression = ct }
}

// WithBlockSize sets the uncompressed block size.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithCodec sets the codec used to encode expansions. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithResourceController throttles artifact IO with the controller's rate limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	o := options{
		compression: CompressionNone,
		blockSize:   DefaultBlockSize,
		codec:       codec.Default,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
