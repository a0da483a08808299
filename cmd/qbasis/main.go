// Command qbasis builds symmetry-reduced bases and NLCE cluster catalogs and
// writes them as artifacts.
//
// Usage:
//
//	qbasis basis -lattice chain -L 12 -Np 6 -kblock 0 -pblock 1 -out file://./out/basis.qbs
//	qbasis nlce -lattice square -order 4 -out s3://bucket/nlce/square-4.qbs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/qbasis"
	"github.com/hupe1980/qbasis/codec"
	qbprom "github.com/hupe1980/qbasis/metrics/prometheus"
	"github.com/hupe1980/qbasis/persistence"
	"github.com/hupe1980/qbasis/resource"
)

var errUsage = errors.New("usage: qbasis <basis|nlce> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "qbasis:", err)
		}
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "basis":
		return runBasis(ctx, args[1:], stdout, stderr)
	case "nlce":
		return runNLCE(ctx, args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// common holds the flags shared by every subcommand.
type common struct {
	lattice     string
	out         string
	threads     int
	logLevel    string
	metricsAddr string
	compression string
	codec       string
	scratch     int64
	ioLimit     int64
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.lattice, "lattice", "chain", "lattice: chain or square")
	fs.StringVar(&c.out, "out", "", "artifact destination (file://, s3://, minio://)")
	fs.IntVar(&c.threads, "threads", 0, "worker goroutines (0 = GOMAXPROCS)")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&c.compression, "compression", "zstd", "artifact compression: none, lz4, zstd")
	fs.StringVar(&c.codec, "codec", "go-json", "expansion codec: json, go-json")
	fs.Int64Var(&c.scratch, "scratch-limit", 0, "scratch memory budget in bytes (0 = unlimited)")
	fs.Int64Var(&c.ioLimit, "io-limit", 0, "artifact IO limit in bytes per second (0 = unlimited)")
}

// session is what a subcommand needs after its common flags are parsed.
type session struct {
	opts     []qbasis.Option
	logger   *qbasis.Logger
	shutdown func()
}

func (c *common) setup(stderr io.Writer) (*session, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	ct, err := persistence.ParseCompression(c.compression)
	if err != nil {
		return nil, err
	}
	cd, ok := codec.ByName(c.codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", c.codec)
	}

	logger := qbasis.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	rt := &session{
		logger:   logger,
		shutdown: func() {},
		opts: []qbasis.Option{
			qbasis.WithLogger(logger),
			qbasis.WithThreads(c.threads),
			qbasis.WithCompression(ct),
			qbasis.WithCodec(cd),
		},
	}
	if c.scratch > 0 || c.ioLimit > 0 {
		rt.opts = append(rt.opts, qbasis.WithResourceController(resource.NewController(resource.Config{
			ScratchLimitBytes:  c.scratch,
			IOLimitBytesPerSec: c.ioLimit,
		})))
	}

	if c.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rt.opts = append(rt.opts, qbasis.WithMetricsCollector(qbprom.NewCollector(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: c.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", c.metricsAddr)
		rt.shutdown = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}
	}
	return rt, nil
}
