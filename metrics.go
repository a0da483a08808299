package qbasis

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each basis build. kind is "full" or "pcon",
	// tested is the candidate budget and accepted is 0 when err is set.
	RecordBuild(kind string, tested uint64, accepted, threads int, duration time.Duration, err error)

	// RecordGrow is called after each growth round from order-1 seeds to
	// order clusters.
	RecordGrow(order, seeds, clusters int, duration time.Duration)

	// RecordClassify is called after the clusters of an order are grouped
	// into topologies.
	RecordClassify(order, clusters, topologies int, duration time.Duration)

	// RecordSubclusters is called once per order after the embeddings of that
	// order's topologies in smaller clusters are counted.
	RecordSubclusters(order, topologies, embeddings int, duration time.Duration)

	// RecordSave is called after each artifact write.
	RecordSave(kind string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(string, uint64, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGrow(int, int, int, time.Duration)                    {}
func (NoopMetricsCollector) RecordClassify(int, int, int, time.Duration)                {}
func (NoopMetricsCollector) RecordSubclusters(int, int, int, time.Duration)             {}
func (NoopMetricsCollector) RecordSave(string, time.Duration, error)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildTotalNanos  atomic.Int64
	StatesTested     atomic.Uint64
	StatesAccepted   atomic.Int64
	GrowRounds       atomic.Int64
	ClustersGrown    atomic.Int64
	TopologiesFound  atomic.Int64
	EmbeddingsCount  atomic.Int64
	SubclusterRounds atomic.Int64
	MaxOrder         atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ string, tested uint64, accepted, _ int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	b.StatesTested.Add(tested)
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.StatesAccepted.Add(int64(accepted))
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(order, _, clusters int, _ time.Duration) {
	b.GrowRounds.Add(1)
	b.ClustersGrown.Add(int64(clusters))
	for {
		cur := b.MaxOrder.Load()
		if int64(order) <= cur || b.MaxOrder.CompareAndSwap(cur, int64(order)) {
			return
		}
	}
}

// RecordClassify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClassify(_, _, topologies int, _ time.Duration) {
	b.TopologiesFound.Add(int64(topologies))
}

// RecordSubclusters implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSubclusters(_, _, embeddings int, _ time.Duration) {
	b.SubclusterRounds.Add(1)
	b.EmbeddingsCount.Add(int64(embeddings))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ string, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildAvgNanos:    b.getAvgBuildNanos(),
		StatesTested:     b.StatesTested.Load(),
		StatesAccepted:   b.StatesAccepted.Load(),
		GrowRounds:       b.GrowRounds.Load(),
		ClustersGrown:    b.ClustersGrown.Load(),
		TopologiesFound:  b.TopologiesFound.Load(),
		EmbeddingsCount:  b.EmbeddingsCount.Load(),
		SubclusterRounds: b.SubclusterRounds.Load(),
		MaxOrder:         b.MaxOrder.Load(),
		SaveCount:        b.SaveCount.Load(),
		SaveErrors:       b.SaveErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount       int64
	BuildErrors      int64
	BuildAvgNanos    int64
	StatesTested     uint64
	StatesAccepted   int64
	GrowRounds       int64
	ClustersGrown    int64
	TopologiesFound  int64
	EmbeddingsCount  int64
	SubclusterRounds int64
	MaxOrder         int64
	SaveCount        int64
	SaveErrors       int64
}
