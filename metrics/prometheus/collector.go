// Package prometheus exports qbasis metrics to a Prometheus registry.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/qbasis"
)

const namespace = "qbasis"

var _ qbasis.MetricsCollector = (*Collector)(nil)

// Collector implements qbasis.MetricsCollector on Prometheus counters and
// histograms.
type Collector struct {
	buildLatency   *prometheus.HistogramVec
	statesTested   *prometheus.CounterVec
	statesAccepted *prometheus.CounterVec
	buildThreads   prometheus.Gauge
	stageLatency   *prometheus.HistogramVec
	clustersGrown  prometheus.Counter
	topologies     *prometheus.GaugeVec
	embeddings     prometheus.Counter
	saveLatency    *prometheus.HistogramVec
}

// NewCollector registers the qbasis metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		buildLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Latency of basis builds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"kind", "status"}),
		statesTested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_tested_total",
			Help:      "Candidate states visited by basis builds",
		}, []string{"kind"}),
		statesAccepted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_accepted_total",
			Help:      "Representatives accepted by successful basis builds",
		}, []string{"kind"}),
		buildThreads: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_threads",
			Help:      "Worker count of the last basis build",
		}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nlce_stage_duration_seconds",
			Help:      "Latency of expansion stages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		clustersGrown: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nlce_clusters_grown_total",
			Help:      "Canonical clusters produced by growth rounds",
		}),
		topologies: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nlce_topologies",
			Help:      "Topologies found at each order",
		}, []string{"order"}),
		embeddings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nlce_embeddings_total",
			Help:      "Subcluster embeddings counted",
		}),
		saveLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_save_duration_seconds",
			Help:      "Latency of artifact saves",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) RecordBuild(kind string, tested uint64, accepted, threads int, d time.Duration, err error) {
	c.buildLatency.WithLabelValues(kind, status(err)).Observe(d.Seconds())
	c.statesTested.WithLabelValues(kind).Add(float64(tested))
	if err == nil {
		c.statesAccepted.WithLabelValues(kind).Add(float64(accepted))
	}
	c.buildThreads.Set(float64(threads))
}

func (c *Collector) RecordGrow(_, _, clusters int, d time.Duration) {
	c.stageLatency.WithLabelValues("grow").Observe(d.Seconds())
	c.clustersGrown.Add(float64(clusters))
}

func (c *Collector) RecordClassify(order, _, topologies int, d time.Duration) {
	c.stageLatency.WithLabelValues("classify").Observe(d.Seconds())
	c.topologies.WithLabelValues(strconv.Itoa(order)).Set(float64(topologies))
}

func (c *Collector) RecordSubclusters(_, _, embeddings int, d time.Duration) {
	c.stageLatency.WithLabelValues("subclusters").Observe(d.Seconds())
	c.embeddings.Add(float64(embeddings))
}

func (c *Collector) RecordSave(kind string, d time.Duration, err error) {
	c.saveLatency.WithLabelValues(kind, status(err)).Observe(d.Seconds())
}
