package orchestrator

import (
	"bitbucket.org/airenas/subtitler/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "subtitler"

type serviceMetrics struct {
	runs          *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
	inFlight      prometheus.Gauge
}

func newMetrics() (*serviceMetrics, error) {
	res := &serviceMetrics{}
	res.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Translation runs by result",
	}, []string{"result"})
	res.batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Translated batches by result",
	}, []string{"result"})
	res.batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of one batch translation call",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
	})
	res.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "in_flight_translations",
		Help:      "Translation calls in progress",
	})
	if err := metrics.Register(res.runs, res.batches, res.batchDuration, res.inFlight); err != nil {
		return nil, err
	}
	return res, nil
}
