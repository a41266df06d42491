package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes ingest and stream counters. A nil *Metrics records nothing.
type Metrics struct {
	ingestDuration *prometheus.HistogramVec
	freshRuns      *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	droppedRuns    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	revealSessions prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scoreboard",
			Name:      "ingest_duration_seconds",
			Help:      "Time spent fetching, decoding and applying one webcast snapshot.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"contest"}),
		freshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "fresh_runs_total",
			Help:      "Runs that were new or changed on ingest.",
		}, []string{"contest"}),
		ingestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "ingest_errors_total",
			Help:      "Ingest ticks that failed.",
		}, []string{"contest", "stage"}),
		droppedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreboard",
			Name:      "dropped_runs_total",
			Help:      "Runs left out of a snapshot.",
		}, []string{"contest", "reason"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "scoreboard",
			Name:      "stream_subscribers",
			Help:      "Open websocket subscribers.",
		}, []string{"contest", "stream"}),
		revealSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scoreboard",
			Name:      "reveal_sessions",
			Help:      "Open revelation sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ingestDuration, m.freshRuns, m.ingestErrors, m.droppedRuns, m.subscribers, m.revealSessions)
	}
	return m
}

func (m *Metrics) ObserveIngest(contest string, d time.Duration) {
	if m == nil {
		return
	}
	m.ingestDuration.WithLabelValues(contest).Observe(d.Seconds())
}

func (m *Metrics) AddFresh(contest string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.freshRuns.WithLabelValues(contest).Add(float64(n))
}

func (m *Metrics) IngestError(contest, stage string) {
	if m == nil {
		return
	}
	m.ingestErrors.WithLabelValues(contest, stage).Inc()
}

func (m *Metrics) AddDropped(contest, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedRuns.WithLabelValues(contest, reason).Add(float64(n))
}

// TrackSubscriber counts an open stream until the returned func is called.
func (m *Metrics) TrackSubscriber(contest, stream string) func() {
	if m == nil {
		return func() {}
	}
	g := m.subscribers.WithLabelValues(contest, stream)
	g.Inc()
	return g.Dec
}

func (m *Metrics) SetRevealSessions(n int) {
	if m == nil {
		return
	}
	m.revealSessions.Set(float64(n))
}
