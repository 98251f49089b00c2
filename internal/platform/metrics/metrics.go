// Package metrics exposes Prometheus collectors for the classifier and
// notifier processes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "latewatch"

// Metrics holds every collector. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	classifierRuns        *prometheus.CounterVec
	classifierRunDuration prometheus.Histogram
	statusUpdates         *prometheus.CounterVec
	lateAssignments       prometheus.Counter
	brokerPublish         *prometheus.CounterVec
	consumerMessages      *prometheus.CounterVec
	consumerConnected     *prometheus.GaugeVec
	notifications         *prometheus.CounterVec
}

// MustNewMetrics constructs the collectors and registers them, together with
// the Go runtime and process collectors, on reg. Registration errors panic,
// mirroring the promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		classifierRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "runs_total",
			Help:      "Delay classifier runs by result.",
		}, []string{"result"}),
		classifierRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of delay classifier runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "status_updates_total",
			Help:      "Assignment status writes by result.",
		}, []string{"result"}),
		lateAssignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "late_assignments_total",
			Help:      "Assignments classified as behind schedule.",
		}),
		brokerPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "publish_total",
			Help:      "Messages published by queue and result.",
		}, []string{"queue", "result"}),
		consumerMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Consumed messages by queue and settlement.",
		}, []string{"queue", "result"}),
		consumerConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "connected",
			Help:      "1 while the consumer holds a live broker session.",
		}, []string{"queue"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Late-tasks messages by notification outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.classifierRuns,
		m.classifierRunDuration,
		m.statusUpdates,
		m.lateAssignments,
		m.brokerPublish,
		m.consumerMessages,
		m.consumerConnected,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRun records a finished classifier run.
func (m *Metrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.classifierRuns.WithLabelValues(result).Inc()
	m.classifierRunDuration.Observe(d.Seconds())
}

// ObserveStatusUpdate records one assignment status write.
func (m *Metrics) ObserveStatusUpdate(result string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(result).Inc()
}

// AddLateAssignments counts assignments found behind schedule.
func (m *Metrics) AddLateAssignments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lateAssignments.Add(float64(n))
}

// ObservePublish records a publish attempt.
func (m *Metrics) ObservePublish(queue, result string) {
	if m == nil {
		return
	}
	m.brokerPublish.WithLabelValues(queue, result).Inc()
}

// ObserveConsume records how a consumed message was settled.
func (m *Metrics) ObserveConsume(queue, result string) {
	if m == nil {
		return
	}
	m.consumerMessages.WithLabelValues(queue, result).Inc()
}

// SetConnected reports a consumer's session state.
func (m *Metrics) SetConnected(queue string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.consumerConnected.WithLabelValues(queue).Set(v)
}

// ObserveNotification records the outcome of a late-tasks message.
func (m *Metrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
