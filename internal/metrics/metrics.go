// Package metrics records reminder activity.
package metrics

import (
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Recorder is what the notifier reports to.
type Recorder interface {
	IncDelivery(kind, result string)
	SetActiveSchedules(n int)
	IncAction(action string)
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncDelivery(string, string) {}
func (Noop) SetActiveSchedules(int)     {}
func (Noop) IncAction(string)           {}

// PrometheusRecorder implements Recorder with Prometheus metrics.
type PrometheusRecorder struct {
	once       sync.Once
	deliveries *prom.CounterVec
	active     prom.Gauge
	actions    *prom.CounterVec
}

// NewPrometheusRecorder registers the metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.deliveries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "checklist",
			Name:      "notification_runs_total",
			Help:      "Reminder worker runs by schedule kind and result",
		}, []string{"kind", "result"})
		pr.active = prom.NewGauge(prom.GaugeOpts{
			Namespace: "checklist",
			Name:      "schedules_active",
			Help:      "Schedule entries currently registered",
		})
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "checklist",
			Name:      "notification_actions_total",
			Help:      "Inbound notification actions by name",
		}, []string{"action"})
		reg.MustRegister(pr.deliveries, pr.active, pr.actions)
	})
	return pr
}

func (p *PrometheusRecorder) IncDelivery(kind, result string) {
	p.deliveries.WithLabelValues(kind, result).Inc()
}

func (p *PrometheusRecorder) SetActiveSchedules(n int) { p.active.Set(float64(n)) }

func (p *PrometheusRecorder) IncAction(action string) { p.actions.WithLabelValues(action).Inc() }

// HTTPHandler serves reg in the Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
