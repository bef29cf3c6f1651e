// Package metrics exposes toggle and submission counters.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sleeptoggle"

// Recorder is a nil-safe set of counters backed by its own registry.
type Recorder struct {
	reg         *prom.Registry
	toggles     *prom.CounterVec
	submissions *prom.CounterVec
	discards    *prom.CounterVec
	persistence prom.Counter
}

func New() *Recorder {
	reg := prom.NewRegistry()
	r := &Recorder{
		reg: reg,
		toggles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Toggle operations by interval kind and resulting transition.",
		}, []string{"kind", "transition"}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sample_submissions_total",
			Help:      "Sample submissions by interval kind and result.",
		}, []string{"kind", "result"}),
		discards: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_discarded_total",
			Help:      "Reviews discarded without submission.",
		}, []string{"kind"}),
		persistence: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "state_persistence_failures_total",
			Help:      "State writes that did not reach durable storage.",
		}),
	}
	reg.MustRegister(r.toggles, r.submissions, r.discards, r.persistence)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) Toggle(kind string, opened bool) {
	if r == nil {
		return
	}
	transition := "closed"
	if opened {
		transition = "opened"
	}
	r.toggles.WithLabelValues(kind, transition).Inc()
}

// Submission records the outcome of one submission attempt ("ok", "denied",
// "unavailable", "failed").
func (r *Recorder) Submission(kind, result string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) Discard(kind string) {
	if r == nil {
		return
	}
	r.discards.WithLabelValues(kind).Inc()
}

func (r *Recorder) PersistenceFailure() {
	if r == nil {
		return
	}
	r.persistence.Inc()
}

func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// HTTPHandler serves the registry in the Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
