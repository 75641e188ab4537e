package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAgentRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "requests_total",
		Help:      "Total number of well-formed discovery requests received by agents.",
	})
	metricAgentResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "responses_sent_total",
		Help:      "Total number of discovery responses sent by agents.",
	})
	metricAgentForwards = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "forwards_total",
		Help:      "Total number of discovery requests re-broadcast with a decremented hop budget.",
	})
	metricAgentDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "dropped_total",
		Help:      "Total number of datagrams dropped by agents, per reason.",
	}, []string{"reason"})
	metricAgentCacheFull = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "cache_full_total",
		Help:      "Total number of request identifiers that could not be recorded because the cache was full.",
	})
	metricAgentSendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "agent",
		Name:      "send_errors_total",
		Help:      "Total number of failed sends by agents, per kind (answer or forward).",
	}, []string{"kind"})
	metricRequesterResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "neighborshow",
		Subsystem: "requester",
		Name:      "responses_total",
		Help:      "Total number of datagrams seen during discovery rounds, per result (new, duplicate, foreign, malformed).",
	}, []string{"result"})
)

const (
	dropMalformed = "malformed"

	sendAnswer  = "answer"
	sendForward = "forward"

	resultNew       = "new"
	resultDuplicate = "duplicate"
	resultForeign   = "foreign"
	resultMalformed = "malformed"
)

func init() {
	// Register label values so the series exist even when zero.
	metricAgentDropped.WithLabelValues(dropMalformed)
	metricAgentSendErrors.WithLabelValues(sendAnswer)
	metricAgentSendErrors.WithLabelValues(sendForward)
	for _, r := range []string{resultNew, resultDuplicate, resultForeign, resultMalformed} {
		metricRequesterResponses.WithLabelValues(r)
	}
}
