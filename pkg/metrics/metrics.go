package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contacthub", Name: "searches_total", Help: "Number of search operations by kind (list, current, all_time)."},
		[]string{"kind"},
	)
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contacthub", Name: "mutations_total", Help: "Number of mutation operations by kind (insert, update, delete)."},
		[]string{"kind"},
	)
	Conflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "contacthub", Name: "conflicts_total", Help: "Number of mutations rejected by a content-hash precondition."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contacthub", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contacthub", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Searches)
	reg.MustRegister(Mutations)
	reg.MustRegister(Conflicts)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
