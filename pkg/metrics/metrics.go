package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peckin", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peckin", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// AuthAttempts counts sign-up/sign-in/sign-out calls by outcome
	// ("ok" or the provider code).
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peckin", Name: "auth_attempts_total", Help: "Authentication operations by outcome."},
		[]string{"op", "outcome"},
	)
	// StoreOps counts document store calls by operation and outcome.
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "peckin", Name: "store_operations_total", Help: "Document store operations by outcome."},
		[]string{"op", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(StoreOps)
}
