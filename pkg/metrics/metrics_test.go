package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	AuthAttempts.WithLabelValues("login", "ok").Inc()
	StoreOps.WithLabelValues("get", "not-found").Inc()

	require.GreaterOrEqual(t, testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "ok")), 1.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(StoreOps.WithLabelValues("get", "not-found")), 1.0)

	// registering twice is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}
