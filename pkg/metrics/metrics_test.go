package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(prometheus.Metric)
	require.True(t, ok)
	m := &dto.Metric{}
	require.NoError(t, h.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestIncInventoryOp(t *testing.T) {
	c := InventoryOpsTotal.WithLabelValues("reserve", "insufficient_stock")
	before := counterValue(t, c)

	IncInventoryOp("reserve", "insufficient_stock")
	IncInventoryOp("reserve", "insufficient_stock")

	assert.Equal(t, before+2, counterValue(t, c))
}

func TestObserveHTTP(t *testing.T) {
	c := HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "200")
	before := counterValue(t, c)
	beforeCount := histogramCount(t, HTTPRequestDuration.WithLabelValues("POST", "/api/v1/orders"))

	ObserveHTTP("POST", "/api/v1/orders", 200, 15*time.Millisecond)

	assert.Equal(t, before+1, counterValue(t, c))
	assert.Equal(t, beforeCount+1, histogramCount(t, HTTPRequestDuration.WithLabelValues("POST", "/api/v1/orders")))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("redis", 1)

	m := &dto.Metric{}
	require.NoError(t, CircuitBreakerState.WithLabelValues("redis").Write(m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())
}

func TestIncTransitionLabels(t *testing.T) {
	c := OrderTransitionsTotal.WithLabelValues("PENDING", "PAID", "conflict")
	before := counterValue(t, c)

	IncTransition("PENDING", "PAID", "conflict")

	assert.Equal(t, before+1, counterValue(t, c))
}
