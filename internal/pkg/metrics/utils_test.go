package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Twice(t *testing.T) {
	opts := prometheus.CounterOpts{Name: "metrics_register_test_total", Help: "test"}
	assert.Nil(t, Register(prometheus.NewCounter(opts)))
	assert.Nil(t, Register(prometheus.NewCounter(opts)))
}

func TestRegister_Several(t *testing.T) {
	assert.Nil(t, Register(
		prometheus.NewCounter(prometheus.CounterOpts{Name: "metrics_register_a_total", Help: "test"}),
		prometheus.NewGauge(prometheus.GaugeOpts{Name: "metrics_register_b", Help: "test"})))
}
