// metrics.go - Prometheus instrumentation for the render loop

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "github.com/prometheus/client_golang/prometheus"

// deviceMetrics groups the Prometheus collectors one Device registers.
// Not part of spec.md's testable surface; an ambient-stack addition
// (SPEC_FULL.md Section B) grounded on tphakala-birdnet-go's dependency on
// prometheus/client_golang.
type deviceMetrics struct {
	blocksRendered prometheus.Counter
	activeVoices   prometheus.Gauge
	underruns      prometheus.Counter
}

func newDeviceMetrics() *deviceMetrics {
	return &deviceMetrics{
		blocksRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alcore",
			Name:      "mix_blocks_rendered_total",
			Help:      "Number of mix blocks the render loop has produced.",
		}),
		activeVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alcore",
			Name:      "active_voices",
			Help:      "Number of voices currently mixing audio.",
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alcore",
			Name:      "backend_underruns_total",
			Help:      "Number of times the backend reported a buffer underrun.",
		}),
	}
}

// Register adds this device's collectors to reg, so callers can opt into
// exposing them on an HTTP handler.
func (m *deviceMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.blocksRendered, m.activeVoices, m.underruns} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
