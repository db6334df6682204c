package sink

import (
	"context"
	"relay-lab/domain/event"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
)

const unknownEvent = "unknown"

// MetricsSink counts delivered logs per event name.
type MetricsSink struct {
	decoders []event.Decoder
	events   *prometheus.CounterVec
	lastSeen prometheus.Gauge
}

func NewMetricsSink(registerer prometheus.Registerer, decoders ...event.Decoder) (*MetricsSink, error) {
	s := &MetricsSink{
		decoders: decoders,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_total",
			Help:      "Contract logs delivered to the sinks, by event name.",
		}, []string{"event"}),
		lastSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "last_event_block",
			Help:      "Block number of the last delivered log.",
		}),
	}
	for _, collector := range []prometheus.Collector{s.events, s.lastSeen} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MetricsSink) Consume(_ context.Context, log *types.Log) error {
	name := unknownEvent
	if evt, ok := event.Decode(log, s.decoders...); ok {
		name = evt.Name()
	}
	s.events.WithLabelValues(name).Inc()
	s.lastSeen.Set(float64(log.BlockNumber))
	return nil
}
