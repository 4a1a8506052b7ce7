package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "parley"

var (
	connectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "connections_accepted_total",
		Help:      "Total number of client connections accepted into the table",
	})
	connectionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "connections_rejected_total",
		Help:      "Total number of client connections refused because the table was full",
	})
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "connections_active",
		Help:      "Number of currently connected clients",
	})
	framesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "frames_decoded_total",
		Help:      "Total number of complete frames decoded from client streams",
	})
	messagesBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_broadcast_total",
		Help:      "Total number of messages fanned out to connected clients",
	})
	broadcastErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "broadcast_write_errors_total",
		Help:      "Total number of peers that failed to receive a broadcast message",
	})
	protocolViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "protocol_violations_total",
		Help:      "Total number of connections closed for violating the framing protocol",
	})
)
