package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every roverhub collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// CommandsTotal counts processed commands.
	// command: mission_start/mission_complete/rover_control/rover_status, result: ok/rejected
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverhub_commands_total",
			Help: "Total number of commands processed by the hub.",
		},
		[]string{"command", "result"},
	)

	// BroadcastsTotal counts messages handed to the registry, per event name.
	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverhub_broadcasts_total",
			Help: "Total number of messages broadcast to observers.",
		},
		[]string{"event"},
	)

	ObserversConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roverhub_observers_connected",
			Help: "Number of currently registered observers.",
		},
	)

	// ObserverEvictionsTotal counts observers dropped because they fell behind.
	ObserverEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roverhub_observer_evictions_total",
			Help: "Observers disconnected because their send buffer was full.",
		},
	)

	DistressAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverhub_distress_alerts_total",
			Help: "Total number of distress alerts broadcast.",
		},
		[]string{"trigger"},
	)

	// TranscriptSourceTotal records which step of the resolution chain won.
	TranscriptSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roverhub_transcript_source_total",
			Help: "Resolved distress transcripts by source (client/service/fallback).",
		},
		[]string{"source"},
	)

	TranscriptionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roverhub_transcription_latency_seconds",
			Help:    "Latency of calls to the speech-to-text provider.",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
	)

	// MirrorDroppedTotal counts outbound rover link messages dropped on a full queue.
	MirrorDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roverhub_mirror_dropped_total",
			Help: "Messages dropped by the MQTT mirror because its queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CommandsTotal,
		BroadcastsTotal,
		ObserversConnected,
		ObserverEvictionsTotal,
		DistressAlertsTotal,
		TranscriptSourceTotal,
		TranscriptionLatency,
		MirrorDroppedTotal,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Result maps an error to the "result" label.
func Result(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}
