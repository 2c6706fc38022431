package shoveler

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BlocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoveler_blocks_processed",
		Help: "The total number of data-file blocks processed",
	})

	RecordsShoveled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoveler_records_shoveled",
		Help: "The total number of record envelopes enqueued",
	})

	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoveler_decode_errors",
		Help: "The total number of table scans aborted by an error, decode or sink write",
	})

	RabbitmqReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoveler_rabbitmq_reconnects",
		Help: "The total number of reconnections to rabbitmq bus",
	})

	QueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shoveler_queue_size",
		Help: "The number of messages in the queue",
	})

	TokenMonitor = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shoveler_token_status",
		Help: "The token status",
	})
)

// StartMetrics serves the prometheus metrics endpoint in a separate goroutine.
func StartMetrics(metricsPort int) {
	go func() {
		listenAddress := ":" + strconv.Itoa(metricsPort)
		log.Debugln("Starting metrics at " + listenAddress + "/metrics")
		http.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(listenAddress, nil)
		if err != nil {
			log.Errorln("Failed to listen and serve metrics:", err)
			return
		}
	}()
}
