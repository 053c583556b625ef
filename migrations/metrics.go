package migrations

import "github.com/prometheus/client_golang/prometheus"

var schemaReadyGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "tckdb_schema_ready",
		Help: "1 if the store schema matches the expected version, 0 otherwise.",
	},
)

func init() {
	prometheus.MustRegister(schemaReadyGauge)
}
