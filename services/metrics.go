package services

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tckdb_submissions_total",
			Help: "Total number of submissions by outcome.",
		},
		[]string{"outcome"},
	)
	violationsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tckdb_validation_violations_total",
			Help: "Total number of reported validation violations.",
		},
	)
	sharedEntitiesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tckdb_shared_entities_total",
			Help: "Shared entities (levels, bath gases) created or reused on commit.",
		},
		[]string{"kind", "action"},
	)
	commitRetriesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tckdb_commit_retries_total",
			Help: "Total number of commit retries after the store was unavailable.",
		},
	)
)

func init() {
	prometheus.MustRegister(submissionsCounter, violationsCounter, sharedEntitiesCounter, commitRetriesCounter)
}

// RecordViolations zählt Validierungsverstöße, die vor dem Service abgefangen wurden.
func RecordViolations(n int) {
	violationsCounter.Add(float64(n))
	submissionsCounter.WithLabelValues("invalid").Inc()
}
