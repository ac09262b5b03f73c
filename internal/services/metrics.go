package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// acceptedUnits counts stored units by service and inbound source
	// ("telegram", "http").
	acceptedUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scooter_accepted_units_total",
			Help: "Scooter units accepted, by service and source.",
		},
		[]string{"service", "source"},
	)

	// intakeMessages counts processed messages by outcome
	// ("accepted", "nothing_recognized", "error").
	intakeMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scooter_intake_messages_total",
			Help: "Intake messages processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// reportRuns counts report builds by report type and outcome
	// ("ok", "empty", "error").
	reportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scooter_report_runs_total",
			Help: "Report builds, by report type and outcome.",
		},
		[]string{"report", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(acceptedUnits, intakeMessages, reportRuns)
}
