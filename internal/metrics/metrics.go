// Package metrics holds the Prometheus collectors for the registration
// workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kku_signups_total",
		Help: "Signup attempts by outcome.",
	}, []string{"outcome"})

	OrphansRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kku_orphans_removed_total",
		Help: "Orphaned accounts removed, by kind (principal, user).",
	}, []string{"kind"})

	CompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kku_signup_compensations_total",
		Help: "Principals deleted because the user row could not be written.",
	})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kku_registration_submissions_total",
		Help: "Registration request submissions by outcome.",
	}, []string{"outcome"})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kku_registration_decisions_total",
		Help: "Registration request resolutions by outcome.",
	}, []string{"outcome"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kku_notification_failures_total",
		Help: "Notifications that could not be written.",
	})

	DecisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kku_registration_decision_duration_ms",
		Help:    "Latency of resolving a registration request in milliseconds.",
		Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
	})
)
