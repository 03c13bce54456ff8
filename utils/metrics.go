package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// XPGranted counts XP actually applied after the daily soft cap, by source and category.
	XPGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xp_granted_total",
		Help: "XP applied to users after soft cap.",
	}, []string{"source", "category"})

	// LevelUps counts level transitions.
	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xp_level_ups_total",
		Help: "Number of level-ups granted.",
	})

	// SubmissionDecisions counts approval workflow outcomes.
	SubmissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_decisions_total",
		Help: "Submission decisions by outcome.",
	}, []string{"outcome"})
)
