package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters, exposed on /metrics alongside the gin request metrics.
var (
	DialogueTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_dialogue_turns_total",
		Help: "Completed dialogue turns (assistant reply appended).",
	})

	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_generation_failures_total",
		Help: "Turns that failed at the text generator and left a pending reply.",
	})

	ContentUnlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_content_unlocks_total",
		Help: "Successful content unlocks.",
	})

	GemsSpent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyforge_gems_spent_total",
		Help: "Total gems spent through the ledger.",
	})
)
