package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	remindersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtracker_reminders_total",
			Help: "Reminder outcomes per bid, by outcome.",
		},
		[]string{"outcome"},
	)

	schedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtracker_scheduler_runs_total",
			Help: "Reminder scheduler runs, by result.",
		},
		[]string{"result"},
	)

	schedulerCandidates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bidtracker_scheduler_candidates",
			Help: "Bids selected by the last scheduler run.",
		},
	)

	schedulerRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bidtracker_scheduler_run_duration_seconds",
			Help:    "Duration of reminder scheduler runs in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtracker_mail_dispatch_total",
			Help: "Mail dispatch attempts, by purpose and result.",
		},
		[]string{"purpose", "result"},
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtracker_client_decisions_total",
			Help: "Client decisions, by channel, decision and result.",
		},
		[]string{"channel", "decision", "result"},
	)
)

func init() {
	prometheus.MustRegister(Collectors()...)
}

// Collectors возвращает все метрики пакета.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		remindersTotal,
		schedulerRunsTotal,
		schedulerCandidates,
		schedulerRunDuration,
		dispatchTotal,
		decisionsTotal,
	}
}
