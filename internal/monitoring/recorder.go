package monitoring

import (
	"errors"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
)

// RecordReminder учитывает исход обработки одной заявки.
func RecordReminder(outcome models.ReminderOutcome) {
	remindersTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordSchedulerRun учитывает запуск планировщика.
func RecordSchedulerRun(found int, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	schedulerRunsTotal.WithLabelValues(result).Inc()
	schedulerCandidates.Set(float64(found))
	schedulerRunDuration.Observe(duration.Seconds())
}

// RecordDispatch учитывает попытку отправки письма.
func RecordDispatch(purpose string, err error) {
	dispatchTotal.WithLabelValues(purpose, dispatchResult(err)).Inc()
}

// RecordDecision учитывает решение клиента. Значение решения приходит от
// клиента, поэтому всё, кроме Participate и Discard, пишется как invalid.
func RecordDecision(channel string, decision models.BidDecision, err error) {
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	decisionsTotal.WithLabelValues(channel, decisionLabel(decision), result).Inc()
}

func decisionLabel(decision models.BidDecision) string {
	switch decision {
	case models.DecisionParticipate, models.DecisionDiscard:
		return string(decision)
	default:
		return "invalid"
	}
}

type configError interface {
	ConfigReason() string
}

func dispatchResult(err error) string {
	if err == nil {
		return "success"
	}
	var cfg configError
	if errors.As(err, &cfg) {
		return "config_error"
	}
	return "transport_error"
}
