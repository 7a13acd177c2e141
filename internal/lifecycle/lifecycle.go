// Package lifecycle описывает статусы заявки и допустимые переходы между ними.
//
// Переходы применяются к копии заявки: Transition никогда не меняет аргумент,
// поэтому вызывающий код может безопасно отбросить результат при ошибке записи.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
)

// ErrInvalidTransition возвращается, если триггер недопустим для текущего статуса.
var ErrInvalidTransition = errors.New("invalid transition")

// TriggerKind - тип события, меняющего статус.
type TriggerKind string

const (
	ReminderSent       TriggerKind = "ReminderSent"
	ClientParticipates TriggerKind = "ClientParticipates"
	ClientDiscards     TriggerKind = "ClientDiscards"
	ManualSetStatus    TriggerKind = "ManualSetStatus"
)

// Trigger - событие с моментом, когда оно произошло.
type Trigger struct {
	Kind   TriggerKind
	Target models.BidStatus // только для ManualSetStatus
	At     time.Time
}

// Reminder создаёт триггер отправленного напоминания.
func Reminder(at time.Time) Trigger {
	return Trigger{Kind: ReminderSent, At: at}
}

// Decision создаёт триггер по решению клиента.
func Decision(decision models.BidDecision, at time.Time) (Trigger, error) {
	switch decision {
	case models.DecisionParticipate:
		return Trigger{Kind: ClientParticipates, At: at}, nil
	case models.DecisionDiscard:
		return Trigger{Kind: ClientDiscards, At: at}, nil
	}
	return Trigger{}, fmt.Errorf("unknown decision %q", decision)
}

// Manual создаёт триггер ручного перемещения по доске.
func Manual(target models.BidStatus, at time.Time) Trigger {
	return Trigger{Kind: ManualSetStatus, Target: target, At: at}
}

// automatic - таблица переходов для автоматических и клиентских триггеров.
var automatic = map[TriggerKind]struct {
	from models.BidStatus
	to   models.BidStatus
}{
	ReminderSent:       {from: models.StatusPending, to: models.StatusWaitingClient},
	ClientParticipates: {from: models.StatusWaitingClient, to: models.StatusWaitingBid},
	ClientDiscards:     {from: models.StatusWaitingClient, to: models.StatusDiscarded},
}

// Transition применяет триггер к заявке и возвращает обновлённую копию.
func Transition(bid models.Bid, trigger Trigger) (models.Bid, error) {
	if trigger.Kind == ManualSetStatus {
		return manual(bid, trigger)
	}

	rule, ok := automatic[trigger.Kind]
	if !ok {
		return bid, fmt.Errorf("%w: unknown trigger %q", ErrInvalidTransition, trigger.Kind)
	}
	if bid.Status != rule.from {
		return bid, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, trigger.Kind, bid.Status)
	}

	next := bid
	next.Status = rule.to
	at := trigger.At

	switch trigger.Kind {
	case ReminderSent:
		next.Notified = true
		next.ReminderSentAt = &at
	case ClientParticipates:
		next.Decision = models.DecisionParticipate
		next.DecisionAt = &at
	case ClientDiscards:
		next.Decision = models.DecisionDiscard
		next.DecisionAt = &at
	}
	return next, nil
}

// manual - ручной путь разрешён из любого статуса в любой, включая повторное
// открытие завершённых заявок. Решение клиента подстраивается так, чтобы
// Won/Lost никогда не оставались без решения.
func manual(bid models.Bid, trigger Trigger) (models.Bid, error) {
	if !trigger.Target.Valid() {
		return bid, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, trigger.Target)
	}
	if bid.Status == trigger.Target {
		return bid, nil
	}

	next := bid
	next.Status = trigger.Target
	at := trigger.At

	switch trigger.Target {
	case models.StatusPending, models.StatusWaitingClient:
		next.Decision = models.DecisionPending
		next.DecisionAt = nil
	case models.StatusWaitingBid, models.StatusWon, models.StatusLost:
		if next.Decision != models.DecisionParticipate {
			next.Decision = models.DecisionParticipate
			next.DecisionAt = &at
		}
	case models.StatusDiscarded:
		if next.Decision != models.DecisionDiscard {
			next.Decision = models.DecisionDiscard
			next.DecisionAt = &at
		}
	}
	return next, nil
}

// Allowed перечисляет триггеры, допустимые для статуса.
func Allowed(status models.BidStatus) []TriggerKind {
	kinds := []TriggerKind{}
	for _, kind := range []TriggerKind{ReminderSent, ClientParticipates, ClientDiscards} {
		if automatic[kind].from == status {
			kinds = append(kinds, kind)
		}
	}
	if status.Valid() {
		kinds = append(kinds, ManualSetStatus)
	}
	return kinds
}
