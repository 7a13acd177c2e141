package models

// ReminderOutcome - результат обработки одной заявки планировщиком.
type ReminderOutcome string

const (
	OutcomeSent            ReminderOutcome = "sent"
	OutcomeSkippedNoConfig ReminderOutcome = "skipped-no-config"
	OutcomeFailedConfig    ReminderOutcome = "failed-config"
	OutcomeFailedTransport ReminderOutcome = "failed-transport"
	OutcomeFailedStore     ReminderOutcome = "failed-store"
)

// ReminderResult - строка отчёта по заявке.
type ReminderResult struct {
	BidID   string          `json:"bidId"`
	Outcome ReminderOutcome `json:"outcome"`
	Error   string          `json:"error,omitempty"`
}

// ReminderReport - отчёт одного запуска планировщика.
type ReminderReport struct {
	TargetDate  string           `json:"targetDate"`
	WindowStart string           `json:"windowStart"`
	Found       int              `json:"found"`
	Sent        int              `json:"sent"`
	Results     []ReminderResult `json:"results"`
	// Error заполнен, если проход прерван: Results содержит уже обработанные заявки.
	Error string `json:"error,omitempty"`
}
