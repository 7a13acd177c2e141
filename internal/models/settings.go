package models

import "time"

// Settings - настройки консультанта: почтовый сервер и шаблоны писем.
type Settings struct {
	OwnerID         string    `json:"ownerId"`
	SMTPHost        string    `json:"smtpHost"`
	SMTPPort        int       `json:"smtpPort"`
	SMTPUser        string    `json:"smtpUser"`
	SMTPPass        string    `json:"smtpPass,omitempty"`
	SenderName      string    `json:"senderName"`
	ReminderSubject string    `json:"reminderSubject"`
	ReminderBody    string    `json:"reminderBody"`
	SummarySubject  string    `json:"summarySubject"`
	SummaryBody     string    `json:"summaryBody"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Masked возвращает копию без пароля SMTP.
func (s Settings) Masked() Settings {
	if s.SMTPPass != "" {
		s.SMTPPass = "********"
	}
	return s
}
