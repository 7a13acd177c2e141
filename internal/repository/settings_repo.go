package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/bid-tracker/internal/db"
	"github.com/senyabanana/bid-tracker/internal/models"
)

// SettingsRepository - хранение настроек консультанта, одна запись на консультанта.
type SettingsRepository interface {
	GetSettings(ctx context.Context, ownerID string) (*models.Settings, error)
	UpsertSettings(ctx context.Context, settings models.Settings) (*models.Settings, error)
}

const settingsColumns = `owner_id, smtp_host, smtp_port, smtp_user, smtp_pass, sender_name,
	reminder_subject, reminder_body, summary_subject, summary_body, updated_at`

// PostgresSettingsRepository - реализация SettingsRepository для базы данных.
type PostgresSettingsRepository struct {
	DB db.DBTX
}

// NewPostgresSettingsRepository создаёт новый экземпляр PostgresSettingsRepository.
func NewPostgresSettingsRepository(db db.DBTX) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{DB: db}
}

// GetSettings возвращает настройки или ErrNotFound, если консультант их не сохранял.
func (r *PostgresSettingsRepository) GetSettings(ctx context.Context, ownerID string) (*models.Settings, error) {
	var s models.Settings
	err := r.DB.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE owner_id = $1`, ownerID).Scan(
		&s.OwnerID,
		&s.SMTPHost,
		&s.SMTPPort,
		&s.SMTPUser,
		&s.SMTPPass,
		&s.SenderName,
		&s.ReminderSubject,
		&s.ReminderBody,
		&s.SummarySubject,
		&s.SummaryBody,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// UpsertSettings создаёт или заменяет настройки консультанта.
func (r *PostgresSettingsRepository) UpsertSettings(ctx context.Context, settings models.Settings) (*models.Settings, error) {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO settings (` + settingsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_id) DO UPDATE SET
			smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port,
			smtp_user = EXCLUDED.smtp_user,
			smtp_pass = EXCLUDED.smtp_pass,
			sender_name = EXCLUDED.sender_name,
			reminder_subject = EXCLUDED.reminder_subject,
			reminder_body = EXCLUDED.reminder_body,
			summary_subject = EXCLUDED.summary_subject,
			summary_body = EXCLUDED.summary_body,
			updated_at = EXCLUDED.updated_at`
	_, err := r.DB.Exec(
		ctx,
		query,
		settings.OwnerID,
		settings.SMTPHost,
		settings.SMTPPort,
		settings.SMTPUser,
		settings.SMTPPass,
		settings.SenderName,
		settings.ReminderSubject,
		settings.ReminderBody,
		settings.SummarySubject,
		settings.SummaryBody,
		settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return &settings, nil
}
