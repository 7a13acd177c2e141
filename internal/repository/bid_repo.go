package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/db"
	"github.com/senyabanana/bid-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BidRepository - интерфейс для работы с заявками.
type BidRepository interface {
	CreateBid(ctx context.Context, bid models.Bid) (*models.Bid, error)
	GetBid(ctx context.Context, bidID string) (*models.Bid, error)
	ListBids(ctx context.Context, filter BidFilter) ([]models.Bid, error)
	ListDueForReminder(ctx context.Context, after, until time.Time) ([]models.Bid, error)
	UpdateBid(ctx context.Context, bid models.Bid) (*models.Bid, error)
	MarkNotified(ctx context.Context, bidID string, at time.Time) error
	MarkSummarySent(ctx context.Context, bidID string, at time.Time) error
	DeleteBid(ctx context.Context, ownerID, bidID string) error
}

// BidFilter - условия выборки заявок. Пустые поля не фильтруют, Limit 0 - без ограничения.
type BidFilter struct {
	OwnerID  string
	ClientID string
	Status   models.BidStatus
	Limit    int
	Offset   int
}

const bidColumns = `b.id, b.owner_id, b.client_id, c.name, b.title, b.deadline, b.link_docs, b.attachments,
	b.status, b.decision, b.decision_at, b.notified, b.reminder_sent_at, b.summary_sent_at,
	b.final_value, b.commission_rate, b.financial_status, b.version, b.created_at`

// PostgresBidRepository - реализация BidRepository для базы данных.
type PostgresBidRepository struct {
	DB db.DBTX
}

// NewPostgresBidRepository создает новый экземпляр PostgresBidRepository.
func NewPostgresBidRepository(db db.DBTX) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

func scanBid(row pgx.Row) (*models.Bid, error) {
	var bid models.Bid
	err := row.Scan(
		&bid.ID,
		&bid.OwnerID,
		&bid.ClientID,
		&bid.ClientName,
		&bid.Title,
		&bid.Deadline,
		&bid.LinkDocs,
		&bid.Attachments,
		&bid.Status,
		&bid.Decision,
		&bid.DecisionAt,
		&bid.Notified,
		&bid.ReminderSentAt,
		&bid.SummarySentAt,
		&bid.FinalValue,
		&bid.CommissionRate,
		&bid.FinancialStatus,
		&bid.Version,
		&bid.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bid.Attachments == nil {
		bid.Attachments = []models.Attachment{}
	}
	return &bid, nil
}

func collectBids(rows pgx.Rows) ([]models.Bid, error) {
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	return bids, rows.Err()
}

func attachmentsOrEmpty(list []models.Attachment) []models.Attachment {
	if list == nil {
		return []models.Attachment{}
	}
	return list
}

// CreateBid сохраняет новую заявку со статусом Pending.
func (r *PostgresBidRepository) CreateBid(ctx context.Context, bid models.Bid) (*models.Bid, error) {
	if bid.ID == "" {
		bid.ID = uuid.New().String()
	}
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now().UTC()
	}
	insertQuery := `INSERT INTO bid (id, owner_id, client_id, title, deadline, link_docs, attachments, status, decision,
	                final_value, commission_rate, financial_status, version, created_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.OwnerID,
		bid.ClientID,
		bid.Title,
		bid.Deadline,
		bid.LinkDocs,
		attachmentsOrEmpty(bid.Attachments),
		bid.Status,
		bid.Decision,
		bid.FinalValue,
		bid.CommissionRate,
		bid.FinancialStatus,
		bid.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert bid: %w", translate(err))
	}
	return r.GetBid(ctx, bid.ID)
}

// GetBid возвращает заявку вместе с именем клиента.
func (r *PostgresBidRepository) GetBid(ctx context.Context, bidID string) (*models.Bid, error) {
	query := `SELECT ` + bidColumns + `
	          FROM bid b JOIN client c ON c.id = b.client_id
	          WHERE b.id = $1`
	bid, err := scanBid(r.DB.QueryRow(ctx, query, bidID))
	if err != nil {
		return nil, translate(err)
	}
	return bid, nil
}

// ListBids возвращает заявки по фильтру, ближайшие сроки первыми.
func (r *PostgresBidRepository) ListBids(ctx context.Context, filter BidFilter) ([]models.Bid, error) {
	var conditions []string
	var args []any
	argIndex := 1

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("b.owner_id = $%d", argIndex))
		args = append(args, filter.OwnerID)
		argIndex++
	}
	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("b.client_id = $%d", argIndex))
		args = append(args, filter.ClientID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	query := `SELECT ` + bidColumns + ` FROM bid b JOIN client c ON c.id = b.client_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY b.deadline, b.created_at"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return collectBids(rows)
}

// ListDueForReminder возвращает заявки всех консультантов, ожидающие напоминания,
// со сроком в полуинтервале (after, until].
func (r *PostgresBidRepository) ListDueForReminder(ctx context.Context, after, until time.Time) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + `
	          FROM bid b JOIN client c ON c.id = b.client_id
	          WHERE b.deadline > $1 AND b.deadline <= $2
	          AND b.notified = FALSE AND b.status = $3
	          ORDER BY b.deadline, b.created_at`
	rows, err := r.DB.Query(ctx, query, after, until, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list due bids: %w", err)
	}
	return collectBids(rows)
}

// UpdateBid записывает заявку, если её версия не изменилась с момента чтения.
// Флаг notified только устанавливается, сбросить его нельзя.
func (r *PostgresBidRepository) UpdateBid(ctx context.Context, bid models.Bid) (*models.Bid, error) {
	updateQuery := `
		UPDATE bid SET client_id = $3, title = $4, deadline = $5, link_docs = $6, attachments = $7,
		status = $8, decision = $9, decision_at = $10, notified = notified OR $11,
		reminder_sent_at = COALESCE(reminder_sent_at, $12), final_value = $13, commission_rate = $14,
		financial_status = $15, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.DB.Exec(
		ctx,
		updateQuery,
		bid.ID,
		bid.Version,
		bid.ClientID,
		bid.Title,
		bid.Deadline,
		bid.LinkDocs,
		attachmentsOrEmpty(bid.Attachments),
		bid.Status,
		bid.Decision,
		bid.DecisionAt,
		bid.Notified,
		bid.ReminderSentAt,
		bid.FinalValue,
		bid.CommissionRate,
		bid.FinancialStatus)
	if err != nil {
		return nil, fmt.Errorf("update bid: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConcurrentUpdate
	}
	return r.GetBid(ctx, bid.ID)
}

// MarkNotified отмечает, что напоминание ушло, не трогая статус.
func (r *PostgresBidRepository) MarkNotified(ctx context.Context, bidID string, at time.Time) error {
	query := `UPDATE bid SET notified = TRUE, reminder_sent_at = COALESCE(reminder_sent_at, $2), version = version + 1
	          WHERE id = $1`
	tag, err := r.DB.Exec(ctx, query, bidID, at)
	if err != nil {
		return fmt.Errorf("mark bid notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSummarySent запоминает время отправки резюме клиенту.
func (r *PostgresBidRepository) MarkSummarySent(ctx context.Context, bidID string, at time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE bid SET summary_sent_at = $2 WHERE id = $1`, bidID, at)
	if err != nil {
		return fmt.Errorf("mark summary sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBid удаляет заявку консультанта.
func (r *PostgresBidRepository) DeleteBid(ctx context.Context, ownerID, bidID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM bid WHERE id = $1 AND owner_id = $2`, bidID, ownerID)
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
