package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/lifecycle"
	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/notify"
	"github.com/senyabanana/bid-tracker/internal/repository"
	"github.com/senyabanana/bid-tracker/internal/utils"

	"github.com/shopspring/decimal"
)

// urgentDays - заявка срочная, если до срока не больше стольких дней.
const urgentDays = 3

// SettingsResolver возвращает настройки консультанта или nil.
type SettingsResolver interface {
	Resolve(ctx context.Context, ownerID string) (*models.Settings, error)
}

// Mailer отправляет письмо через почтовый сервер консультанта.
type Mailer interface {
	Send(ctx context.Context, settings *models.Settings, purpose string, msg notify.Message) error
}

// AttachmentUploader сохраняет файл заявки в объектном хранилище.
type AttachmentUploader interface {
	Upload(ctx context.Context, ownerID, bidID, filename, contentType string, body io.Reader) (models.Attachment, error)
}

// BidService - заявки консультанта: доска, ручные переходы, вложения и резюме клиенту.
type BidService struct {
	Repo     repository.BidRepository
	Clients  repository.ClientRepository
	Settings SettingsResolver
	Mailer   Mailer
	Uploader AttachmentUploader
	Location *time.Location
	Now      func() time.Time
}

// NewBidService создает новый экземпляр BidService. uploader может быть nil,
// loc - часовой пояс для "сегодня" в статистике (nil - UTC).
func NewBidService(repo repository.BidRepository, clients repository.ClientRepository, settings SettingsResolver, mailer Mailer, uploader AttachmentUploader, loc *time.Location) *BidService {
	if loc == nil {
		loc = time.UTC
	}
	return &BidService{
		Repo:     repo,
		Clients:  clients,
		Settings: settings,
		Mailer:   mailer,
		Uploader: uploader,
		Location: loc,
		Now:      time.Now,
	}
}

// CreateBid создаёт заявку в статусе Pending. Ставка комиссии берётся у клиента, если не передана.
func (s *BidService) CreateBid(ctx context.Context, ownerID string, req models.BidRequest) (*models.Bid, error) {
	if strings.TrimSpace(req.Title) == "" || req.Deadline == "" || req.ClientID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required fields: title, deadline, clientId")
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(req); err != nil {
		return nil, err
	}
	client, err := s.ownedClient(ctx, ownerID, req.ClientID)
	if err != nil {
		return nil, err
	}

	bid := models.Bid{
		OwnerID:         ownerID,
		ClientID:        client.ID,
		Title:           strings.TrimSpace(req.Title),
		Deadline:        deadline,
		Attachments:     req.Attachments,
		Status:          models.StatusPending,
		Decision:        models.DecisionPending,
		FinalValue:      req.FinalValue,
		CommissionRate:  req.CommissionRate,
		FinancialStatus: models.SettlementAwaitingInvoice,
		CreatedAt:       s.Now().UTC(),
	}
	if req.LinkDocs != nil {
		bid.LinkDocs = strings.TrimSpace(*req.LinkDocs)
	}
	if !bid.CommissionRate.Valid {
		bid.CommissionRate = decimal.NewNullDecimal(client.CommissionRate)
	}
	return s.Repo.CreateBid(ctx, bid)
}

// ListBids возвращает заявки консультанта, при необходимости только в статусе status.
func (s *BidService) ListBids(ctx context.Context, ownerID, status, limitStr, offsetStr string) ([]models.Bid, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	filter := repository.BidFilter{OwnerID: ownerID, Limit: limit, Offset: offset}
	if status != "" {
		filter.Status = models.BidStatus(status)
		if !filter.Status.Valid() {
			return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown bid status: %s", status))
		}
	}
	return s.Repo.ListBids(ctx, filter)
}

// GetBid возвращает заявку консультанта.
func (s *BidService) GetBid(ctx context.Context, ownerID, bidID string) (*models.Bid, error) {
	if !utils.ValidUUID(bidID) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	bid, err := s.Repo.GetBid(ctx, bidID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && bid.OwnerID != ownerID) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// EditBid меняет переданные поля. Смена клиента заново берёт его ставку, если ставка не передана.
func (s *BidService) EditBid(ctx context.Context, ownerID, bidID string, req models.BidRequest) (*models.Bid, error) {
	var deadline time.Time
	if req.Deadline != "" {
		parsed, err := parseDeadline(req.Deadline)
		if err != nil {
			return nil, err
		}
		deadline = parsed
	}
	if err := validateAmounts(req); err != nil {
		return nil, err
	}
	var client *models.Client
	if req.ClientID != "" {
		c, err := s.ownedClient(ctx, ownerID, req.ClientID)
		if err != nil {
			return nil, err
		}
		client = c
	}

	return s.mutate(ctx, ownerID, bidID, func(bid models.Bid) (models.Bid, error) {
		if title := strings.TrimSpace(req.Title); title != "" {
			bid.Title = title
		}
		if !deadline.IsZero() {
			bid.Deadline = deadline
		}
		if req.LinkDocs != nil {
			bid.LinkDocs = strings.TrimSpace(*req.LinkDocs)
		}
		if req.Attachments != nil {
			bid.Attachments = req.Attachments
		}
		if req.FinalValue.Valid {
			bid.FinalValue = req.FinalValue
		}
		if client != nil && client.ID != bid.ClientID {
			bid.ClientID = client.ID
			bid.ClientName = client.Name
			bid.CommissionRate = decimal.NewNullDecimal(client.CommissionRate)
		}
		if req.CommissionRate.Valid {
			bid.CommissionRate = req.CommissionRate
		}
		return bid, nil
	})
}

// SetStatus переносит заявку в другую колонку доски.
func (s *BidService) SetStatus(ctx context.Context, ownerID, bidID, status string) (*models.Bid, error) {
	target := models.BidStatus(status)
	if !target.Valid() {
		return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown bid status: %s", status))
	}
	return s.mutate(ctx, ownerID, bidID, func(bid models.Bid) (models.Bid, error) {
		next, err := lifecycle.Transition(bid, lifecycle.Manual(target, s.Now().UTC()))
		if err != nil {
			return bid, models.WrapErrorResponse(http.StatusBadRequest, "invalid status transition", err)
		}
		return next, nil
	})
}

// SetSettlement меняет статус расчёта по комиссии.
func (s *BidService) SetSettlement(ctx context.Context, ownerID, bidID, state string) (*models.Bid, error) {
	settlement := models.FinancialStatus(state)
	if !settlement.Valid() {
		return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown financial status: %s", state))
	}
	return s.mutate(ctx, ownerID, bidID, func(bid models.Bid) (models.Bid, error) {
		bid.FinancialStatus = settlement
		return bid, nil
	})
}

// AddAttachment загружает файл в хранилище и добавляет его к заявке.
func (s *BidService) AddAttachment(ctx context.Context, ownerID, bidID, filename, contentType string, body io.Reader) (*models.Bid, error) {
	if s.Uploader == nil {
		return nil, models.NewErrorResponse(http.StatusServiceUnavailable, "attachment storage is not configured")
	}
	if _, err := s.GetBid(ctx, ownerID, bidID); err != nil {
		return nil, err
	}
	attachment, err := s.Uploader.Upload(ctx, ownerID, bidID, filename, contentType, body)
	if err != nil {
		return nil, models.WrapErrorResponse(http.StatusBadGateway, "failed to store attachment", err)
	}
	return s.mutate(ctx, ownerID, bidID, func(bid models.Bid) (models.Bid, error) {
		bid.Attachments = append(append([]models.Attachment{}, bid.Attachments...), attachment)
		return bid, nil
	})
}

// SendSummary отправляет клиенту резюме заявки со списком документов.
func (s *BidService) SendSummary(ctx context.Context, ownerID, bidID string) (*models.Bid, error) {
	bid, err := s.GetBid(ctx, ownerID, bidID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "mail settings are not configured")
	}
	client, err := s.Clients.GetClient(ctx, bid.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Email == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "client has no e-mail address")
	}

	msg, err := notify.BuildSummary(*settings, *client, *bid)
	if err != nil {
		return nil, err
	}
	if err := s.Mailer.Send(ctx, settings, "summary", msg); err != nil {
		var cfgErr *notify.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, models.WrapErrorResponse(http.StatusBadRequest, cfgErr.Error(), err)
		}
		return nil, models.WrapErrorResponse(http.StatusBadGateway, "failed to send summary e-mail", err)
	}

	now := s.Now().UTC()
	if err := s.Repo.MarkSummarySent(ctx, bid.ID, now); err != nil {
		return nil, err
	}
	bid.SummarySentAt = &now
	return bid, nil
}

// DeleteBid удаляет заявку консультанта.
func (s *BidService) DeleteBid(ctx context.Context, ownerID, bidID string) error {
	if !utils.ValidUUID(bidID) {
		return models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	err := s.Repo.DeleteBid(ctx, ownerID, bidID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	return err
}

// Stats считает заявки по статусам и выбирает срочные: незавершённые со сроком в ближайшие дни.
func (s *BidService) Stats(ctx context.Context, ownerID string) (*models.BidStats, error) {
	bids, err := s.Repo.ListBids(ctx, repository.BidFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	stats := &models.BidStats{
		Total:    len(bids),
		ByStatus: make(map[models.BidStatus]int, len(models.BidStatuses)),
		Urgent:   []models.Bid{},
	}
	for _, status := range models.BidStatuses {
		stats.ByStatus[status] = 0
	}

	y, m, d := s.Now().In(s.Location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	horizon := today.AddDate(0, 0, urgentDays)
	for _, bid := range bids {
		stats.ByStatus[bid.Status]++
		if !bid.Status.Terminal() && !bid.Deadline.Before(today) && !bid.Deadline.After(horizon) {
			stats.Urgent = append(stats.Urgent, bid)
		}
	}
	return stats, nil
}

// mutate читает заявку, применяет change и записывает результат условной записью.
// При конфликте версий перечитывает заявку и повторяет один раз.
func (s *BidService) mutate(ctx context.Context, ownerID, bidID string, change func(models.Bid) (models.Bid, error)) (*models.Bid, error) {
	for attempt := 0; attempt < 2; attempt++ {
		bid, err := s.GetBid(ctx, ownerID, bidID)
		if err != nil {
			return nil, err
		}
		next, err := change(*bid)
		if err != nil {
			return nil, err
		}
		updated, err := s.Repo.UpdateBid(ctx, next)
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, models.WrapErrorResponse(http.StatusConflict, "bid was modified concurrently, retry", repository.ErrConcurrentUpdate)
}

func (s *BidService) ownedClient(ctx context.Context, ownerID, clientID string) (*models.Client, error) {
	if !utils.ValidUUID(clientID) {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "client not found")
	}
	client, err := s.Clients.GetClient(ctx, clientID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && client.OwnerID != ownerID) {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "client not found")
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func parseDeadline(value string) (time.Time, error) {
	deadline, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, models.NewErrorResponse(http.StatusBadRequest, "deadline must be a date in YYYY-MM-DD format")
	}
	return deadline, nil
}

func validateAmounts(req models.BidRequest) error {
	if req.FinalValue.Valid && req.FinalValue.Decimal.IsNegative() {
		return models.NewErrorResponse(http.StatusBadRequest, "final value must not be negative")
	}
	if req.CommissionRate.Valid && (req.CommissionRate.Decimal.IsNegative() || req.CommissionRate.Decimal.GreaterThan(decimal.NewFromInt(100))) {
		return models.NewErrorResponse(http.StatusBadRequest, "commission rate must be between 0 and 100")
	}
	return nil
}
