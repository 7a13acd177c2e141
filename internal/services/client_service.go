package services

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/repository"
	"github.com/senyabanana/bid-tracker/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientService - клиенты консультанта и их доступ к порталу.
type ClientService struct {
	Repo repository.ClientRepository
	Now  func() time.Time
}

// NewClientService создаёт новый экземпляр ClientService.
func NewClientService(repo repository.ClientRepository) *ClientService {
	return &ClientService{Repo: repo, Now: time.Now}
}

// CreateClient создаёт клиента. Новый клиент активен.
func (s *ClientService) CreateClient(ctx context.Context, ownerID string, req models.ClientRequest) (*models.Client, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "client name is required")
	}
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}

	client := models.Client{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(req.Name),
		Company:        strings.TrimSpace(req.Company),
		Email:          strings.TrimSpace(req.Email),
		ContractValue:  req.ContractValue,
		CommissionRate: decimal.Zero,
		Active:         true,
		CreatedAt:      s.Now().UTC(),
	}
	if req.CommissionRate != nil {
		client.CommissionRate = *req.CommissionRate
	}
	return s.Repo.CreateClient(ctx, client)
}

// ListClients возвращает клиентов консультанта.
func (s *ClientService) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	return s.Repo.ListClients(ctx, ownerID)
}

// GetClient возвращает клиента, если он принадлежит консультанту.
func (s *ClientService) GetClient(ctx context.Context, ownerID, clientID string) (*models.Client, error) {
	if !utils.ValidUUID(clientID) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "client not found")
	}
	client, err := s.Repo.GetClient(ctx, clientID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && client.OwnerID != ownerID) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "client not found")
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateClient меняет переданные поля клиента.
func (s *ClientService) UpdateClient(ctx context.Context, ownerID, clientID string, req models.ClientRequest) (*models.Client, error) {
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}
	return s.modify(ctx, ownerID, clientID, func(c *models.Client) {
		if name := strings.TrimSpace(req.Name); name != "" {
			c.Name = name
		}
		if company := strings.TrimSpace(req.Company); company != "" {
			c.Company = company
		}
		if email := strings.TrimSpace(req.Email); email != "" {
			c.Email = email
		}
		if req.ContractValue.Valid {
			c.ContractValue = req.ContractValue
		}
		if req.CommissionRate != nil {
			c.CommissionRate = *req.CommissionRate
		}
	})
}

// SetActive включает или приостанавливает контракт клиента.
func (s *ClientService) SetActive(ctx context.Context, ownerID, clientID string, active bool) (*models.Client, error) {
	return s.modify(ctx, ownerID, clientID, func(c *models.Client) {
		c.Active = active
	})
}

// RotateToken выдаёт клиенту новый токен портала; старая ссылка перестаёт работать.
func (s *ClientService) RotateToken(ctx context.Context, ownerID, clientID string) (*models.Client, error) {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return s.modify(ctx, ownerID, clientID, func(c *models.Client) {
		c.AccessToken = &token
	})
}

// LinkPortalUser привязывает пользователя провайдера к клиенту. Пустой ID отвязывает.
func (s *ClientService) LinkPortalUser(ctx context.Context, ownerID, clientID, authUserID string) (*models.Client, error) {
	authUserID = strings.TrimSpace(authUserID)
	client, err := s.modify(ctx, ownerID, clientID, func(c *models.Client) {
		if authUserID == "" {
			c.AuthUserID = nil
			return
		}
		c.AuthUserID = &authUserID
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, models.NewErrorResponse(http.StatusConflict, "portal user is already linked to another client")
	}
	return client, err
}

// DeleteClient удаляет клиента без заявок.
func (s *ClientService) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	if !utils.ValidUUID(clientID) {
		return models.NewErrorResponse(http.StatusNotFound, "client not found")
	}
	err := s.Repo.DeleteClient(ctx, ownerID, clientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.NewErrorResponse(http.StatusNotFound, "client not found")
	case errors.Is(err, repository.ErrInUse):
		return models.NewErrorResponse(http.StatusConflict, "client has bids and cannot be deleted")
	}
	return err
}

func (s *ClientService) modify(ctx context.Context, ownerID, clientID string, change func(*models.Client)) (*models.Client, error) {
	client, err := s.GetClient(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}
	change(client)
	return s.Repo.UpdateClient(ctx, *client)
}

func validateClientRequest(req models.ClientRequest) error {
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return models.NewErrorResponse(http.StatusBadRequest, "invalid client e-mail")
		}
	}
	if req.CommissionRate != nil && (req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(decimal.NewFromInt(100))) {
		return models.NewErrorResponse(http.StatusBadRequest, "commission rate must be between 0 and 100")
	}
	if req.ContractValue.Valid && req.ContractValue.Decimal.IsNegative() {
		return models.NewErrorResponse(http.StatusBadRequest, "contract value must not be negative")
	}
	return nil
}
