package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/repository"
)

const maskedSecret = "********"

// SettingsService - настройки почты и шаблонов консультанта.
type SettingsService struct {
	Repo repository.SettingsRepository
	Now  func() time.Time
}

// NewSettingsService создаёт новый экземпляр SettingsService.
func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{Repo: repo, Now: time.Now}
}

// Resolve возвращает настройки консультанта или nil, если он их не сохранял.
func (s *SettingsService) Resolve(ctx context.Context, ownerID string) (*models.Settings, error) {
	settings, err := s.Repo.GetSettings(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings for %s: %w", ownerID, err)
	}
	return settings, nil
}

// Get возвращает настройки для формы: пароль скрыт, отсутствующие настройки - пустые.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (*models.Settings, error) {
	settings, err := s.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &models.Settings{OwnerID: ownerID}, nil
	}
	masked := settings.Masked()
	return &masked, nil
}

// Save создаёт или заменяет настройки. Пустой или скрытый пароль сохраняет прежний.
func (s *SettingsService) Save(ctx context.Context, ownerID string, req models.Settings) (*models.Settings, error) {
	req.OwnerID = ownerID
	req.SMTPHost = strings.TrimSpace(req.SMTPHost)
	req.SMTPUser = strings.TrimSpace(req.SMTPUser)

	if req.SMTPPort < 0 || req.SMTPPort > 65535 {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "smtp port must be between 0 and 65535")
	}
	if req.SMTPUser != "" {
		if _, err := mail.ParseAddress(req.SMTPUser); err != nil {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "smtp user must be an e-mail address")
		}
	}

	if req.SMTPPass == "" || req.SMTPPass == maskedSecret {
		current, err := s.Resolve(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		req.SMTPPass = ""
		if current != nil {
			req.SMTPPass = current.SMTPPass
		}
	}
	req.UpdatedAt = s.Now().UTC()

	saved, err := s.Repo.UpsertSettings(ctx, req)
	if err != nil {
		return nil, err
	}
	masked := saved.Masked()
	return &masked, nil
}
