package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// SettingsService - настройки почты и шаблонов консультанта.
type SettingsService interface {
	Get(ctx context.Context, ownerID string) (*models.Settings, error)
	Save(ctx context.Context, ownerID string, req models.Settings) (*models.Settings, error)
}

// SettingsHandler - структура для обработки HTTP-запросов по настройкам.
type SettingsHandler struct {
	Service SettingsService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewSettingsHandler создает новый экземпляр SettingsHandler.
func NewSettingsHandler(service SettingsService, logger *log.Logger, timeout time.Duration) *SettingsHandler {
	return &SettingsHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetSettings возвращает настройки со скрытым паролем.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	settings, err := h.Service.Get(ctx, ownerID)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to load settings")
		return
	}
	respond(w, h.Logger, http.StatusOK, settings)
}

// SaveSettings создаёт или заменяет настройки.
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.Settings
	if !decodeBody(w, r, &req) {
		return
	}

	settings, err := h.Service.Save(ctx, ownerID, req)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to save settings")
		return
	}
	respond(w, h.Logger, http.StatusOK, settings)
}
