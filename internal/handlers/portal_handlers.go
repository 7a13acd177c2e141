package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// DecisionService - портал клиента: просмотр заявок и решения по ним.
type DecisionService interface {
	PortalForUser(ctx context.Context, authUserID string) (*models.PortalView, error)
	PortalForToken(ctx context.Context, token string) (*models.PortalView, error)
	DecideAsUser(ctx context.Context, authUserID, bidID string, decision models.BidDecision) (*models.PortalBid, error)
	DecideWithToken(ctx context.Context, token, bidID string, decision models.BidDecision) (*models.PortalBid, error)
}

// PortalHandler - структура для обработки HTTP-запросов портала клиента.
type PortalHandler struct {
	Service DecisionService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewPortalHandler создает новый экземпляр PortalHandler.
func NewPortalHandler(service DecisionService, logger *log.Logger, timeout time.Duration) *PortalHandler {
	return &PortalHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetPortal возвращает заявки клиента, вошедшего через провайдера.
func (h *PortalHandler) GetPortal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	userID, ok := subject(w, r)
	if !ok {
		return
	}

	view, err := h.Service.PortalForUser(ctx, userID)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to load portal")
		return
	}
	respond(w, h.Logger, http.StatusOK, view)
}

// GetPortalByToken возвращает заявки клиента по ссылке из письма.
func (h *PortalHandler) GetPortalByToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	view, err := h.Service.PortalForToken(ctx, r.PathValue("token"))
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to load portal")
		return
	}
	respond(w, h.Logger, http.StatusOK, view)
}

// SubmitDecision фиксирует решение клиента, вошедшего через провайдера.
func (h *PortalHandler) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	userID, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bid, err := h.Service.DecideAsUser(ctx, userID, r.PathValue("bidId"), req.Decision)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to submit decision")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// SubmitDecisionByToken фиксирует решение клиента, пришедшего по ссылке из письма.
func (h *PortalHandler) SubmitDecisionByToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bid, err := h.Service.DecideWithToken(ctx, r.PathValue("token"), r.PathValue("bidId"), req.Decision)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to submit decision")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}
