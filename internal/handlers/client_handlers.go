package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// ClientService - операции консультанта с клиентами.
type ClientService interface {
	CreateClient(ctx context.Context, ownerID string, req models.ClientRequest) (*models.Client, error)
	ListClients(ctx context.Context, ownerID string) ([]models.Client, error)
	GetClient(ctx context.Context, ownerID, clientID string) (*models.Client, error)
	UpdateClient(ctx context.Context, ownerID, clientID string, req models.ClientRequest) (*models.Client, error)
	SetActive(ctx context.Context, ownerID, clientID string, active bool) (*models.Client, error)
	RotateToken(ctx context.Context, ownerID, clientID string) (*models.Client, error)
	LinkPortalUser(ctx context.Context, ownerID, clientID, authUserID string) (*models.Client, error)
	DeleteClient(ctx context.Context, ownerID, clientID string) error
}

// ClientHandler - структура для обработки HTTP-запросов по клиентам.
type ClientHandler struct {
	Service ClientService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewClientHandler создает новый экземпляр ClientHandler.
func NewClientHandler(service ClientService, logger *log.Logger, timeout time.Duration) *ClientHandler {
	return &ClientHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateClient обрабатывает запросы для создания клиента.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var clientReq models.ClientRequest
	if !decodeBody(w, r, &clientReq) {
		return
	}

	client, err := h.Service.CreateClient(ctx, ownerID, clientReq)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to create client")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// ListClients обрабатывает запросы для получения списка клиентов.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	clients, err := h.Service.ListClients(ctx, ownerID)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to retrieve clients")
		return
	}
	respond(w, h.Logger, http.StatusOK, clients)
}

// GetClient обрабатывает запросы для получения клиента.
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	client, err := h.Service.GetClient(ctx, ownerID, r.PathValue("clientId"))
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to retrieve client")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// EditClient обрабатывает запросы для редактирования клиента.
func (h *ClientHandler) EditClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var clientReq models.ClientRequest
	if !decodeBody(w, r, &clientReq) {
		return
	}

	client, err := h.Service.UpdateClient(ctx, ownerID, r.PathValue("clientId"), clientReq)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to edit client")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// SetActive обрабатывает запросы для включения и приостановки контракта.
func (h *ClientHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	active, err := strconv.ParseBool(r.URL.Query().Get("active"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "active must be true or false")
		return
	}

	client, err := h.Service.SetActive(ctx, ownerID, r.PathValue("clientId"), active)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to update client")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// RotateToken обрабатывает запросы для выпуска новой ссылки портала.
func (h *ClientHandler) RotateToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	client, err := h.Service.RotateToken(ctx, ownerID, r.PathValue("clientId"))
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to rotate access token")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// LinkPortalUser обрабатывает запросы для привязки пользователя портала.
func (h *ClientHandler) LinkPortalUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.PortalUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	client, err := h.Service.LinkPortalUser(ctx, ownerID, r.PathValue("clientId"), req.AuthUserID)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to link portal user")
		return
	}
	respond(w, h.Logger, http.StatusOK, client)
}

// DeleteClient обрабатывает запросы для удаления клиента.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteClient(ctx, ownerID, r.PathValue("clientId")); err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
