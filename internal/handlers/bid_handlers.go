package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// maxUploadSize - предельный размер файла вложения.
const maxUploadSize = 20 << 20

// BidService - операции консультанта с заявками.
type BidService interface {
	CreateBid(ctx context.Context, ownerID string, req models.BidRequest) (*models.Bid, error)
	ListBids(ctx context.Context, ownerID, status, limitStr, offsetStr string) ([]models.Bid, error)
	Stats(ctx context.Context, ownerID string) (*models.BidStats, error)
	GetBid(ctx context.Context, ownerID, bidID string) (*models.Bid, error)
	EditBid(ctx context.Context, ownerID, bidID string, req models.BidRequest) (*models.Bid, error)
	SetStatus(ctx context.Context, ownerID, bidID, status string) (*models.Bid, error)
	SetSettlement(ctx context.Context, ownerID, bidID, state string) (*models.Bid, error)
	AddAttachment(ctx context.Context, ownerID, bidID, filename, contentType string, body io.Reader) (*models.Bid, error)
	SendSummary(ctx context.Context, ownerID, bidID string) (*models.Bid, error)
	DeleteBid(ctx context.Context, ownerID, bidID string) error
}

// BidHandler - структура для обработки HTTP-запросов по заявкам.
type BidHandler struct {
	Service BidService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewBidHandler создает новый экземпляр BidHandler.
func NewBidHandler(service BidService, logger *log.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateBid обрабатывает запросы для создания заявки.
func (h *BidHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var bidReq models.BidRequest
	if !decodeBody(w, r, &bidReq) {
		return
	}

	bid, err := h.Service.CreateBid(ctx, ownerID, bidReq)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to create bid")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// ListBids обрабатывает запросы для получения заявок консультанта.
func (h *BidHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	bids, err := h.Service.ListBids(ctx, ownerID, status, limitStr, offsetStr)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to retrieve bids")
		return
	}
	respond(w, h.Logger, http.StatusOK, bids)
}

// Stats обрабатывает запросы для сводки дашборда.
func (h *BidHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(ctx, ownerID)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to compute bid stats")
		return
	}
	respond(w, h.Logger, http.StatusOK, stats)
}

// GetBid обрабатывает запросы для получения заявки.
func (h *BidHandler) GetBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	bid, err := h.Service.GetBid(ctx, ownerID, r.PathValue("bidId"))
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to retrieve bid")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// EditBid обрабатывает запросы для редактирования заявки.
func (h *BidHandler) EditBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	var bidReq models.BidRequest
	if !decodeBody(w, r, &bidReq) {
		return
	}

	bid, err := h.Service.EditBid(ctx, ownerID, r.PathValue("bidId"), bidReq)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to edit bid")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// UpdateBidStatus обрабатывает запросы для перемещения заявки по доске.
func (h *BidHandler) UpdateBidStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")

	bid, err := h.Service.SetStatus(ctx, ownerID, r.PathValue("bidId"), status)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to update bid status")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// UpdateSettlement обрабатывает запросы для изменения статуса расчёта.
func (h *BidHandler) UpdateSettlement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	state := r.URL.Query().Get("state")

	bid, err := h.Service.SetSettlement(ctx, ownerID, r.PathValue("bidId"), state)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to update settlement")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// UploadAttachment принимает multipart-форму с полем file и прикрепляет файл к заявке.
func (h *BidHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.SendErrorResponse(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "form field file is required")
		return
	}
	defer file.Close()

	bid, err := h.Service.AddAttachment(ctx, ownerID, r.PathValue("bidId"), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to attach file")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// SendSummary обрабатывает запросы на отправку резюме заявки клиенту.
func (h *BidHandler) SendSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	bid, err := h.Service.SendSummary(ctx, ownerID, r.PathValue("bidId"))
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to send summary")
		return
	}
	respond(w, h.Logger, http.StatusOK, bid)
}

// DeleteBid обрабатывает запросы для удаления заявки.
func (h *BidHandler) DeleteBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteBid(ctx, ownerID, r.PathValue("bidId")); err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to delete bid")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
