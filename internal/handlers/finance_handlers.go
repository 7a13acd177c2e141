package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// FinanceService - финансовая сводка консультанта.
type FinanceService interface {
	Summary(ctx context.Context, ownerID, monthStr, monthsStr string) (*models.FinanceSummary, error)
}

// FinanceHandler - структура для обработки HTTP-запросов финансовой сводки.
type FinanceHandler struct {
	Service FinanceService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewFinanceHandler создает новый экземпляр FinanceHandler.
func NewFinanceHandler(service FinanceService, logger *log.Logger, timeout time.Duration) *FinanceHandler {
	return &FinanceHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetSummary обрабатывает GET /api/finance/summary?month=YYYY-MM&months=N.
func (h *FinanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ownerID, ok := subject(w, r)
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")
	months := r.URL.Query().Get("months")

	summary, err := h.Service.Summary(ctx, ownerID, month, months)
	if err != nil {
		utils.SendServiceError(w, h.Logger, err, "failed to compute finance summary")
		return
	}
	respond(w, h.Logger, http.StatusOK, summary)
}
