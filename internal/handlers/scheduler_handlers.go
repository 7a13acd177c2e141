package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// ReminderRunner выполняет один проход планировщика напоминаний.
type ReminderRunner interface {
	Run(ctx context.Context) (*models.ReminderReport, error)
}

// SchedulerHandler - ручной запуск планировщика внешним cron.
type SchedulerHandler struct {
	Runner  ReminderRunner
	Logger  *log.Logger
	Timeout time.Duration
}

// NewSchedulerHandler создает новый экземпляр SchedulerHandler.
func NewSchedulerHandler(runner ReminderRunner, logger *log.Logger, timeout time.Duration) *SchedulerHandler {
	return &SchedulerHandler{
		Runner:  runner,
		Logger:  logger,
		Timeout: timeout,
	}
}

// RunReminders запускает проход и возвращает отчёт. Прерванный проход
// отдаёт частичный отчёт с полем error.
func (h *SchedulerHandler) RunReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	report, err := h.Runner.Run(ctx)
	if err != nil && report == nil {
		utils.SendServiceError(w, h.Logger, err, "reminder run failed")
		return
	}
	if err != nil {
		h.Logger.Printf("reminder run interrupted: %v", err)
		if report.Error == "" {
			report.Error = err.Error()
		}
	}
	respond(w, h.Logger, http.StatusOK, report)
}
