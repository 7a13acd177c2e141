package services

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/senyabanana/bid-tracker/internal/finance"
	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/repository"
)

const maxHistoryMonths = 24

// FinanceService собирает финансовую сводку консультанта.
type FinanceService struct {
	Bids     repository.BidRepository
	Clients  repository.ClientRepository
	Location *time.Location
	Now      func() time.Time
}

// NewFinanceService создаёт новый экземпляр FinanceService.
func NewFinanceService(bids repository.BidRepository, clients repository.ClientRepository, loc *time.Location) *FinanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &FinanceService{Bids: bids, Clients: clients, Location: loc, Now: time.Now}
}

// Summary возвращает сводку за месяц monthStr (YYYY-MM, по умолчанию текущий)
// и историю за monthsStr месяцев.
func (s *FinanceService) Summary(ctx context.Context, ownerID, monthStr, monthsStr string) (*models.FinanceSummary, error) {
	month := s.Now().In(s.Location)
	if monthStr != "" {
		parsed, err := time.ParseInLocation("2006-01", monthStr, s.Location)
		if err != nil {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "month must be in YYYY-MM format")
		}
		month = parsed
	}

	months := finance.DefaultHistoryMonths
	if monthsStr != "" {
		n, err := strconv.Atoi(monthsStr)
		if err != nil || n < 1 || n > maxHistoryMonths {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "months must be an integer between 1 and 24")
		}
		months = n
	}

	clients, err := s.Clients.ListClients(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	won, err := s.Bids.ListBids(ctx, repository.BidFilter{OwnerID: ownerID, Status: models.StatusWon})
	if err != nil {
		return nil, err
	}

	summary := finance.Summarize(month, months, clients, won)
	return &summary, nil
}
