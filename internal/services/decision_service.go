package services

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/senyabanana/bid-tracker/internal/lifecycle"
	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/monitoring"
	"github.com/senyabanana/bid-tracker/internal/repository"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

var (
	// ErrStaleDecision - заявка уже не ждёт решения клиента.
	ErrStaleDecision = errors.New("bid already decided")
	// ErrTokenInvalid - токен портала не найден. Не раскрывает, существовал ли он.
	ErrTokenInvalid = errors.New("invalid access")
)

// Каналы, через которые клиент принимает решение.
const (
	ChannelPortal = "portal"
	ChannelToken  = "token"
)

// DecisionService принимает решения клиентов по заявкам.
type DecisionService struct {
	Bids    repository.BidRepository
	Clients repository.ClientRepository
	Now     func() time.Time
}

// NewDecisionService создаёт новый экземпляр DecisionService.
func NewDecisionService(bids repository.BidRepository, clients repository.ClientRepository) *DecisionService {
	return &DecisionService{Bids: bids, Clients: clients, Now: time.Now}
}

// PortalForUser возвращает клиента, привязанного к пользователю портала, и его заявки.
func (s *DecisionService) PortalForUser(ctx context.Context, authUserID string) (*models.PortalView, error) {
	client, err := s.clientForUser(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	return s.portal(ctx, client)
}

// PortalForToken возвращает клиента по токену ссылки и его заявки.
func (s *DecisionService) PortalForToken(ctx context.Context, token string) (*models.PortalView, error) {
	client, err := s.clientForToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.portal(ctx, client)
}

// DecideAsUser фиксирует решение клиента, вошедшего в портал.
func (s *DecisionService) DecideAsUser(ctx context.Context, authUserID, bidID string, decision models.BidDecision) (*models.PortalBid, error) {
	client, err := s.clientForUser(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, client, bidID, decision, ChannelPortal)
}

// DecideWithToken фиксирует решение клиента, пришедшего по ссылке из письма.
func (s *DecisionService) DecideWithToken(ctx context.Context, token, bidID string, decision models.BidDecision) (*models.PortalBid, error) {
	client, err := s.clientForToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, client, bidID, decision, ChannelToken)
}

func (s *DecisionService) decide(ctx context.Context, client *models.Client, bidID string, decision models.BidDecision, channel string) (*models.PortalBid, error) {
	bid, err := s.applyDecision(ctx, client, bidID, decision)
	monitoring.RecordDecision(channel, decision, err)
	if err != nil {
		return nil, err
	}
	view := portalBid(*bid)
	return &view, nil
}

func (s *DecisionService) applyDecision(ctx context.Context, client *models.Client, bidID string, decision models.BidDecision) (*models.Bid, error) {
	trigger, err := lifecycle.Decision(decision, s.Now().UTC())
	if err != nil {
		return nil, models.WrapErrorResponse(http.StatusBadRequest, "invalid decision", err)
	}
	if !utils.ValidUUID(bidID) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}

	for attempt := 0; attempt < 2; attempt++ {
		bid, err := s.Bids.GetBid(ctx, bidID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && bid.ClientID != client.ID) {
			return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
		}
		if err != nil {
			return nil, err
		}

		next, err := lifecycle.Transition(*bid, trigger)
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return nil, models.WrapErrorResponse(http.StatusConflict, ErrStaleDecision.Error(), ErrStaleDecision)
		}
		if err != nil {
			return nil, err
		}

		updated, err := s.Bids.UpdateBid(ctx, next)
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, models.WrapErrorResponse(http.StatusConflict, ErrStaleDecision.Error(), ErrStaleDecision)
}

func (s *DecisionService) clientForUser(ctx context.Context, authUserID string) (*models.Client, error) {
	client, err := s.Clients.GetClientByAuthUser(ctx, authUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NewErrorResponse(http.StatusForbidden, "no client profile is linked to this user")
	}
	return client, err
}

func (s *DecisionService) clientForToken(ctx context.Context, token string) (*models.Client, error) {
	if token == "" {
		return nil, models.WrapErrorResponse(http.StatusUnauthorized, ErrTokenInvalid.Error(), ErrTokenInvalid)
	}
	client, err := s.Clients.GetClientByAccessToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.WrapErrorResponse(http.StatusUnauthorized, ErrTokenInvalid.Error(), ErrTokenInvalid)
	}
	return client, err
}

func (s *DecisionService) portal(ctx context.Context, client *models.Client) (*models.PortalView, error) {
	bids, err := s.Bids.ListBids(ctx, repository.BidFilter{ClientID: client.ID})
	if err != nil {
		return nil, err
	}
	view := &models.PortalView{
		Client: models.PortalClient{Name: client.Name, Company: client.Company},
		Bids:   make([]models.PortalBid, 0, len(bids)),
	}
	for _, bid := range bids {
		view.Bids = append(view.Bids, portalBid(bid))
	}
	return view, nil
}

// portalBid скрывает финансовые поля и отмечает, ждёт ли заявка решения клиента.
func portalBid(bid models.Bid) models.PortalBid {
	view := models.NewPortalBid(bid)
	view.CanDecide = slices.Contains(lifecycle.Allowed(bid.Status), lifecycle.ClientParticipates)
	return view
}
