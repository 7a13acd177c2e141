package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/notify"
	"github.com/senyabanana/bid-tracker/internal/repository"

	"github.com/google/uuid"
)

const (
	ownerID   = "owner-1"
	otherID   = "owner-2"
	clientID  = "6f1c2d3e-0000-4000-8000-000000000001"
	client2ID = "6f1c2d3e-0000-4000-8000-000000000002"
	bidID     = "9a8b7c6d-0000-4000-8000-000000000001"
	token     = "4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f90"
)

var fixedNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type memoryBids struct {
	mu   sync.Mutex
	bids map[string]models.Bid
	// beforeUpdate вызывается перед условной записью и имитирует параллельного писателя.
	beforeUpdate func(stored *models.Bid) bool
}

func newMemoryBids(bids ...models.Bid) *memoryBids {
	m := &memoryBids{bids: map[string]models.Bid{}}
	for _, bid := range bids {
		m.bids[bid.ID] = bid
	}
	return m
}

func (m *memoryBids) CreateBid(_ context.Context, bid models.Bid) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid.ID = uuid.NewString()
	bid.Version = 1
	if bid.Attachments == nil {
		bid.Attachments = []models.Attachment{}
	}
	m.bids[bid.ID] = bid
	return &bid, nil
}

func (m *memoryBids) GetBid(_ context.Context, id string) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &bid, nil
}

func (m *memoryBids) ListBids(_ context.Context, filter repository.BidFilter) ([]models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Bid{}
	for _, bid := range m.bids {
		if filter.OwnerID != "" && bid.OwnerID != filter.OwnerID {
			continue
		}
		if filter.ClientID != "" && bid.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && bid.Status != filter.Status {
			continue
		}
		out = append(out, bid)
	}
	return out, nil
}

func (m *memoryBids) ListDueForReminder(context.Context, time.Time, time.Time) ([]models.Bid, error) {
	return nil, nil
}

func (m *memoryBids) UpdateBid(_ context.Context, bid models.Bid) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bids[bid.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.beforeUpdate != nil && m.beforeUpdate(&stored) {
		stored.Version++
		m.bids[bid.ID] = stored
	}
	if stored.Version != bid.Version {
		return nil, repository.ErrConcurrentUpdate
	}
	bid.Notified = stored.Notified || bid.Notified
	bid.Version++
	m.bids[bid.ID] = bid
	return &bid, nil
}

func (m *memoryBids) MarkNotified(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok {
		return repository.ErrNotFound
	}
	bid.Notified = true
	bid.ReminderSentAt = &at
	m.bids[id] = bid
	return nil
}

func (m *memoryBids) MarkSummarySent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok {
		return repository.ErrNotFound
	}
	bid.SummarySentAt = &at
	m.bids[id] = bid
	return nil
}

func (m *memoryBids) DeleteBid(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok || bid.OwnerID != owner {
		return repository.ErrNotFound
	}
	delete(m.bids, id)
	return nil
}

func (m *memoryBids) get(id string) models.Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bids[id]
}

type memoryClients struct {
	mu      sync.Mutex
	clients map[string]models.Client
	inUse   map[string]bool
}

func newMemoryClients(clients ...models.Client) *memoryClients {
	m := &memoryClients{clients: map[string]models.Client{}, inUse: map[string]bool{}}
	for _, client := range clients {
		m.clients[client.ID] = client
	}
	return m
}

func (m *memoryClients) CreateClient(_ context.Context, client models.Client) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client.ID = uuid.NewString()
	m.clients[client.ID] = client
	return &client, nil
}

func (m *memoryClients) GetClient(_ context.Context, id string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &client, nil
}

func (m *memoryClients) GetClientByAccessToken(_ context.Context, token string) (*models.Client, error) {
	return m.find(func(c models.Client) bool { return c.AccessToken != nil && *c.AccessToken == token })
}

func (m *memoryClients) GetClientByAuthUser(_ context.Context, authUserID string) (*models.Client, error) {
	return m.find(func(c models.Client) bool { return c.AuthUserID != nil && *c.AuthUserID == authUserID })
}

func (m *memoryClients) find(match func(models.Client) bool) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, client := range m.clients {
		if match(client) {
			return &client, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryClients) ListClients(_ context.Context, owner string) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Client{}
	for _, client := range m.clients {
		if client.OwnerID == owner {
			out = append(out, client)
		}
	}
	return out, nil
}

func (m *memoryClients) ListClientsByIDs(_ context.Context, ids []string) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Client{}
	for _, id := range ids {
		if client, ok := m.clients[id]; ok {
			out = append(out, client)
		}
	}
	return out, nil
}

func (m *memoryClients) UpdateClient(_ context.Context, client models.Client) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	if client.AuthUserID != nil {
		for id, other := range m.clients {
			if id != client.ID && other.AuthUserID != nil && *other.AuthUserID == *client.AuthUserID {
				return nil, repository.ErrDuplicate
			}
		}
	}
	m.clients[client.ID] = client
	return &client, nil
}

func (m *memoryClients) DeleteClient(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[id]
	if !ok || client.OwnerID != owner {
		return repository.ErrNotFound
	}
	if m.inUse[id] {
		return repository.ErrInUse
	}
	delete(m.clients, id)
	return nil
}

type memorySettings map[string]models.Settings

func (m memorySettings) GetSettings(_ context.Context, owner string) (*models.Settings, error) {
	settings, ok := m[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &settings, nil
}

func (m memorySettings) UpsertSettings(_ context.Context, settings models.Settings) (*models.Settings, error) {
	m[settings.OwnerID] = settings
	return &settings, nil
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []notify.Envelope
	err  error
}

func (t *recordingTransport) Send(_ context.Context, _ notify.Server, env notify.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, env)
	return nil
}

func tokenPtr(s string) *string {
	return &s
}

func acme() models.Client {
	return models.Client{
		ID:          clientID,
		OwnerID:     ownerID,
		Name:        "Ana",
		Company:     "Acme",
		Email:       "ana@acme.test",
		Active:      true,
		AccessToken: tokenPtr(token),
		AuthUserID:  tokenPtr("user-ana"),
	}
}

func waitingBid() models.Bid {
	return models.Bid{
		ID:              bidID,
		OwnerID:         ownerID,
		ClientID:        clientID,
		Title:           "Road paving",
		Deadline:        date("2026-10-19"),
		Attachments:     []models.Attachment{},
		Status:          models.StatusWaitingClient,
		Decision:        models.DecisionPending,
		Notified:        true,
		FinancialStatus: models.SettlementAwaitingInvoice,
		Version:         2,
	}
}
