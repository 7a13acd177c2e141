package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/notify"
	"github.com/senyabanana/bid-tracker/internal/repository"
	"github.com/senyabanana/bid-tracker/internal/scheduler"
)

// thursday 2026-10-15: два рабочих дня вперёд - понедельник 2026-10-19.
var thursday = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type memoryBids struct {
	mu        sync.Mutex
	bids      map[string]models.Bid
	conflicts map[string]func(*models.Bid)
	// edits - сколько раз подряд заявку успеют отредактировать перед записью.
	edits map[string]int
}

func newMemoryBids(bids ...models.Bid) *memoryBids {
	m := &memoryBids{bids: map[string]models.Bid{}, conflicts: map[string]func(*models.Bid){}, edits: map[string]int{}}
	for _, bid := range bids {
		m.bids[bid.ID] = bid
	}
	return m
}

func (m *memoryBids) ListDueForReminder(_ context.Context, after, until time.Time) ([]models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Bid
	for _, bid := range m.bids {
		if bid.Deadline.After(after) && !bid.Deadline.After(until) && !bid.Notified && bid.Status == models.StatusPending {
			out = append(out, bid)
		}
	}
	return out, nil
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

func (m *memoryBids) UpdateBid(_ context.Context, bid models.Bid) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if change, ok := m.conflicts[bid.ID]; ok {
		delete(m.conflicts, bid.ID)
		stored := m.bids[bid.ID]
		change(&stored)
		stored.Version++
		m.bids[bid.ID] = stored
	}
	if m.edits[bid.ID] > 0 {
		m.edits[bid.ID]--
		stored := m.bids[bid.ID]
		stored.Version++
		m.bids[bid.ID] = stored
	}
	stored, ok := m.bids[bid.ID]
	if !ok {
		return nil, repository.ErrNotFound
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
	if bid.ReminderSentAt == nil {
		bid.ReminderSentAt = &at
	}
	bid.Version++
	m.bids[id] = bid
	return nil
}

func (m *memoryBids) get(id string) models.Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bids[id]
}

type memoryClients []models.Client

func (m memoryClients) ListClientsByIDs(_ context.Context, ids []string) ([]models.Client, error) {
	var out []models.Client
	for _, client := range m {
		for _, id := range ids {
			if client.ID == id {
				out = append(out, client)
			}
		}
	}
	return out, nil
}

type staticSettings map[string]models.Settings

func (s staticSettings) Resolve(_ context.Context, ownerID string) (*models.Settings, error) {
	settings, ok := s[ownerID]
	if !ok {
		return nil, nil
	}
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

var (
	acme = models.Client{ID: "client-1", OwnerID: "owner-1", Name: "Ana", Company: "Acme", Email: "ana@acme.test"}
	mail = staticSettings{"owner-1": {OwnerID: "owner-1", SMTPUser: "consultant@example.com", SMTPPass: "secret", SenderName: "Bids Ltd"}}
)

func pendingBid(id, deadline string) models.Bid {
	return models.Bid{
		ID:       id,
		OwnerID:  "owner-1",
		ClientID: "client-1",
		Title:    "Road paving " + id,
		Deadline: date(deadline),
		Status:   models.StatusPending,
		Decision: models.DecisionPending,
		Version:  1,
	}
}

func newScheduler(bids *memoryBids, settings staticSettings, transport notify.Transport, selection scheduler.Selection) *scheduler.Scheduler {
	return scheduler.New(
		bids,
		memoryClients{acme},
		settings,
		notify.NewDispatcher(transport),
		log.New(io.Discard, "", 0),
		scheduler.Options{
			BusinessDays: 2,
			Selection:    selection,
			PortalURL:    "https://portal.example",
			Now:          func() time.Time { return thursday },
		},
	)
}

func outcomes(report *models.ReminderReport) map[string]models.ReminderOutcome {
	got := map[string]models.ReminderOutcome{}
	for _, r := range report.Results {
		got[r.BidID] = r.Outcome
	}
	return got
}

func TestRunSendsReminderAndIsIdempotent(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"))
	transport := &recordingTransport{}
	s := newScheduler(bids, mail, transport, scheduler.SelectWindow)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TargetDate != "2026-10-19" || report.Found != 1 || report.Sent != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	bid := bids.get("bid-1")
	if bid.Status != models.StatusWaitingClient || !bid.Notified || bid.ReminderSentAt == nil {
		t.Errorf("bid not moved to WaitingClient: %+v", bid)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(transport.sent))
	}
	env := transport.sent[0]
	if env.To != "ana@acme.test" || env.FromName != "Bids Ltd" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if !strings.Contains(env.Subject, "Road paving bid-1") {
		t.Errorf("subject %q does not name the bid", env.Subject)
	}
	if !strings.Contains(env.HTML, "https://portal.example/portal?id=bid-1") {
		t.Errorf("reminder has no decision link:\n%s", env.HTML)
	}

	again, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Found != 0 || len(transport.sent) != 1 {
		t.Errorf("second run resent reminders: found=%d sent mails=%d", again.Found, len(transport.sent))
	}
}

func TestRunOutcomes(t *testing.T) {
	tests := map[string]struct {
		settings     staticSettings
		transportErr error
		client       string
		want         models.ReminderOutcome
	}{
		"no settings is skipped": {
			settings: staticSettings{},
			want:     models.OutcomeSkippedNoConfig,
		},
		"missing password": {
			settings: staticSettings{"owner-1": {SMTPUser: "consultant@example.com"}},
			want:     models.OutcomeFailedConfig,
		},
		"client without email": {
			settings: mail,
			client:   "client-2",
			want:     models.OutcomeFailedConfig,
		},
		"transport failure": {
			settings:     mail,
			transportErr: errors.New("connection refused"),
			want:         models.OutcomeFailedTransport,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			bid := pendingBid("bid-1", "2026-10-19")
			if tc.client != "" {
				bid.ClientID = tc.client
			}
			bids := newMemoryBids(bid)
			s := newScheduler(bids, tc.settings, &recordingTransport{err: tc.transportErr}, scheduler.SelectWindow)

			report, err := s.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := outcomes(report)["bid-1"]; got != tc.want {
				t.Errorf("outcome = %s, want %s", got, tc.want)
			}
			if report.Sent != 0 {
				t.Errorf("sent = %d, want 0", report.Sent)
			}
			stored := bids.get("bid-1")
			if stored.Status != models.StatusPending || stored.Notified {
				t.Errorf("failed reminder changed the bid: %+v", stored)
			}
		})
	}
}

func TestRunRetriesAfterTransportFailure(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"))
	transport := &recordingTransport{err: errors.New("timeout")}
	s := newScheduler(bids, mail, transport, scheduler.SelectWindow)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	transport.err = nil
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 1 || bids.get("bid-1").Status != models.StatusWaitingClient {
		t.Errorf("retry did not send: %+v", report)
	}
}

func TestRunSelection(t *testing.T) {
	tests := map[string]struct {
		selection scheduler.Selection
		want      map[string]models.ReminderOutcome
	}{
		"window covers every date up to target": {
			selection: scheduler.SelectWindow,
			want: map[string]models.ReminderOutcome{
				"tomorrow": models.OutcomeSent,
				"target":   models.OutcomeSent,
			},
		},
		"exact matches the target only": {
			selection: scheduler.SelectExact,
			want: map[string]models.ReminderOutcome{
				"target": models.OutcomeSent,
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			bids := newMemoryBids(
				pendingBid("today", "2026-10-15"),
				pendingBid("tomorrow", "2026-10-16"),
				pendingBid("target", "2026-10-19"),
				pendingBid("later", "2026-10-20"),
			)
			s := newScheduler(bids, mail, &recordingTransport{}, tc.selection)

			report, err := s.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff(tc.want, outcomes(report)); diff != "" {
				t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunConcurrentManualMove(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"))
	bids.conflicts["bid-1"] = func(b *models.Bid) {
		b.Status = models.StatusWaitingBid
		b.Decision = models.DecisionParticipate
		at := thursday
		b.DecisionAt = &at
	}
	s := newScheduler(bids, mail, &recordingTransport{}, scheduler.SelectWindow)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := outcomes(report)["bid-1"]; got != models.OutcomeSent {
		t.Errorf("outcome = %s, want sent", got)
	}
	stored := bids.get("bid-1")
	if stored.Status != models.StatusWaitingBid {
		t.Errorf("manual move was overwritten: status %s", stored.Status)
	}
	if !stored.Notified {
		t.Error("notified flag not set after dispatch")
	}
}

func TestRunRetriesWhileBidIsEdited(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"))
	bids.edits["bid-1"] = 3
	s := newScheduler(bids, mail, &recordingTransport{}, scheduler.SelectWindow)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := outcomes(report)["bid-1"]; got != models.OutcomeSent {
		t.Errorf("outcome = %s, want sent", got)
	}
	if stored := bids.get("bid-1"); stored.Status != models.StatusWaitingClient || !stored.Notified {
		t.Errorf("bid = %s notified=%v, want WaitingClient notified", stored.Status, stored.Notified)
	}
}

func TestRunEveryWriteConflictsKeepsBidPending(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"))
	bids.edits["bid-1"] = 1000
	transport := &recordingTransport{}
	s := newScheduler(bids, mail, transport, scheduler.SelectWindow)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := outcomes(report)["bid-1"]; got != models.OutcomeFailedStore {
		t.Errorf("outcome = %s, want failed-store", got)
	}
	if report.Sent != 0 {
		t.Errorf("sent = %d, want 0", report.Sent)
	}
	stored := bids.get("bid-1")
	if stored.Status != models.StatusPending || stored.Notified {
		t.Fatalf("bid = %s notified=%v, want Pending and not notified", stored.Status, stored.Notified)
	}

	bids.mu.Lock()
	bids.edits["bid-1"] = 0
	bids.mu.Unlock()
	report, err = s.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := outcomes(report)["bid-1"]; got != models.OutcomeSent {
		t.Errorf("second outcome = %s, want sent", got)
	}
	if bids.get("bid-1").Status != models.StatusWaitingClient {
		t.Errorf("status = %s, want WaitingClient", bids.get("bid-1").Status)
	}
	if len(transport.sent) != 2 {
		t.Errorf("mails = %d, want 2", len(transport.sent))
	}
}

type cancelingTransport struct {
	recordingTransport
	cancel context.CancelFunc
}

func (t *cancelingTransport) Send(ctx context.Context, server notify.Server, env notify.Envelope) error {
	err := t.recordingTransport.Send(ctx, server, env)
	t.cancel()
	return err
}

func TestRunInterruptedReturnsPartialReport(t *testing.T) {
	bids := newMemoryBids(pendingBid("bid-1", "2026-10-19"), pendingBid("bid-2", "2026-10-19"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newScheduler(bids, mail, &cancelingTransport{cancel: cancel}, scheduler.SelectWindow)

	report, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("interrupted run lost its report")
	}
	if report.Found != 2 || report.Sent != 1 || len(report.Results) != 1 {
		t.Fatalf("partial report = %+v, want 1 of 2 sent", report)
	}
	if !strings.Contains(report.Error, "1 of 2") {
		t.Errorf("report error = %q", report.Error)
	}
	if got := bids.get(report.Results[0].BidID); got.Status != models.StatusWaitingClient {
		t.Errorf("sent bid status = %s, want WaitingClient", got.Status)
	}
}

func TestWindow(t *testing.T) {
	friday := time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)
	s := scheduler.New(nil, nil, nil, nil, log.New(io.Discard, "", 0), scheduler.Options{BusinessDays: 2})

	after, target := s.Window(friday)
	if after.Format(time.DateOnly) != "2026-10-16" || target.Format(time.DateOnly) != "2026-10-20" {
		t.Errorf("Window(friday) = (%s, %s]", after.Format(time.DateOnly), target.Format(time.DateOnly))
	}
}
