package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/senyabanana/bid-tracker/internal/models"
	"github.com/senyabanana/bid-tracker/internal/repository"
)

var (
	bidCols = []string{
		"id", "owner_id", "client_id", "name", "title", "deadline", "link_docs", "attachments",
		"status", "decision", "decision_at", "notified", "reminder_sent_at", "summary_sent_at",
		"final_value", "commission_rate", "financial_status", "version", "created_at",
	}
	clientCols = []string{
		"id", "owner_id", "name", "company", "email", "contract_value", "commission_rate", "active",
		"access_token", "auth_user_id", "created_at",
	}
	created  = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	deadline = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return mock
}

func bidRow(rows *pgxmock.Rows, id string, status models.BidStatus, version int) *pgxmock.Rows {
	return rows.AddRow(
		id, "owner-1", "client-1", "Ana", "Road paving", deadline, "", []models.Attachment{},
		status, models.DecisionPending, nil, false, nil, nil,
		decimal.NullDecimal{}, decimal.NewNullDecimal(decimal.NewFromInt(10)), models.SettlementAwaitingInvoice, version, created,
	)
}

func TestGetBid(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM bid b JOIN client c ON c.id = b.client_id\s+WHERE b.id = \$1`).
		WithArgs("bid-1").
		WillReturnRows(bidRow(mock.NewRows(bidCols), "bid-1", models.StatusPending, 3))

	got, err := repo.GetBid(context.Background(), "bid-1")
	if err != nil {
		t.Fatalf("GetBid: %v", err)
	}
	want := &models.Bid{
		ID:              "bid-1",
		OwnerID:         "owner-1",
		ClientID:        "client-1",
		ClientName:      "Ana",
		Title:           "Road paving",
		Deadline:        deadline,
		Attachments:     []models.Attachment{},
		Status:          models.StatusPending,
		Decision:        models.DecisionPending,
		CommissionRate:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		FinancialStatus: models.SettlementAwaitingInvoice,
		Version:         3,
		CreatedAt:       created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetBid() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetBidNotFound(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM bid b`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetBid(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBidsBuildsFilter(t *testing.T) {
	tests := map[string]struct {
		filter repository.BidFilter
		query  string
		args   []any
	}{
		"owner only": {
			filter: repository.BidFilter{OwnerID: "owner-1"},
			query:  `WHERE b.owner_id = \$1 ORDER BY b.deadline, b.created_at$`,
			args:   []any{"owner-1"},
		},
		"owner and status with paging": {
			filter: repository.BidFilter{OwnerID: "owner-1", Status: models.StatusWon, Limit: 10, Offset: 20},
			query:  `WHERE b.owner_id = \$1 AND b.status = \$2 ORDER BY b.deadline, b.created_at LIMIT \$3 OFFSET \$4`,
			args:   []any{"owner-1", models.StatusWon, 10, 20},
		},
		"client": {
			filter: repository.BidFilter{ClientID: "client-1"},
			query:  `WHERE b.client_id = \$1 ORDER BY`,
			args:   []any{"client-1"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mock := newMock(t)
			repo := repository.NewPostgresBidRepository(mock)

			rows := mock.NewRows(bidCols)
			bidRow(rows, "bid-1", models.StatusPending, 1)
			bidRow(rows, "bid-2", models.StatusWaitingClient, 2)
			mock.ExpectQuery(tc.query).WithArgs(tc.args...).WillReturnRows(rows)

			got, err := repo.ListBids(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("ListBids: %v", err)
			}
			if len(got) != 2 || got[1].Status != models.StatusWaitingClient {
				t.Errorf("unexpected bids: %+v", got)
			}
		})
	}
}

func TestListDueForReminder(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)

	after := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE b.deadline > \$1 AND b.deadline <= \$2\s+AND b.notified = FALSE AND b.status = \$3`).
		WithArgs(after, until, models.StatusPending).
		WillReturnRows(mock.NewRows(bidCols))

	got, err := repo.ListDueForReminder(context.Background(), after, until)
	if err != nil {
		t.Fatalf("ListDueForReminder: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestUpdateBidVersionConflict(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)

	bid := models.Bid{ID: "bid-1", Version: 4, Status: models.StatusWaitingClient, Decision: models.DecisionPending}
	args := make([]any, 15)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0], args[1] = "bid-1", 4
	mock.ExpectExec(`UPDATE bid SET .+ notified = notified OR \$11.+ WHERE id = \$1 AND version = \$2`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if _, err := repo.UpdateBid(context.Background(), bid); !errors.Is(err, repository.ErrConcurrentUpdate) {
		t.Errorf("expected ErrConcurrentUpdate, got %v", err)
	}
}

func TestUpdateBidReloads(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)

	bid := models.Bid{ID: "bid-1", Version: 1, Status: models.StatusWaitingClient, Decision: models.DecisionPending}
	args := make([]any, 15)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`UPDATE bid SET`).WithArgs(args...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`SELECT .+ FROM bid b`).WithArgs("bid-1").
		WillReturnRows(bidRow(mock.NewRows(bidCols), "bid-1", models.StatusWaitingClient, 2))

	got, err := repo.UpdateBid(context.Background(), bid)
	if err != nil {
		t.Fatalf("UpdateBid: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
}

func TestMarkNotified(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresBidRepository(mock)
	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE bid SET notified = TRUE`).WithArgs("bid-1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE bid SET notified = TRUE`).WithArgs("gone", at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkNotified(context.Background(), "bid-1", at); err != nil {
		t.Errorf("MarkNotified: %v", err)
	}
	if err := repo.MarkNotified(context.Background(), "gone", at); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteClientInUse(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresClientRepository(mock)

	mock.ExpectExec(`DELETE FROM client WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("client-1", "owner-1").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	if err := repo.DeleteClient(context.Background(), "owner-1", "client-1"); !errors.Is(err, repository.ErrInUse) {
		t.Errorf("expected ErrInUse, got %v", err)
	}
}

func TestGetClientByAccessToken(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresClientRepository(mock)
	token := "tok-1"

	mock.ExpectQuery(`FROM client WHERE access_token = \$1`).WithArgs(token).
		WillReturnRows(mock.NewRows(clientCols).AddRow(
			"client-1", "owner-1", "Ana", "Acme", "ana@acme.test",
			decimal.NewNullDecimal(decimal.NewFromInt(2000)), decimal.NewFromInt(10), true,
			&token, nil, created,
		))

	got, err := repo.GetClientByAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("GetClientByAccessToken: %v", err)
	}
	if got.Company != "Acme" || !got.CommissionRate.Equal(decimal.NewFromInt(10)) || got.AccessToken == nil {
		t.Errorf("unexpected client: %+v", got)
	}
	if got.AuthUserID != nil {
		t.Errorf("auth user should be empty, got %v", *got.AuthUserID)
	}
}

func TestListClientsByIDsSkipsEmpty(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresClientRepository(mock)

	got, err := repo.ListClientsByIDs(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("ListClientsByIDs(nil) = %v, %v", got, err)
	}
}

func TestGetSettingsAbsent(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresSettingsRepository(mock)

	mock.ExpectQuery(`FROM settings WHERE owner_id = \$1`).WithArgs("owner-1").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetSettings(context.Background(), "owner-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertSettings(t *testing.T) {
	mock := newMock(t)
	repo := repository.NewPostgresSettingsRepository(mock)
	updated := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	settings := models.Settings{OwnerID: "owner-1", SMTPUser: "me@example.com", SMTPPass: "secret", SMTPPort: 587, UpdatedAt: updated}
	mock.ExpectExec(`ON CONFLICT \(owner_id\) DO UPDATE SET`).
		WithArgs("owner-1", "", 587, "me@example.com", "secret", "", "", "", "", "", updated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := repo.UpsertSettings(context.Background(), settings)
	if err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	if diff := cmp.Diff(&settings, got); diff != "" {
		t.Errorf("UpsertSettings() mismatch (-want +got):\n%s", diff)
	}
}
