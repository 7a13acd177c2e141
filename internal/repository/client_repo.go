package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/bid-tracker/internal/db"
	"github.com/senyabanana/bid-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// ClientRepository - интерфейс для работы с клиентами.
type ClientRepository interface {
	CreateClient(ctx context.Context, client models.Client) (*models.Client, error)
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
	GetClientByAccessToken(ctx context.Context, token string) (*models.Client, error)
	GetClientByAuthUser(ctx context.Context, authUserID string) (*models.Client, error)
	ListClients(ctx context.Context, ownerID string) ([]models.Client, error)
	ListClientsByIDs(ctx context.Context, ids []string) ([]models.Client, error)
	UpdateClient(ctx context.Context, client models.Client) (*models.Client, error)
	DeleteClient(ctx context.Context, ownerID, clientID string) error
}

const clientColumns = `id, owner_id, name, company, email, contract_value, commission_rate, active,
	access_token, auth_user_id, created_at`

// PostgresClientRepository - реализация ClientRepository для базы данных.
type PostgresClientRepository struct {
	DB db.DBTX
}

// NewPostgresClientRepository создаёт новый экземпляр PostgresClientRepository.
func NewPostgresClientRepository(db db.DBTX) *PostgresClientRepository {
	return &PostgresClientRepository{DB: db}
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var client models.Client
	err := row.Scan(
		&client.ID,
		&client.OwnerID,
		&client.Name,
		&client.Company,
		&client.Email,
		&client.ContractValue,
		&client.CommissionRate,
		&client.Active,
		&client.AccessToken,
		&client.AuthUserID,
		&client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func collectClients(rows pgx.Rows) ([]models.Client, error) {
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	return clients, rows.Err()
}

// CreateClient сохраняет нового клиента.
func (r *PostgresClientRepository) CreateClient(ctx context.Context, client models.Client) (*models.Client, error) {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO client (` + clientColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING ` + clientColumns
	created, err := scanClient(r.DB.QueryRow(
		ctx,
		query,
		client.ID,
		client.OwnerID,
		client.Name,
		client.Company,
		client.Email,
		client.ContractValue,
		client.CommissionRate,
		client.Active,
		client.AccessToken,
		client.AuthUserID,
		client.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", translate(err))
	}
	return created, nil
}

// GetClient возвращает клиента по ID.
func (r *PostgresClientRepository) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	client, err := scanClient(r.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM client WHERE id = $1`, clientID))
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

// GetClientByAccessToken находит клиента по токену портала.
func (r *PostgresClientRepository) GetClientByAccessToken(ctx context.Context, token string) (*models.Client, error) {
	client, err := scanClient(r.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM client WHERE access_token = $1`, token))
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

// GetClientByAuthUser находит клиента, привязанного к пользователю портала.
func (r *PostgresClientRepository) GetClientByAuthUser(ctx context.Context, authUserID string) (*models.Client, error) {
	client, err := scanClient(r.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM client WHERE auth_user_id = $1`, authUserID))
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

// ListClients возвращает клиентов консультанта по имени.
func (r *PostgresClientRepository) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+clientColumns+` FROM client WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return collectClients(rows)
}

// ListClientsByIDs загружает клиентов одним запросом.
func (r *PostgresClientRepository) ListClientsByIDs(ctx context.Context, ids []string) ([]models.Client, error) {
	if len(ids) == 0 {
		return []models.Client{}, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+clientColumns+` FROM client WHERE id::text = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list clients by id: %w", err)
	}
	return collectClients(rows)
}

// UpdateClient сохраняет изменения клиента.
func (r *PostgresClientRepository) UpdateClient(ctx context.Context, client models.Client) (*models.Client, error) {
	query := `UPDATE client SET name = $2, company = $3, email = $4, contract_value = $5, commission_rate = $6,
	          active = $7, access_token = $8, auth_user_id = $9
	          WHERE id = $1
	          RETURNING ` + clientColumns
	updated, err := scanClient(r.DB.QueryRow(
		ctx,
		query,
		client.ID,
		client.Name,
		client.Company,
		client.Email,
		client.ContractValue,
		client.CommissionRate,
		client.Active,
		client.AccessToken,
		client.AuthUserID))
	if err != nil {
		return nil, fmt.Errorf("update client: %w", translate(err))
	}
	return updated, nil
}

// DeleteClient удаляет клиента. Клиента с заявками удалить нельзя.
func (r *PostgresClientRepository) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM client WHERE id = $1 AND owner_id = $2`, clientID, ownerID)
	if err != nil {
		return fmt.Errorf("delete client: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
