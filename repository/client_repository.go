package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
)

// ClientRepository implements the ClientRepository interface
type ClientRepository struct {
	q queryable
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{q: db.Pool}
}

func newClientRepositoryWithTx(tx queryable) *ClientRepository {
	return &ClientRepository{q: tx}
}

const clientColumns = `id, name, department_id, fee_config, active, created_at, updated_at`

// Create inserts a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	feeJSON, err := json.Marshal(client.FeeConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal fee config: %w", err)
	}

	query := `
		INSERT INTO clients (name, department_id, fee_config, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = r.q.QueryRow(ctx, query, client.Name, client.DepartmentID, feeJSON, client.Active).
		Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client %q: %w", client.Name, classifyError(err))
	}
	return nil
}

// GetByID retrieves a client by id
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %d: %w", id, err)
	}
	return client, nil
}

// List returns clients ordered by name
func (r *ClientRepository) List(ctx context.Context, activeOnly bool) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ($1 = FALSE OR active) ORDER BY name`

	rows, err := r.q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

// Update persists name, department and active flag
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $2, department_id = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query, client.ID, client.Name, client.DepartmentID, client.Active).Scan(&client.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("client %d: %w", client.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update client %d: %w", client.ID, classifyError(err))
	}
	return nil
}

// UpdateFeeConfig replaces the client's fee config
func (r *ClientRepository) UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) error {
	feeJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal fee config: %w", err)
	}

	tag, err := r.q.Exec(ctx, `UPDATE clients SET fee_config = $2, updated_at = NOW() WHERE id = $1`, id, feeJSON)
	if err != nil {
		return fmt.Errorf("failed to update fee config for client %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var client models.Client
	var feeJSON []byte
	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.DepartmentID,
		&feeJSON,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(feeJSON, &client.FeeConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fee config for client %d: %w", client.ID, err)
	}
	return &client, nil
}
