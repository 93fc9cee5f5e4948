package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientService manages the owner's client records.
type ClientService interface {
	CreateClient(ctx context.Context, ownerID string, in ClientInput) (*Client, error)
	UpdateClient(ctx context.Context, ownerID, clientID string, in ClientInput) (*Client, error)
	// DeleteClient hard-deletes the client. Invoices keep a NULL client reference.
	DeleteClient(ctx context.Context, ownerID, clientID string) error
	GetClient(ctx context.Context, ownerID, clientID string) (*Client, error)
	ListClients(ctx context.Context, ownerID string) ([]Client, error)
}

type clientService struct {
	pool *pgxpool.Pool
}

// NewClientService constructs a ClientService backed by PostgreSQL.
func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

const clientColumns = `id::text, owner_id::text, name, email, company, tax_id, address, notes, created_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Company, &c.TaxID, &c.Address, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the client invariants: non-empty name and a parseable email when present.
func (in ClientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("name", "is required")
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return invalidf("email", "%q is not a valid address", email)
		}
	}
	return nil
}

func (s *clientService) CreateClient(ctx context.Context, ownerID string, in ClientInput) (*Client, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c, err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (owner_id, name, email, company, tax_id, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+clientColumns,
		ownerID, strings.TrimSpace(in.Name), nullIfBlank(in.Email), nullIfBlank(in.Company),
		nullIfBlank(in.TaxID), nullIfBlank(in.Address), nullIfBlank(in.Notes),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

func (s *clientService) UpdateClient(ctx context.Context, ownerID, clientID string, in ClientInput) (*Client, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !validID(clientID) {
		return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c, err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $3, email = $4, company = $5, tax_id = $6, address = $7, notes = $8
		WHERE id = $1 AND owner_id = $2
		RETURNING `+clientColumns,
		clientID, ownerID, strings.TrimSpace(in.Name), nullIfBlank(in.Email), nullIfBlank(in.Company),
		nullIfBlank(in.TaxID), nullIfBlank(in.Address), nullIfBlank(in.Notes),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update client %s: %w", clientID, err)
	}
	return c, nil
}

func (s *clientService) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if !validID(clientID) {
		return fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}

	tag, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1 AND owner_id = $2", clientID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete client %s: %w", clientID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	return nil
}

func (s *clientService) GetClient(ctx context.Context, ownerID, clientID string) (*Client, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return getClientQ(ctx, s.pool, ownerID, clientID)
}

func getClientQ(ctx context.Context, q pgxQuerier, ownerID, clientID string) (*Client, error) {
	if !validID(clientID) {
		return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	c, err := scanClient(q.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1 AND owner_id = $2",
		clientID, ownerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch client %s: %w", clientID, err)
	}
	return c, nil
}

func (s *clientService) ListClients(ctx context.Context, ownerID string) ([]Client, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE owner_id = $1 ORDER BY name, created_at",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}
