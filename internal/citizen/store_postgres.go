package citizen

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
)

// PostgresStore persists citizen accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c *Citizen) error {
	query := `
		INSERT INTO citizens (id, full_name, email, push_token, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			push_token = EXCLUDED.push_token
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.FullName, c.Email, c.PushToken, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save citizen: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindOne(ctx context.Context, citizenID id.CitizenID) (*Citizen, error) {
	query := `SELECT id, full_name, email, push_token, created_at FROM citizens WHERE id = $1`
	var (
		c         Citizen
		rawID     uuid.UUID
		pushToken sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(citizenID)).
		Scan(&rawID, &c.FullName, &c.Email, &pushToken, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find citizen: %w", err)
	}
	c.ID = id.CitizenID(rawID)
	if pushToken.Valid {
		c.PushToken = &pushToken.String
	}
	return &c, nil
}

func (s *PostgresStore) SetPushToken(ctx context.Context, citizenID id.CitizenID, token *string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE citizens SET push_token = $2 WHERE id = $1`, uuid.UUID(citizenID), token)
	if err != nil {
		return fmt.Errorf("set push token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set push token rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
