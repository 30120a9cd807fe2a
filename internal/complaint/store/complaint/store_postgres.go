package complaint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grievance/internal/complaint/models"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
	"grievance/pkg/platform/tx"
)

// PostgresStore persists complaint headers in PostgreSQL. Lock acquisition is
// a single conditional UPDATE so two actors can never both observe "unlocked"
// and both succeed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction bound to the context when one is running,
// otherwise the pooled connection.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (id, citizen_id, category, authority, assignee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var assignee any
	if c.Assignee != nil {
		assignee = uuid.UUID(*c.Assignee)
	}
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.CitizenID), c.Category, c.Authority, assignee, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

const complaintColumns = `id, citizen_id, category, authority, assignee, lock_kind, lock_holder, lock_acquired_at, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	c, err := scanComplaint(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(complaintID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.CitizenID != nil {
		args = append(args, uuid.UUID(*filter.CitizenID))
		query += fmt.Sprintf(" AND citizen_id = $%d", len(args))
	}
	if filter.Authority != nil {
		args = append(args, *filter.Authority)
		query += fmt.Sprintf(" AND authority = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var complaints []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

// AcquireLock is a compare-and-set: the UPDATE only matches when the row is
// unlocked or already held by the same actor. Zero rows affected means either
// the complaint is missing or another actor holds the lock; a follow-up read
// distinguishes the two.
func (s *PostgresStore) AcquireLock(ctx context.Context, complaintID id.ComplaintID, actor id.Actor, now time.Time) error {
	query := `
		UPDATE complaints
		SET lock_kind = $2, lock_holder = $3, lock_acquired_at = $4
		WHERE id = $1
		  AND (lock_holder IS NULL OR (lock_kind = $2 AND lock_holder = $3))
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(complaintID), string(actor.Kind), actor.ID, now)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire lock rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := s.FindByID(ctx, complaintID); err != nil {
		return err
	}
	return sentinel.ErrLockHeld
}

// ReleaseLock clears the lock only when the caller is the current holder.
func (s *PostgresStore) ReleaseLock(ctx context.Context, complaintID id.ComplaintID, actor id.Actor) (bool, error) {
	query := `
		UPDATE complaints
		SET lock_kind = NULL, lock_holder = NULL, lock_acquired_at = NULL
		WHERE id = $1 AND lock_kind = $2 AND lock_holder = $3
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(complaintID), string(actor.Kind), actor.ID)
	if err != nil {
		return false, fmt.Errorf("release lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release lock rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.FindByID(ctx, complaintID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ReleaseLocksHeldBy releases every lock the actor holds, except the given
// complaint when except is non-nil (the nil UUID means no exclusion).
func (s *PostgresStore) ReleaseLocksHeldBy(ctx context.Context, actor id.Actor, except id.ComplaintID) (int, error) {
	query := `
		UPDATE complaints
		SET lock_kind = NULL, lock_holder = NULL, lock_acquired_at = NULL
		WHERE lock_kind = $1 AND lock_holder = $2 AND id <> $3
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		string(actor.Kind), actor.ID, uuid.UUID(except))
	if err != nil {
		return 0, fmt.Errorf("release locks held by actor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release locks rows affected: %w", err)
	}
	return int(rows), nil
}

type complaintRow interface {
	Scan(dest ...any) error
}

func scanComplaint(row complaintRow) (*models.Complaint, error) {
	var (
		c              models.Complaint
		rawID          uuid.UUID
		rawCitizen     uuid.UUID
		assignee       uuid.NullUUID
		lockKind       sql.NullString
		lockHolder     uuid.NullUUID
		lockAcquiredAt sql.NullTime
	)
	if err := row.Scan(&rawID, &rawCitizen, &c.Category, &c.Authority, &assignee,
		&lockKind, &lockHolder, &lockAcquiredAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ComplaintID(rawID)
	c.CitizenID = id.CitizenID(rawCitizen)
	if assignee.Valid {
		a := id.UserID(assignee.UUID)
		c.Assignee = &a
	}
	if lockKind.Valid && lockHolder.Valid {
		c.LockHolder = id.Actor{Kind: id.ActorKind(lockKind.String), ID: lockHolder.UUID}
	}
	if lockAcquiredAt.Valid {
		c.LockAcquiredAt = &lockAcquiredAt.Time
	}
	return &c, nil
}
