package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grievance/internal/complaint/models"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
	"grievance/pkg/platform/tx"
)

// PostgresStore persists ledger entries in PostgreSQL. The table has no
// UPDATE or DELETE path; seq is a BIGSERIAL used to break created_at ties.
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

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const entryColumns = `id, complaint_id, actor_kind, actor_id, title, description, status, location, attachments, citizen_note, staff_note, created_at, seq`

func (s *PostgresStore) Append(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO complaint_history
			(id, complaint_id, actor_kind, actor_id, title, description, status, location, attachments, citizen_note, staff_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq
	`
	var actorKind, actorID any
	if !entry.Author.IsZero() {
		actorKind = string(entry.Author.Kind)
		actorID = entry.Author.ID
	}
	err := s.q(ctx).QueryRowContext(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.ComplaintID), actorKind, actorID,
		entry.Title, entry.Description, string(entry.Status), entry.Location,
		pq.Array(entry.Attachments), entry.CitizenNote, entry.StaffNote, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestFor(ctx context.Context, complaintID id.ComplaintID) (*models.HistoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM complaint_history
		WHERE complaint_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	entry, err := scanEntry(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(complaintID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest history entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) AllFor(ctx context.Context, complaintID id.ComplaintID) ([]models.HistoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM complaint_history
		WHERE complaint_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(complaintID))
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) LatestForMany(ctx context.Context, complaintIDs []id.ComplaintID) (map[id.ComplaintID]models.HistoryEntry, error) {
	if len(complaintIDs) == 0 {
		return map[id.ComplaintID]models.HistoryEntry{}, nil
	}
	raw := make([]uuid.UUID, len(complaintIDs))
	for i, cid := range complaintIDs {
		raw[i] = uuid.UUID(cid)
	}
	query := `
		SELECT DISTINCT ON (complaint_id) ` + entryColumns + `
		FROM complaint_history
		WHERE complaint_id = ANY($1)
		ORDER BY complaint_id, created_at DESC, seq DESC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("latest history entries: %w", err)
	}
	defer rows.Close()

	out := make(map[id.ComplaintID]models.HistoryEntry, len(complaintIDs))
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out[entry.ComplaintID] = *entry
	}
	return out, rows.Err()
}

type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*models.HistoryEntry, error) {
	var (
		e           models.HistoryEntry
		rawID       uuid.UUID
		rawCID      uuid.UUID
		actorKind   sql.NullString
		actorID     uuid.NullUUID
		status      string
		attachments pq.StringArray
		citizenNote sql.NullString
		staffNote   sql.NullString
	)
	if err := row.Scan(&rawID, &rawCID, &actorKind, &actorID, &e.Title, &e.Description,
		&status, &e.Location, &attachments, &citizenNote, &staffNote, &e.CreatedAt, &e.Seq); err != nil {
		return nil, err
	}
	e.ID = id.EntryID(rawID)
	e.ComplaintID = id.ComplaintID(rawCID)
	if actorKind.Valid && actorID.Valid {
		e.Author = id.Actor{Kind: id.ActorKind(actorKind.String), ID: actorID.UUID}
	}
	e.Status = models.Status(status)
	e.Attachments = attachments
	if citizenNote.Valid {
		e.CitizenNote = &citizenNote.String
	}
	if staffNote.Valid {
		e.StaffNote = &staffNote.String
	}
	return &e, nil
}
