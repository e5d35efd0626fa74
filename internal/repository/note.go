package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/notegen/notegen/internal/model"
)

// Common errors for note repository operations.
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrQuotaExceeded     = errors.New("daily quota exceeded")
	ErrInvalidTransition = errors.New("invalid status transition")
)

const noteColumns = `id, user_id, prompt, options, status, content, error, archived, created_at`

// CreateNote inserts a note without any quota check.
// Used for seeding and imports; admission always goes through AdmitNote.
func (r *Repository) CreateNote(ctx context.Context, note *model.Note) error {
	return insertNote(ctx, r.pool, note)
}

// AdmitNote inserts note only if the owner has fewer than limit notes
// created at or after since. Concurrent admissions for the same owner are
// serialized by a transaction-scoped advisory lock, so the count cannot
// be raced past the limit. Returns the usage observed before the insert.
func (r *Repository) AdmitNote(ctx context.Context, note *model.Note, since time.Time, limit int) (int, error) {
	var usage int

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, note.UserID); err != nil {
			return fmt.Errorf("failed to lock owner: %w", err)
		}

		var err error
		usage, err = countNotesSince(ctx, tx, note.UserID, since)
		if err != nil {
			return err
		}
		if usage >= limit {
			return ErrQuotaExceeded
		}

		return insertNote(ctx, tx, note)
	})

	return usage, err
}

// CountNotesSince counts the notes a subject created at or after since.
func (r *Repository) CountNotesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return countNotesSince(ctx, r.pool, userID, since)
}

// GetNoteByID retrieves a note by its ID.
func (r *Repository) GetNoteByID(ctx context.Context, id string) (*model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	note, err := scanNote(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note by ID: %w", err)
	}

	return note, nil
}

// CompleteNote moves a pending note to a terminal status.
// This is the generation worker's write path; the HTTP surface never
// calls it. done and error are terminal, so a second completion returns
// ErrInvalidTransition.
func (r *Repository) CompleteNote(ctx context.Context, id string, status model.NoteStatus, content, errText *string) error {
	if !status.IsTerminal() {
		return ErrInvalidTransition
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notes SET status = $2, content = $3, error = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, content, errText)
	if err != nil {
		return fmt.Errorf("failed to complete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetNoteByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// SetNoteArchived sets the archived flag. Archiving is owned by the
// client-facing store; archived notes older than the retention window are
// removed by DeleteArchivedNotesBefore.
func (r *Repository) SetNoteArchived(ctx context.Context, id string, archived bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notes SET archived = $2 WHERE id = $1`, id, archived)
	if err != nil {
		return fmt.Errorf("failed to archive note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteArchivedNotesBefore deletes every archived note created before
// cutoff in one transaction and returns the deleted notes' owners by id.
func (r *Repository) DeleteArchivedNotesBefore(ctx context.Context, cutoff time.Time) ([]DeletedNote, error) {
	var deleted []DeletedNote

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, user_id FROM notes
			WHERE created_at < $1 AND archived = TRUE
			FOR UPDATE
		`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to select expired notes: %w", err)
		}
		defer rows.Close()

		ids := make([]string, 0)
		for rows.Next() {
			var d DeletedNote
			if err := rows.Scan(&d.ID, &d.UserID); err != nil {
				return fmt.Errorf("failed to scan expired note: %w", err)
			}
			deleted = append(deleted, d)
			ids = append(ids, d.ID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate expired notes: %w", err)
		}
		rows.Close()

		return deleteNotesByID(ctx, tx, ids)
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// DeletedNote identifies a removed note.
type DeletedNote struct {
	ID     string
	UserID string
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func insertNote(ctx context.Context, q querier, note *model.Note) error {
	query := `
		INSERT INTO notes (id, user_id, prompt, options, status, archived)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING created_at
	`

	// created_at is assigned by the database clock.
	err := q.QueryRow(ctx, query,
		note.ID,
		note.UserID,
		note.Prompt,
		[]byte(note.Options),
		note.Status,
	).Scan(&note.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func countNotesSince(ctx context.Context, q querier, userID string, since time.Time) (int, error) {
	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM notes WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// deleteNotesWhere deletes the notes matching cond and returns their ids.
func deleteNotesWhere(ctx context.Context, tx pgx.Tx, cond string, args ...any) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM notes WHERE `+cond+` FOR UPDATE`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect note ids: %w", err)
	}

	if err := deleteNotesByID(ctx, tx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func deleteNotesByID(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return fmt.Errorf("failed to delete notes: removed %d of %d", tag.RowsAffected(), len(ids))
	}
	return nil
}

func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	var options []byte

	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Prompt,
		&options,
		&note.Status,
		&note.Content,
		&note.Error,
		&note.Archived,
		&note.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	note.Options = options

	return &note, nil
}
