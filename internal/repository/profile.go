package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/notegen/notegen/internal/model"
)

// ErrProfileNotFound is returned when no profile exists for a subject.
var ErrProfileNotFound = errors.New("profile not found")

// UpsertProfile creates the profile or refreshes its identity fields.
// created_at is kept from the first insert and premium is never written.
func (r *Repository) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (user_id, email, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    updated_at = EXCLUDED.updated_at
		RETURNING premium, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, p.UserID, p.Email, p.DisplayName, p.UpdatedAt).
		Scan(&p.Premium, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by subject.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT user_id, email, display_name, premium, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.DisplayName,
		&p.Premium,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// DeleteUserData removes the profile and every note of the subject in one
// transaction. Returns the ids of the deleted notes.
func (r *Repository) DeleteUserData(ctx context.Context, userID string) ([]string, error) {
	var ids []string

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}

		var err error
		ids, err = deleteNotesWhere(ctx, tx, `user_id = $1`, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// SetPremium flips the premium flag. This is the billing write path; the
// HTTP surface never calls it. The next admission for userID sees the new
// tier, since admission reads the flag from this table every time.
func (r *Repository) SetPremium(ctx context.Context, userID string, premium bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET premium = $2, updated_at = $3 WHERE user_id = $1`,
		userID, premium, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set premium: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
