// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/notegen/notegen/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// Migrations lists the schema migrations in apply order.
var Migrations = []string{
	"000001_profiles",
	"000002_notes",
}

// ResetSchema drops and recreates every table from migrations/.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(Migrations) - 1; i >= 0; i-- {
		if err := ApplyMigration(ctx, pool, Migrations[i], "down"); err != nil {
			return err
		}
	}
	for _, name := range Migrations {
		if err := ApplyMigration(ctx, pool, name, "up"); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMigration runs migrations/<name>.<direction>.sql.
func ApplyMigration(ctx context.Context, pool *pgxpool.Pool, name, direction string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	path := filepath.Join(root, "migrations", name+"."+direction+".sql")
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s migration %s: %w", direction, name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s migration %s: %w", direction, name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestNote creates a pending test note with sensible defaults.
func NewTestNote(t testing.TB, userID string) *model.Note {
	t.Helper()
	return &model.Note{
		ID:      UniqueID("note"),
		UserID:  userID,
		Prompt:  "summarize the meeting",
		Options: json.RawMessage(`{"length":"short"}`),
		Status:  model.NoteStatusPending,
	}
}

// NewTestProfile creates a test profile for userID.
func NewTestProfile(t testing.TB, userID string) *model.Profile {
	t.Helper()
	email := userID + "@example.com"
	now := time.Now().UTC()
	return &model.Profile{
		UserID:    userID,
		Email:     &email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	if len(id) > 26 {
		id = id[len(id)-26:]
	}
	return id
}
