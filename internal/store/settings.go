package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sqlx.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var secret string
	if err := db.GetContext(ctx, &secret, `SELECT value FROM settings WHERE key = 'jwt_secret'`); err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}

// MarkSynced records when the snapshot last matched a server reply.
func MarkSynced(ctx context.Context, db *sqlx.DB, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('last_synced', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing last_synced: %w", err)
	}
	return nil
}

// LastSynced returns the time recorded by MarkSynced, or the zero time.
func LastSynced(ctx context.Context, db *sqlx.DB) (time.Time, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = 'last_synced'`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last_synced: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last_synced: %w", err)
	}
	return t, nil
}
