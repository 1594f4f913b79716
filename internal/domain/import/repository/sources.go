package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Source records one pasted document that was imported
type Source struct {
	ID          uuid.UUID `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Format      string    `json:"format"`
	Language    string    `json:"language"`
	StorageKey  string    `json:"storage_key"`
	Records     int       `json:"records"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordSource stores an import source row
func (r *PostgresQuestionRepository) RecordSource(ctx context.Context, src Source) (uuid.UUID, error) {
	query := `
		INSERT INTO import_sources (fingerprint, format, language, storage_key, records)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		src.Fingerprint, src.Format, src.Language, src.StorageKey, src.Records,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record import source: %w", err)
	}
	return id, nil
}

// FindSource returns the most recent import of a document with the given fingerprint
func (r *PostgresQuestionRepository) FindSource(ctx context.Context, fingerprint string) (*Source, error) {
	query := `
		SELECT id, fingerprint, format, language, storage_key, records, created_at
		FROM import_sources
		WHERE fingerprint = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var s Source
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(
		&s.ID, &s.Fingerprint, &s.Format, &s.Language, &s.StorageKey, &s.Records, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find import source: %w", err)
	}
	return &s, nil
}
