// internal/docstore/postgres.go
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Schema creates the documents table used by PostgresStore.
const Schema = `
	CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		version    INT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// PostgresStore provides serializable, version-checked document writes.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("ticketsync/docstore"),
	}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, name string, dest any) (int, error) {
	ctx, span := s.tracer.Start(ctx, "docstore.load",
		trace.WithAttributes(attribute.String("document.name", name)),
	)
	defer span.End()

	if name == "" {
		return 0, ErrInvalidName
	}

	var (
		body    []byte
		version int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT body, version
		FROM documents
		WHERE name = $1
	`, name).Scan(&body, &version)

	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("document.found", false))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query document: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return 0, fmt.Errorf("decode document %s: %w", name, err)
	}

	span.SetAttributes(
		attribute.Bool("document.found", true),
		attribute.Int("document.version", version),
		attribute.Int("document.bytes", len(body)),
	)
	return version, nil
}

func (s *PostgresStore) Replace(ctx context.Context, name string, expectedVersion int, value any) (int, error) {
	ctx, span := s.tracer.Start(ctx, "docstore.replace",
		trace.WithAttributes(
			attribute.String("document.name", name),
			attribute.Int("expected.version", expectedVersion),
		),
	)
	defer span.End()

	if name == "" {
		return 0, ErrInvalidName
	}

	body, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encode document %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM documents
		WHERE name = $1
	`, name).Scan(&currentVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query current version: %w", err)
	}

	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return 0, ErrConcurrencyConflict
	}

	next := expectedVersion + 1
	if expectedVersion == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (name, body, version, updated_at)
			VALUES ($1, $2, $3, $4)
		`, name, body, next, time.Now().UTC())
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET body = $2, version = $3, updated_at = $4
			WHERE name = $1 AND version = $5
		`, name, body, next, time.Now().UTC(), expectedVersion)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == "23505" || pqErr.Code == "40001") {
			return 0, ErrConcurrencyConflict
		}
		return 0, fmt.Errorf("write document %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "40001" {
			return 0, ErrConcurrencyConflict
		}
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("replace.success", true),
		attribute.Int("document.version", next),
	)
	return next, nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	ctx, span := s.tracer.Start(ctx, "docstore.delete",
		trace.WithAttributes(attribute.String("document.name", name)),
	)
	defer span.End()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	return nil
}
