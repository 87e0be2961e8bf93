// internal/docstore/docstore.go
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidName         = errors.New("invalid document name")
)

// Document names shared by the services.
const (
	ProductMappings = "product_mappings"
	DailySales      = "daily_sales"
	OperationLogs   = "operation_logs"
)

// Store keeps whole JSON documents under a name. Every write replaces the
// full value and carries the version the caller read.
type Store interface {
	// Load decodes the named document into dest and returns its version.
	// A missing document leaves dest untouched and reports version 0.
	Load(ctx context.Context, name string, dest any) (int, error)

	// Replace writes value when the stored version still equals
	// expectedVersion and returns the new version.
	Replace(ctx context.Context, name string, expectedVersion int, value any) (int, error)

	// Delete removes the named document.
	Delete(ctx context.Context, name string) error
}

// UpdateAttempts bounds how often Update rereads after a version conflict.
const UpdateAttempts = 3

// Update runs a read-modify-write cycle on a single document. On a version
// conflict the document is reloaded and mutate runs again, so mutate must
// only touch the document it is given.
func Update[T any](ctx context.Context, s Store, name string, mutate func(*T) error) (T, error) {
	var (
		doc T
		err error
	)
	for attempt := 0; attempt < UpdateAttempts; attempt++ {
		doc, err = update(ctx, s, name, mutate)
		if !errors.Is(err, ErrConcurrencyConflict) {
			return doc, err
		}
	}
	return doc, err
}

func update[T any](ctx context.Context, s Store, name string, mutate func(*T) error) (T, error) {
	var doc T
	version, err := s.Load(ctx, name, &doc)
	if err != nil {
		return doc, fmt.Errorf("load %s: %w", name, err)
	}
	if err := mutate(&doc); err != nil {
		return doc, err
	}
	if _, err := s.Replace(ctx, name, version, doc); err != nil {
		return doc, fmt.Errorf("replace %s: %w", name, err)
	}
	return doc, nil
}
