// internal/oplog/oplog.go
package oplog

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ticketsync/internal/docstore"
	"ticketsync/internal/logging"
)

// MaxEntries caps the persisted operation log.
const MaxEntries = 1000

// Modes are the two operator switches that control would-do logging.
type Modes struct {
	TestMode    bool `json:"test_mode"`
	LiveLogging bool `json:"live_logging"`
}

// ShouldLog reports whether operations are recorded at all.
func (m Modes) ShouldLog() bool {
	return m.TestMode || m.LiveLogging
}

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Operation string    `json:"operation"`
	Details   string    `json:"details"`
	TestMode  bool      `json:"test_mode"`
}

type document struct {
	Entries []Entry `json:"entries"`
}

// Recorder writes operation entries to the structured log and keeps the
// most recent MaxEntries in the document store.
type Recorder struct {
	store  docstore.Store
	logger logrus.FieldLogger
	modes  Modes
	now    func() time.Time
}

func NewRecorder(store docstore.Store, logger logrus.FieldLogger, modes Modes) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		modes:  modes,
		now:    time.Now,
	}
}

// Modes is nil-safe; a nil Recorder has both switches off.
func (r *Recorder) Modes() Modes {
	if r == nil {
		return Modes{}
	}
	return r.modes
}

// Operation records one action. Nothing is written unless test mode or
// live logging is on. A failed write is logged and otherwise ignored.
func (r *Recorder) Operation(ctx context.Context, source, operation, details string) {
	if r == nil || !r.modes.ShouldLog() {
		return
	}

	entry := Entry{
		Timestamp: r.now().UTC(),
		Source:    source,
		Operation: operation,
		Details:   details,
		TestMode:  r.modes.TestMode,
	}

	r.logger.WithFields(logrus.Fields{
		"source":    source,
		"operation": operation,
		"test_mode": entry.TestMode,
	}).Info(details)

	_, err := docstore.Update(ctx, r.store, docstore.OperationLogs, func(doc *document) error {
		doc.Entries = append(doc.Entries, entry)
		if over := len(doc.Entries) - MaxEntries; over > 0 {
			doc.Entries = doc.Entries[over:]
		}
		return nil
	})
	if err != nil {
		logging.LogError(r.logger, "oplog", "Operation", "persist operation log", entry, err)
	}
}

// Recent returns stored entries, oldest first.
func (r *Recorder) Recent(ctx context.Context) ([]Entry, error) {
	var doc document
	if _, err := r.store.Load(ctx, docstore.OperationLogs, &doc); err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// Clear drops all stored entries.
func (r *Recorder) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, docstore.OperationLogs)
}
