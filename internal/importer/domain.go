// internal/importer/domain.go
package importer

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"ticketsync/internal/ledger"
)

var (
	ErrInvalidRequest = errors.New("invalid import request")
	errCursorMismatch = errors.New("cursor does not belong to the current source")
)

// DefaultBatchSize keeps each step well inside a request timeout.
const DefaultBatchSize = 2

// Source names accepted in a step request.
const (
	SourceOrders = "woocommerce"
	SourcePOS    = "square"
)

// Kind tells which half of Progress a source uses.
type Kind string

const (
	KindOffset Kind = "offset"
	KindToken  Kind = "token"
)

// Progress is a position inside one source. Offset sources count records
// already read; token sources carry the opaque pagination token of the
// next page. The zero value is the start of any source.
type Progress struct {
	Kind   Kind   `json:"kind,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Token  string `json:"token,omitempty"`
}

// Cursor is the whole state of an import. The caller echoes it back on
// the next step; nothing is kept between steps.
type Cursor struct {
	SourceIndex    int      `json:"source_index"`
	Progress       Progress `json:"progress"`
	TotalProcessed int      `json:"total_processed"`
}

type Range struct {
	From civil.Date
	To   civil.Date
}

// LogLine is one human-readable progress line.
type LogLine struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func info(format string, args ...any) LogLine {
	return LogLine{Message: fmt.Sprintf(format, args...), Type: "info"}
}

func warning(format string, args ...any) LogLine {
	return LogLine{Message: fmt.Sprintf(format, args...), Type: "warning"}
}

// Batch is what one source returns for one step.
type Batch struct {
	Sales     []ledger.Sale
	Logs      []LogLine
	Processed int
	Next      Progress
	Exhausted bool
}

type StepRequest struct {
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Sources   []string `json:"sources" validate:"required,min=1,dive,required"`
	Cursor    *Cursor  `json:"cursor,omitempty"`
}

// StepResult reports one step. A nil Next means the import is finished.
type StepResult struct {
	Message  string    `json:"message"`
	Logs     []LogLine `json:"logs"`
	Progress int       `json:"progress"`
	Next     *Cursor   `json:"next_cursor"`
}

// StepError is a step that failed as a whole. Cursor is the position the
// step started from, so retrying with it resumes the import.
type StepError struct {
	Message string
	Logs    []LogLine
	Cursor  Cursor
	Err     error
}

func (e *StepError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}
