// internal/importer/implementation.go
package importer

import (
	"context"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"ticketsync/internal/ledger"
	"ticketsync/internal/logging"
	"ticketsync/internal/telemetry"
	"ticketsync/internal/transport"
)

// service implements the Service interface.
type service struct {
	sales     ledger.Service
	sources   map[string]Source
	batchSize int
	counters  *telemetry.Counters
	logger    logrus.FieldLogger
}

// NewService registers sources under their names. A request may list any
// of them, in any order.
func NewService(sales ledger.Service, batchSize int, counters *telemetry.Counters, logger logrus.FieldLogger, sources ...Source) Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	byName := make(map[string]Source, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &service{
		sales:     sales,
		sources:   byName,
		batchSize: batchSize,
		counters:  counters,
		logger:    logger,
	}
}

func (s *service) Step(ctx context.Context, req StepRequest) (StepResult, error) {
	r, err := s.validate(req)
	if err != nil {
		return StepResult{}, err
	}

	var cursor Cursor
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	if cursor.SourceIndex >= len(req.Sources) {
		return StepResult{Message: "Import already completed.", Logs: []LogLine{}, Progress: 100}, nil
	}

	name := req.Sources[cursor.SourceIndex]
	src := s.sources[name]
	logs := []LogLine{info("--- Starting batch for source: %s ---", name)}

	if cursor.Progress.Kind != "" && cursor.Progress.Kind != src.Kind() {
		return StepResult{}, s.fail(cursor, logs, errCursorMismatch)
	}

	batch, err := src.FetchBatch(ctx, r, cursor.Progress, s.batchSize)
	logs = append(logs, batch.Logs...)
	if err != nil {
		return StepResult{}, s.fail(cursor, logs, fmt.Errorf("fetch %s batch: %w", name, err))
	}

	recorded := 0
	for _, sale := range batch.Sales {
		if _, err := s.sales.RecordHistorical(ctx, sale); err != nil {
			logging.LogError(s.logger, "importer", "Step", "record historical sale", sale, err)
			logs = append(logs, warning("Skipped sale of product %s from %s: %v", sale.ProductID, sale.Reference, err))
			continue
		}
		recorded++
	}
	if s.counters != nil && recorded > 0 {
		telemetry.Add(ctx, s.counters.ImportRecords, int64(recorded), attribute.String("source", name))
	}

	next := cursor
	next.TotalProcessed += batch.Processed

	var result StepResult
	if batch.Exhausted {
		logs = append(logs, info("--- Finished processing source: %s ---", name))
		next.SourceIndex++
		next.Progress = Progress{}

		if next.SourceIndex >= len(req.Sources) {
			result.Progress = 100
			result.Message = fmt.Sprintf("Import finished. Processed %d total items.", next.TotalProcessed)
			logs = append(logs, LogLine{Message: result.Message, Type: "success"})
		} else {
			result.Next = &next
			result.Progress = progress(float64(next.SourceIndex), len(req.Sources))
			result.Message = fmt.Sprintf("Finished %s. Moving to next source (%s)...", name, req.Sources[next.SourceIndex])
		}
	} else {
		next.Progress = batch.Next
		result.Next = &next
		result.Progress = progress(float64(next.SourceIndex)+0.5, len(req.Sources))
		result.Message = fmt.Sprintf("Processed batch for %s. Total items processed so far: %d. Continuing...", name, next.TotalProcessed)
	}
	result.Logs = logs
	return result, nil
}

func (s *service) fail(cursor Cursor, logs []LogLine, err error) *StepError {
	logging.LogError(s.logger, "importer", "Step", "import step failed", cursor, err)
	return &StepError{
		Message: "An unexpected error occurred during import",
		Logs:    append(logs, LogLine{Message: err.Error(), Type: "error"}),
		Cursor:  cursor,
		Err:     err,
	}
}

func (s *service) validate(req StepRequest) (Range, error) {
	if errs := transport.Validate(req); errs != nil {
		return Range{}, fmt.Errorf("%w: %v", ErrInvalidRequest, errs)
	}
	from, err := civil.ParseDate(req.StartDate)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start date: %v", ErrInvalidRequest, err)
	}
	to, err := civil.ParseDate(req.EndDate)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end date: %v", ErrInvalidRequest, err)
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("%w: start date cannot be after end date", ErrInvalidRequest)
	}
	for _, name := range req.Sources {
		if _, ok := s.sources[name]; !ok {
			return Range{}, fmt.Errorf("%w: unknown source %q", ErrInvalidRequest, name)
		}
	}
	if req.Cursor != nil && (req.Cursor.SourceIndex < 0 || req.Cursor.Progress.Offset < 0) {
		return Range{}, fmt.Errorf("%w: negative cursor position", ErrInvalidRequest)
	}
	return Range{From: from, To: to}, nil
}

// progress estimates completion from the source position alone; totals
// are unknown until a source is exhausted.
func progress(position float64, sources int) int {
	return min(99, int(math.Round(position/float64(sources)*100)))
}
