// internal/importer/service.go
package importer

import "context"

// Service defines the interface for the resumable historical import.
type Service interface {
	// Step processes at most one batch of the source the cursor points
	// at. Failures of the whole step come back as *StepError.
	Step(ctx context.Context, req StepRequest) (StepResult, error)
}
