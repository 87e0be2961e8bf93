// internal/mapping/service.go
package mapping

import (
	"context"

	"cloud.google.com/go/civil"
)

// Service defines the interface for the mapping store.
type Service interface {
	// Resolve picks the mapping for a sale or sync of productID. A zero
	// date asks for the product default.
	Resolve(ctx context.Context, productID string, date civil.Date, clock string) (ChannelMapping, error)
	// Save replaces every occurrence mapping of productID and returns how
	// many were stored.
	Save(ctx context.Context, productID string, entries []OccurrenceMapping) (int, error)
	SaveDefault(ctx context.Context, productID string, m ChannelMapping) error
	Occurrences(ctx context.Context, productID string) ([]ResolvedMapping, error)
	All(ctx context.Context) ([]ResolvedMapping, error)
	// FindByPOSID returns a mapping that names the POS object, preferring
	// occurrence mappings.
	FindByPOSID(ctx context.Context, posID string) (ResolvedMapping, bool, error)
}
