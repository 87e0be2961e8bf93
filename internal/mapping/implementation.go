// internal/mapping/implementation.go
package mapping

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/docstore"
	"ticketsync/internal/heuristics"
	"ticketsync/internal/lock"
	"ticketsync/internal/logging"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/oplog"
)

// service implements the Service interface.
type service struct {
	store     docstore.Store
	locker    lock.Locker
	ops       *oplog.Recorder
	logger    logrus.FieldLogger
	tolerance time.Duration
}

// NewService creates a mapping store over the shared document store.
func NewService(store docstore.Store, locker lock.Locker, ops *oplog.Recorder, logger logrus.FieldLogger, tolerance time.Duration) Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if tolerance <= 0 {
		tolerance = heuristics.DefaultTolerance
	}
	return &service{
		store:     store,
		locker:    locker,
		ops:       ops,
		logger:    logger,
		tolerance: tolerance,
	}
}

func (s *service) load(ctx context.Context) (document, error) {
	var doc document
	if _, err := s.store.Load(ctx, docstore.ProductMappings, &doc); err != nil {
		return doc, fmt.Errorf("load mappings: %w", err)
	}
	return doc, nil
}

// Resolve applies the lookup precedence: a timed mapping on the same date
// within tolerance, first in saved order; then the date-only mapping; then
// the product default.
func (s *service) Resolve(ctx context.Context, productID string, date civil.Date, clock string) (ChannelMapping, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return ChannelMapping{}, err
	}
	pm := doc.Products[productID]
	if pm == nil {
		return ChannelMapping{}, nil
	}
	if date.IsZero() {
		return pm.Default, nil
	}

	if c, ok := heuristics.ParseTimeValue(clock); ok {
		clock = c
	}
	if clock != "" {
		prefix := date.String() + "_"
		for _, occ := range pm.Occurrences {
			stored, ok := strings.CutPrefix(occ.Key, prefix)
			if ok && heuristics.TimeClose(stored, clock, s.tolerance) {
				return occ.ChannelMapping, nil
			}
		}
	}

	dateKey := occurrence.Key(date, "")
	for _, occ := range pm.Occurrences {
		if occ.Key == dateKey {
			return occ.ChannelMapping, nil
		}
	}
	return pm.Default, nil
}

// Save clears the product's occurrence mappings and writes entries in
// order. Times are stored as HH:MM and an unreadable one fails the whole
// save. Entries without any remote id are dropped; a repeated occurrence
// keeps its first position and its last value.
func (s *service) Save(ctx context.Context, productID string, entries []OccurrenceMapping) (int, error) {
	if productID == "" {
		return 0, ErrMissingProduct
	}

	occurrences := make([]storedOccurrence, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		clock := ""
		if e.Time != "" {
			c, ok := heuristics.ParseTimeValue(e.Time)
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrInvalidTime, e.Time)
			}
			clock = c
		}
		if e.IsEmpty() || e.Date.IsZero() {
			continue
		}
		key := occurrence.Key(e.Date, clock)
		if i, ok := index[key]; ok {
			occurrences[i].ChannelMapping = e.ChannelMapping
			continue
		}
		index[key] = len(occurrences)
		occurrences = append(occurrences, storedOccurrence{Key: key, ChannelMapping: e.ChannelMapping})
	}

	err := s.write(ctx, func(doc *document) error {
		pm := doc.product(productID)
		pm.Occurrences = occurrences
		return nil
	})
	if err != nil {
		logging.LogError(s.logger, "mapping", "Save", "replace occurrence mappings", productID, err)
		return 0, err
	}

	s.ops.Operation(ctx, "Mappings", "Save Occurrences",
		fmt.Sprintf("Product %s: stored %d occurrence mappings (%d submitted)", productID, len(occurrences), len(entries)))
	return len(occurrences), nil
}

func (s *service) SaveDefault(ctx context.Context, productID string, m ChannelMapping) error {
	if productID == "" {
		return ErrMissingProduct
	}
	err := s.write(ctx, func(doc *document) error {
		doc.product(productID).Default = m
		return nil
	})
	if err != nil {
		logging.LogError(s.logger, "mapping", "SaveDefault", "save product default", productID, err)
		return err
	}
	s.ops.Operation(ctx, "Mappings", "Save Default",
		fmt.Sprintf("Product %s: ticket %q, pos %q", productID, m.TicketID, m.POSID))
	return nil
}

func (s *service) write(ctx context.Context, mutate func(*document) error) error {
	release, err := s.locker.Acquire(ctx, docstore.ProductMappings)
	if err != nil {
		return fmt.Errorf("lock mappings: %w", err)
	}
	defer release()

	_, err = docstore.Update(ctx, s.store, docstore.ProductMappings, mutate)
	return err
}

func (d *document) product(id string) *productMappings {
	if d.Products == nil {
		d.Products = map[string]*productMappings{}
	}
	pm := d.Products[id]
	if pm == nil {
		pm = &productMappings{}
		d.Products[id] = pm
	}
	return pm
}

func (s *service) Occurrences(ctx context.Context, productID string) ([]ResolvedMapping, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	pm := doc.Products[productID]
	if pm == nil {
		return nil, nil
	}
	return s.occurrencesOf(productID, pm), nil
}

func (s *service) occurrencesOf(productID string, pm *productMappings) []ResolvedMapping {
	out := make([]ResolvedMapping, 0, len(pm.Occurrences))
	for _, occ := range pm.Occurrences {
		date, clock, err := occurrence.SplitKey(occ.Key)
		if err != nil {
			logging.LogError(s.logger, "mapping", "Occurrences", "skip malformed occurrence key", occ.Key, err)
			continue
		}
		out = append(out, ResolvedMapping{
			ProductID:      productID,
			Key:            occ.Key,
			Date:           date,
			Time:           clock,
			ChannelMapping: occ.ChannelMapping,
		})
	}
	return out
}

// All lists every non-empty default followed by the product's occurrence
// mappings, products in id order.
func (s *service) All(ctx context.Context) ([]ResolvedMapping, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(doc.Products))
	for id := range doc.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []ResolvedMapping
	for _, id := range ids {
		pm := doc.Products[id]
		if pm == nil {
			continue
		}
		if !pm.Default.IsEmpty() {
			out = append(out, ResolvedMapping{ProductID: id, ChannelMapping: pm.Default})
		}
		out = append(out, s.occurrencesOf(id, pm)...)
	}
	return out, nil
}

// FindByPOSID prefers occurrence mappings, which carry a date, over
// product defaults.
func (s *service) FindByPOSID(ctx context.Context, posID string) (ResolvedMapping, bool, error) {
	if posID == "" {
		return ResolvedMapping{}, false, nil
	}
	all, err := s.All(ctx)
	if err != nil {
		return ResolvedMapping{}, false, err
	}
	var fallback *ResolvedMapping
	for i, m := range all {
		if m.POSID != posID {
			continue
		}
		if !m.IsDefault() {
			return m, true, nil
		}
		if fallback == nil {
			fallback = &all[i]
		}
	}
	if fallback != nil {
		return *fallback, true, nil
	}
	return ResolvedMapping{}, false, nil
}
