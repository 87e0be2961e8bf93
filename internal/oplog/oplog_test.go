package oplog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/docstore"
	"ticketsync/internal/logging"
)

func TestOperationSkippedWhenModesOff(t *testing.T) {
	store := docstore.NewMemoryStore()
	rec := NewRecorder(store, logging.Discard(), Modes{})

	rec.Operation(context.Background(), "eventbrite", "push", "would push")

	entries, err := rec.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOperationKeepsMostRecent(t *testing.T) {
	store := docstore.NewMemoryStore()
	rec := NewRecorder(store, logging.Discard(), Modes{TestMode: true})
	ctx := context.Background()

	for i := 0; i < MaxEntries+5; i++ {
		rec.Operation(ctx, "ledger", "record", fmt.Sprintf("entry %d", i))
	}

	entries, err := rec.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, "entry 5", entries[0].Details)
	assert.Equal(t, fmt.Sprintf("entry %d", MaxEntries+4), entries[MaxEntries-1].Details)
	assert.True(t, entries[0].TestMode)

	require.NoError(t, rec.Clear(ctx))
	entries, err = rec.Recent(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
