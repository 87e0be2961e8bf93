package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/oplog"
)

func newTestRouter(t *testing.T) (http.Handler, *service) {
	svc, _, _ := newTestService(oplog.Modes{})
	r := chi.NewRouter()
	r.Route("/ledger", NewHandler(svc).Routes)
	return r, svc
}

func TestHandleSummary(t *testing.T) {
	r, svc := newTestRouter(t)
	_, err := svc.Record(context.Background(), Sale{Channel: ChannelPOS, ProductID: "42", Quantity: 2})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/summary?from=2026-10-14&to=2026-10-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.SquareSales)
	assert.Len(t, got.Days, 2)
}

func TestHandleDaily(t *testing.T) {
	r, svc := newTestRouter(t)
	_, err := svc.Record(context.Background(), Sale{Channel: ChannelLocal, ProductID: "42", Quantity: 1})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/daily/2026-10-15", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got["42"].WooCommerce)
}

func TestHandleBadPeriod(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, target := range []string{
		"/ledger/total",
		"/ledger/total?from=yesterday",
		"/ledger/products?from=2026-10-15&to=2026-10-01",
		"/ledger/daily/15-10-2026",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleReset(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ledger/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
