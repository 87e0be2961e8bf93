package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/mapping"
	"ticketsync/internal/oplog"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	f := newFixture(t, oplog.Modes{})
	r := chi.NewRouter()
	h := NewHandler(f.svc)
	h.WebhookRoutes(r)
	h.Routes(r)
	return r, f
}

func TestHandleOrderWebhook(t *testing.T) {
	r, f := newTestRouter(t)
	require.NoError(t, f.mappings.SaveDefault(context.Background(), "42", mapping.ChannelMapping{TicketID: "T1"}))

	body := `{"id":"1001","status":"completed","currency":"USD","line_items":[{"product_id":"42","name":"Friday Improv","quantity":3,"total":"45.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, OutcomePushed, got.Items[0].Push.Outcome)
	assert.Equal(t, 97, got.Items[0].Push.NewCapacity)
}

func TestHandleRemoteSaleValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/remote-sales", strings.NewReader(`{"channel":"walk-in","product_id":"42","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/remote-sales", strings.NewReader(`{"channel":"square","product_id":"42","quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleTestTicketNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/nope/test", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSync(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report SyncReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 0, report.Checked)
}
