package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoard struct {
	mu         sync.Mutex
	view       *domain.KitchenView
	viewErr    error
	lastOpts   domain.ViewOptions
	advance    domain.ItemStatus
	advanceErr error
	refreshErr error
	changes    chan struct{}
	unsubbed   bool
}

func (b *fakeBoard) View(_ context.Context, opts domain.ViewOptions) (*domain.KitchenView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastOpts = opts
	if b.viewErr != nil {
		return nil, b.viewErr
	}
	v := *b.view
	v.Mode = opts.Mode
	return &v, nil
}

func (b *fakeBoard) Advance(context.Context, uuid.UUID) (domain.ItemStatus, error) {
	return b.advance, b.advanceErr
}

func (b *fakeBoard) Refresh(context.Context) error { return b.refreshErr }
func (b *fakeBoard) Notify()                       {}

func (b *fakeBoard) Subscribe() (<-chan struct{}, func()) {
	return b.changes, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.unsubbed = true
	}
}

func (b *fakeBoard) opts() domain.ViewOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOpts
}

func sampleView() *domain.KitchenView {
	now := time.Date(2025, time.December, 24, 15, 46, 0, 0, time.UTC)
	item := domain.ViewItem{
		PreparationItem: domain.PreparationItem{
			ItemID:       uuid.New(),
			OrderID:      uuid.New(),
			OrderNumber:  "P-001",
			CustomerName: "Lupita",
			MenuItemName: "Ensalada",
			Quantity:     3,
			Category:     domain.CategoryEntradas,
			DeliveryTime: "18:00",
			PrepStart:    time.Date(2025, time.December, 24, 16, 0, 0, 0, time.UTC),
			Status:       domain.ItemStatusPending,
		},
		Urgency: domain.UrgencyStartNow,
	}
	return &domain.KitchenView{
		GeneratedAt: now,
		RefreshedAt: now,
		Groups: []domain.CategoryGroup{
			{Category: domain.CategoryEntradas, Label: "Entradas", LeadTimeHours: 2, Items: []domain.ViewItem{item}},
		},
		Items: []domain.ViewItem{item},
	}
}

func newTestMux(board *fakeBoard) http.Handler {
	mux := http.NewServeMux()
	NewKitchenHandler(board, logger.Nop()).Register(mux)
	return RecoveryMiddleware(logger.Nop())(LoggingMiddleware(logger.Nop())(mux))
}

func TestGetView_ByCategory(t *testing.T) {
	board := &fakeBoard{view: sampleView()}
	rec := httptest.NewRecorder()
	newTestMux(board).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kitchen/items", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, domain.ViewOptions{Mode: domain.ViewByCategory}, board.opts())

	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "byCategory", resp.View)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Entradas", resp.Groups[0].Label)
	require.Len(t, resp.Groups[0].Items, 1)
	assert.Equal(t, "preparar_ahora", resp.Groups[0].Items[0].Urgency)
	assert.Empty(t, resp.Items, "items are only listed in timeline mode")
}

func TestGetView_TimelineWithCompleted(t *testing.T) {
	board := &fakeBoard{view: sampleView()}
	rec := httptest.NewRecorder()
	newTestMux(board).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kitchen/items?view=timeline&show_completed=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ViewOptions{Mode: domain.ViewTimeline, ShowCompleted: true}, board.opts())

	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "P-001", resp.Items[0].OrderNumber)
}

func TestGetView_BadQuery(t *testing.T) {
	for _, target := range []string{"/kitchen/items?view=grid", "/kitchen/items?show_completed=maybe"} {
		rec := httptest.NewRecorder()
		newTestMux(&fakeBoard{view: sampleView()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetView_BoardDown(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&fakeBoard{viewErr: errors.New("stopped")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kitchen/items", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdvanceItem(t *testing.T) {
	id := uuid.New()
	board := &fakeBoard{advance: domain.ItemStatusPreparing}

	rec := httptest.NewRecorder()
	newTestMux(board).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/kitchen/items/"+id.String()+"/advance", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, AdvanceResponse{ID: id.String(), Status: "preparando"}, resp)
}

func TestAdvanceItem_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		err  error
		code int
	}{
		{"bad id", "not-a-uuid", nil, http.StatusBadRequest},
		{"not found", uuid.NewString(), fmt.Errorf("%w: x", domain.ErrItemNotFound), http.StatusNotFound},
		{"conflict", uuid.NewString(), fmt.Errorf("advance: %w", domain.ErrStatusTransitionConflict), http.StatusConflict},
		{"store down", uuid.NewString(), fmt.Errorf("advance: %w", domain.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"other", uuid.NewString(), errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestMux(&fakeBoard{advanceErr: tt.err}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/kitchen/items/"+tt.id+"/advance", nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAdvanceItem_WrongMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&fakeBoard{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kitchen/items/"+uuid.NewString()+"/advance", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRefresh(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&fakeBoard{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/kitchen/refresh", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	board := &fakeBoard{refreshErr: fmt.Errorf("list: %w", domain.ErrStoreUnavailable)}
	newTestMux(board).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/kitchen/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggingMiddleware_KeepsRequestID(t *testing.T) {
	h := LoggingMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-abc", rec.Header().Get(requestIDHeader))
}

func TestStream(t *testing.T) {
	board := &fakeBoard{view: sampleView(), changes: make(chan struct{}, 1)}
	srv := httptest.NewServer(newTestMux(board))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/kitchen/ws?view=timeline"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first ViewResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "timeline", first.View)
	require.Len(t, first.Items, 1)

	board.changes <- struct{}{}
	var second ViewResponse
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "timeline", second.View)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		board.mu.Lock()
		defer board.mu.Unlock()
		return board.unsubbed
	}, 2*time.Second, 10*time.Millisecond)
}

type fakeCatalog struct {
	items      []*domain.MenuItem
	err        error
	onlyActive bool
}

func (c *fakeCatalog) ListMenu(_ context.Context, onlyActive bool) ([]*domain.MenuItem, error) {
	c.onlyActive = onlyActive
	return c.items, c.err
}

func TestListMenu(t *testing.T) {
	base := decimal.RequireFromString("120")
	special := decimal.RequireFromString("150")
	catalog := &fakeCatalog{items: []*domain.MenuItem{{
		ID:        uuid.New(),
		Name:      "Pierna",
		Category:  domain.CategoryPlatosFuertes,
		Unit:      "kg",
		BasePrice: &base,
		Active:    true,
		Variants: []domain.MenuVariant{
			{ID: uuid.New(), Name: "Adobada", Price: &special},
			{ID: uuid.New(), Name: "Natural"},
		},
	}}}

	mux := http.NewServeMux()
	NewMenuHandler(catalog, logger.Nop()).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu?all=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, catalog.onlyActive)

	var resp []MenuItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Platos Fuertes", resp[0].Label)
	require.NotNil(t, resp[0].Price)
	assert.True(t, resp[0].Price.Equal(base))
	require.Len(t, resp[0].Variants, 2)
	assert.True(t, resp[0].Variants[0].Price.Equal(special))
	assert.True(t, resp[0].Variants[1].Price.Equal(base), "variants without a price fall back to the base price")
}

func TestListMenu_StoreDown(t *testing.T) {
	catalog := &fakeCatalog{err: fmt.Errorf("list: %w", domain.ErrStoreUnavailable)}
	mux := http.NewServeMux()
	NewMenuHandler(catalog, logger.Nop()).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, catalog.onlyActive)
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(map[string]Check{"postgres": func() error { return nil }}, logger.Nop()).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mux = http.NewServeMux()
	NewHealthHandler(map[string]Check{"rabbitmq": func() error { return errors.New("connection closed") }}, logger.Nop()).Register(mux)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "connection closed", resp.Checks["rabbitmq"])
}

type recordingLogger struct {
	mu      sync.Mutex
	actions []string
}

func (l *recordingLogger) Info(string, string, string, map[string]interface{})  {}
func (l *recordingLogger) Debug(string, string, string, map[string]interface{}) {}
func (l *recordingLogger) Error(action, _, _ string, _ map[string]interface{}, _ error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, action)
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	lgr := &recordingLogger{}
	rec := httptest.NewRecorder()

	writeJSON(rec, lgr, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"response_encode_failed"}, lgr.actions)
}
