package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/types"
)

// --- Mock Implementations for Testing ---

// mockListClient implements listclient.ExceptionListClient for testing.
// It records the order of collaborator calls and the options passed.
type mockListClient struct {
	createListErr error

	findResult   *types.FoundExceptionListItems
	findErr      error
	lastFindOpts types.FindExceptionListItemsOptions

	createItemErr error
	lastCreateReq types.CreateExceptionListItemRequest

	deleteResult   *types.ExceptionListItem
	deleteErr      error
	lastDeleteOpts types.DeleteExceptionListItemOptions

	count    int64
	countErr error

	calls []string
}

func (m *mockListClient) CreateTrustedAppsList(ctx context.Context) error {
	m.calls = append(m.calls, "createList")
	return m.createListErr
}

func (m *mockListClient) FindExceptionListItems(ctx context.Context, opts types.FindExceptionListItemsOptions) (*types.FoundExceptionListItems, error) {
	m.calls = append(m.calls, "find")
	m.lastFindOpts = opts
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.findResult != nil {
		return m.findResult, nil
	}
	return &types.FoundExceptionListItems{
		Data:    []types.ExceptionListItem{},
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Total:   0,
	}, nil
}

func (m *mockListClient) CreateExceptionListItem(ctx context.Context, req types.CreateExceptionListItemRequest) (*types.ExceptionListItem, error) {
	m.calls = append(m.calls, "createItem")
	m.lastCreateReq = req
	if m.createItemErr != nil {
		return nil, m.createItemErr
	}
	return &types.ExceptionListItem{
		ID:            ulid.Make().String(),
		ItemID:        req.ItemID,
		ListID:        req.ListID,
		Type:          req.Type,
		Name:          req.Name,
		Description:   req.Description,
		Entries:       req.Entries,
		Tags:          req.Tags,
		OSTags:        req.OSTags,
		NamespaceType: req.NamespaceType,
		Comments:      req.Comments,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     "unit-test",
	}, nil
}

func (m *mockListClient) DeleteExceptionListItem(ctx context.Context, opts types.DeleteExceptionListItemOptions) (*types.ExceptionListItem, error) {
	m.calls = append(m.calls, "delete")
	m.lastDeleteOpts = opts
	return m.deleteResult, m.deleteErr
}

func (m *mockListClient) CountItems(ctx context.Context) (int64, error) {
	return m.count, m.countErr
}

func (m *mockListClient) Close() error {
	return nil
}

// recordingLogHandler counts error-level log records.
type recordingLogHandler struct {
	mu        sync.Mutex
	errorLogs int
}

func (h *recordingLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingLogHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Level == slog.LevelError {
		h.mu.Lock()
		h.errorLogs++
		h.mu.Unlock()
	}
	return nil
}

func (h *recordingLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingLogHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingLogHandler) errorCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errorLogs
}

// newTestHandler creates a Handler whose trusted_apps logger writes into a
// recording handler so error log counts can be asserted.
func newTestHandler(t *testing.T) (*Handler, *recordingLogHandler) {
	t.Helper()
	rec := &recordingLogHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(rec))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return NewHandler("api-key", "1.0.0"), rec
}

// newRequest builds a request with the mock client attached to its context.
func newRequest(method, target string, body string, client listclient.ExceptionListClient) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(WithListClient(req.Context(), client))
}

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- List Handler Tests ---

func TestListTrustedApps_PassesFixedQueryParameters(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps?page=3&per_page=50&filter=anti", "", client)
	w := httptest.NewRecorder()

	handler.ListTrustedApps(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	opts := client.lastFindOpts
	if opts.ListID != listclient.TrustedAppsListID {
		t.Errorf("list id = %q, want %q", opts.ListID, listclient.TrustedAppsListID)
	}
	if opts.NamespaceType != "agnostic" {
		t.Errorf("namespace type = %q, want %q", opts.NamespaceType, "agnostic")
	}
	if opts.SortField != "name" || opts.SortOrder != "asc" {
		t.Errorf("sort = %q %q, want name asc", opts.SortField, opts.SortOrder)
	}
	if opts.Page != 3 || opts.PerPage != 50 || opts.Filter != "anti" {
		t.Errorf("paging = %+v, want page=3 per_page=50 filter=anti", opts)
	}
}

func TestListTrustedApps_DefaultsPagination(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps", "", client)
	w := httptest.NewRecorder()

	handler.ListTrustedApps(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.lastFindOpts.Page != DefaultPage {
		t.Errorf("page = %d, want %d", client.lastFindOpts.Page, DefaultPage)
	}
	if client.lastFindOpts.PerPage != DefaultPerPage {
		t.Errorf("per_page = %d, want %d", client.lastFindOpts.PerPage, DefaultPerPage)
	}
}

func TestListTrustedApps_EnsuresListBeforeQuery(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps", "", client)
	handler.ListTrustedApps(httptest.NewRecorder(), req)

	if len(client.calls) != 2 || client.calls[0] != "createList" || client.calls[1] != "find" {
		t.Errorf("call order = %v, want [createList find]", client.calls)
	}
}

func TestListTrustedApps_RejectsInvalidPagination(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"zero page", "/api/trusted_apps?page=0"},
		{"negative per_page", "/api/trusted_apps?per_page=-5"},
		{"non-numeric page", "/api/trusted_apps?page=abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockListClient{}
			handler, _ := newTestHandler(t)

			req := newRequest(http.MethodGet, tc.target, "", client)
			w := httptest.NewRecorder()

			handler.ListTrustedApps(w, req)

			if w.Code != http.StatusBadRequest && w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 400 or 422", w.Code)
			}
			if len(client.calls) != 0 {
				t.Errorf("collaborator called %v on invalid input", client.calls)
			}
		})
	}
}

func TestListTrustedApps_CollaboratorFailureReturns500AndLogsOnce(t *testing.T) {
	client := &mockListClient{findErr: errors.New("index unavailable")}
	handler, rec := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps", "", client)
	w := httptest.NewRecorder()

	handler.ListTrustedApps(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := rec.errorCount(); got != 1 {
		t.Errorf("error log count = %d, want 1", got)
	}
	if strings.Contains(w.Body.String(), "index unavailable") {
		t.Error("internal error detail leaked to response body")
	}
}

func TestListTrustedApps_ListCreationFailureReturns500AndLogsOnce(t *testing.T) {
	client := &mockListClient{createListErr: errors.New("storage down")}
	handler, rec := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps", "", client)
	w := httptest.NewRecorder()

	handler.ListTrustedApps(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := rec.errorCount(); got != 1 {
		t.Errorf("error log count = %d, want 1", got)
	}
}

func TestListTrustedApps_RepeatCallsYieldIdenticalResponses(t *testing.T) {
	client := &mockListClient{
		findResult: &types.FoundExceptionListItems{
			Data: []types.ExceptionListItem{{
				ID:   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
				Name: "Some App",
			}},
			Page:    1,
			PerPage: 20,
			Total:   1,
		},
	}
	handler, _ := newTestHandler(t)

	var bodies []string
	for i := 0; i < 2; i++ {
		req := newRequest(http.MethodGet, "/api/trusted_apps?page=1&per_page=20", "", client)
		w := httptest.NewRecorder()
		handler.ListTrustedApps(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: status = %d, want 200", i, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}

	if bodies[0] != bodies[1] {
		t.Errorf("responses differ across identical calls:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestListTrustedApps_EmptyResultMarshalsDataAsEmptyArray(t *testing.T) {
	client := &mockListClient{
		findResult: &types.FoundExceptionListItems{Data: nil, Page: 1, PerPage: 20, Total: 0},
	}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/trusted_apps", "", client)
	w := httptest.NewRecorder()
	handler.ListTrustedApps(w, req)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if string(raw["data"]) != "[]" {
		t.Errorf("data = %s, want []", raw["data"])
	}
}

// --- Create Handler Tests ---

const validCreateBody = `{
	"name": "Some Anti-Virus App",
	"description": "this one is ok",
	"os": "windows",
	"entries": [
		{"field": "process.path", "type": "match", "operator": "included", "value": "c:/programs files/Anti-Virus"}
	]
}`

func TestCreateTrustedApp_MapsPayloadOntoItemRequest(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", validCreateBody, client)
	w := httptest.NewRecorder()

	handler.CreateTrustedApp(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	got := client.lastCreateReq
	if got.ListID != listclient.TrustedAppsListID {
		t.Errorf("list id = %q, want %q", got.ListID, listclient.TrustedAppsListID)
	}
	if got.ItemID == "" {
		t.Error("item id is empty, want generated identifier")
	}
	if got.Type != "simple" {
		t.Errorf("type = %q, want simple", got.Type)
	}
	if got.NamespaceType != "agnostic" {
		t.Errorf("namespace type = %q, want agnostic", got.NamespaceType)
	}
	if len(got.OSTags) != 1 || got.OSTags[0] != "os:windows" {
		t.Errorf("_tags = %v, want [os:windows]", got.OSTags)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("tags = %v, want []", got.Tags)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Errorf("comments = %v, want []", got.Comments)
	}
	if got.Name != "Some Anti-Virus App" || got.Description != "this one is ok" {
		t.Errorf("name/description not copied verbatim: %q %q", got.Name, got.Description)
	}
	if len(got.Entries) != 1 || got.Entries[0].Field != "process.path" {
		t.Errorf("entries = %v, want the single process.path entry", got.Entries)
	}
}

func TestCreateTrustedApp_EnsuresListBeforeWrite(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", validCreateBody, client)
	handler.CreateTrustedApp(httptest.NewRecorder(), req)

	if len(client.calls) != 2 || client.calls[0] != "createList" || client.calls[1] != "createItem" {
		t.Errorf("call order = %v, want [createList createItem]", client.calls)
	}
}

func TestCreateTrustedApp_ResponseContainsTrustedAppShape(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", validCreateBody, client)
	w := httptest.NewRecorder()
	handler.CreateTrustedApp(w, req)

	var resp types.CreateTrustedAppResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Data.ID == "" {
		t.Error("response id is empty")
	}
	if resp.Data.OS != types.OSWindows {
		t.Errorf("os = %q, want windows (decoded from _tags)", resp.Data.OS)
	}
	if resp.Data.CreatedBy == "" {
		t.Error("created_by is empty")
	}
	if resp.Data.CreatedAt.IsZero() {
		t.Error("created_at is zero")
	}
}

func TestCreateTrustedApp_InvalidJSONReturns400(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", "{not json", client)
	w := httptest.NewRecorder()
	handler.CreateTrustedApp(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if len(client.calls) != 0 {
		t.Errorf("collaborator called %v on malformed payload", client.calls)
	}
}

func TestCreateTrustedApp_MissingFieldsReturn422WithErrors(t *testing.T) {
	client := &mockListClient{}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", `{"name": "App"}`, client)
	w := httptest.NewRecorder()
	handler.CreateTrustedApp(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var problem ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if len(problem.Errors) == 0 {
		t.Error("expected field errors in problem response")
	}
}

func TestCreateTrustedApp_CollaboratorFailureReturns500AndLogsOnce(t *testing.T) {
	client := &mockListClient{createItemErr: errors.New("write failed")}
	handler, rec := newTestHandler(t)

	req := newRequest(http.MethodPost, "/api/trusted_apps", validCreateBody, client)
	w := httptest.NewRecorder()
	handler.CreateTrustedApp(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := rec.errorCount(); got != 1 {
		t.Errorf("error log count = %d, want 1", got)
	}
	if strings.Contains(w.Body.String(), "write failed") {
		t.Error("internal error detail leaked to response body")
	}
}

// --- Delete Handler Tests ---

func TestDeleteTrustedApp_NoMatchReturns404WithoutErrorLog(t *testing.T) {
	client := &mockListClient{deleteResult: nil}
	handler, rec := newTestHandler(t)

	req := newRequest(http.MethodDelete, "/api/trusted_apps/missing", "", client)
	req = withURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	handler.DeleteTrustedApp(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := rec.errorCount(); got != 0 {
		t.Errorf("error log count = %d, want 0 for not-found", got)
	}
}

func TestDeleteTrustedApp_MatchReturns200(t *testing.T) {
	client := &mockListClient{
		deleteResult: &types.ExceptionListItem{
			ID:     "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Name:   "Some App",
			OSTags: []string{"os:linux"},
		},
	}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodDelete, "/api/trusted_apps/01ARZ3NDEKTSV4RRFFQ69G5FAV", "", client)
	req = withURLParam(req, "id", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	w := httptest.NewRecorder()

	handler.DeleteTrustedApp(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.lastDeleteOpts.ID != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("delete id = %q, want the path parameter", client.lastDeleteOpts.ID)
	}
	if client.lastDeleteOpts.ItemID != "" {
		t.Errorf("delete item_id = %q, want empty", client.lastDeleteOpts.ItemID)
	}
	if client.lastDeleteOpts.NamespaceType != "agnostic" {
		t.Errorf("namespace type = %q, want agnostic", client.lastDeleteOpts.NamespaceType)
	}
}

func TestDeleteTrustedApp_EnsuresListBeforeDelete(t *testing.T) {
	client := &mockListClient{deleteResult: &types.ExceptionListItem{ID: "x"}}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodDelete, "/api/trusted_apps/x", "", client)
	req = withURLParam(req, "id", "x")
	handler.DeleteTrustedApp(httptest.NewRecorder(), req)

	if len(client.calls) != 2 || client.calls[0] != "createList" || client.calls[1] != "delete" {
		t.Errorf("call order = %v, want [createList delete]", client.calls)
	}
}

func TestDeleteTrustedApp_CollaboratorFailureReturns500AndLogsOnce(t *testing.T) {
	client := &mockListClient{deleteErr: errors.New("storage down")}
	handler, rec := newTestHandler(t)

	req := newRequest(http.MethodDelete, "/api/trusted_apps/x", "", client)
	req = withURLParam(req, "id", "x")
	w := httptest.NewRecorder()

	handler.DeleteTrustedApp(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := rec.errorCount(); got != 1 {
		t.Errorf("error log count = %d, want 1", got)
	}
}

// --- Health Endpoint Tests ---

func TestHealth_ReturnsHealthyStatus(t *testing.T) {
	client := &mockListClient{count: 42}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/health", "", client)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if resp.ItemCount != 42 {
		t.Errorf("item_count = %d, want 42", resp.ItemCount)
	}
}

func TestHealth_StoreFailureReturns500(t *testing.T) {
	client := &mockListClient{countErr: errors.New("db closed")}
	handler, _ := newTestHandler(t)

	req := newRequest(http.MethodGet, "/api/health", "", client)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
