package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/mapper"
	"github.com/hyperengineering/trustedapps/internal/types"
	"github.com/hyperengineering/trustedapps/internal/validation"
)

// Pagination defaults for the List endpoint.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// Handler implements the API handlers. Handlers are stateless; the list
// client collaborator is resolved from the request context per call.
type Handler struct {
	apiKey  string
	version string
	log     *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(apiKey, version string) *Handler {
	return &Handler{
		apiKey:  apiKey,
		version: version,
		log:     slog.With("logger", "trusted_apps"),
	}
}

// Health returns the health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	client, err := ListClientFromContext(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	count, err := client.CountItems(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := types.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		ItemCount: count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListTrustedApps handles GET /api/trusted_apps.
func (h *Handler) ListTrustedApps(w http.ResponseWriter, r *http.Request) {
	client, err := ListClientFromContext(r.Context())
	if err != nil {
		h.log.Error("list client unavailable", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	page, perPage, err := pageParams(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validation.ValidatePageParams(page, perPage); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := client.CreateTrustedAppsList(r.Context()); err != nil {
		h.log.Error("failed to ensure trusted apps list", "error", err)
		MapClientError(w, r, err)
		return
	}

	result, err := client.FindExceptionListItems(r.Context(), types.FindExceptionListItemsOptions{
		ListID:        listclient.TrustedAppsListID,
		Page:          page,
		PerPage:       perPage,
		Filter:        r.URL.Query().Get("filter"),
		NamespaceType: listclient.NamespaceAgnostic,
		SortField:     listclient.SortFieldName,
		SortOrder:     listclient.SortOrderAsc,
	})
	if err != nil {
		h.log.Error("failed to list trusted apps", "error", err)
		MapClientError(w, r, err)
		return
	}

	resp := types.ListTrustedAppsResponse{
		Data:    result.Data,
		Page:    result.Page,
		PerPage: result.PerPage,
		Total:   result.Total,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateTrustedApp handles POST /api/trusted_apps.
func (h *Handler) CreateTrustedApp(w http.ResponseWriter, r *http.Request) {
	var req types.NewTrustedApp
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateNewTrustedApp(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	client, err := ListClientFromContext(r.Context())
	if err != nil {
		h.log.Error("list client unavailable", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := client.CreateTrustedAppsList(r.Context()); err != nil {
		h.log.Error("failed to ensure trusted apps list", "error", err)
		MapClientError(w, r, err)
		return
	}

	item, err := client.CreateExceptionListItem(r.Context(), mapper.ToCreateItemRequest(req))
	if err != nil {
		h.log.Error("failed to create trusted app", "error", err, "name", req.Name)
		MapClientError(w, r, err)
		return
	}

	resp := types.CreateTrustedAppResponse{Data: mapper.FromItem(*item)}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DeleteTrustedApp handles DELETE /api/trusted_apps/{id}.
func (h *Handler) DeleteTrustedApp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := ListClientFromContext(r.Context())
	if err != nil {
		h.log.Error("list client unavailable", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := client.CreateTrustedAppsList(r.Context()); err != nil {
		h.log.Error("failed to ensure trusted apps list", "error", err)
		MapClientError(w, r, err)
		return
	}

	item, err := client.DeleteExceptionListItem(r.Context(), types.DeleteExceptionListItemOptions{
		ID:            id,
		NamespaceType: listclient.NamespaceAgnostic,
	})
	if err != nil {
		h.log.Error("failed to delete trusted app", "error", err, "id", id)
		MapClientError(w, r, err)
		return
	}
	if item == nil {
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
		return
	}

	resp := types.CreateTrustedAppResponse{Data: mapper.FromItem(*item)}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// pageParams parses page and per_page query parameters with defaults.
func pageParams(r *http.Request) (page, perPage int, err error) {
	page = DefaultPage
	perPage = DefaultPerPage

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page parameter %q", v)
		}
	}
	if v := q.Get("per_page"); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid per_page parameter %q", v)
		}
	}
	return page, perPage, nil
}
