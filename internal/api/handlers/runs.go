package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/api"
	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/pagination"
	"github.com/go-chi/chi/v5"
)

// RunStore reads the alias run history.
type RunStore interface {
	GetByID(ctx context.Context, id string) (*domain.AliasRun, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.AliasRun], error)
	ListByHandle(ctx context.Context, handle string, limit int) ([]*domain.AliasRun, error)
}

type RunHandler struct {
	store RunStore
}

func NewRunHandler(store RunStore) *RunHandler {
	return &RunHandler{store: store}
}

type RunResponse struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Message    string    `json:"message,omitempty"`
	Discovered []string  `json:"discovered"`
	Aliases    []string  `json:"aliases"`
	Model      string    `json:"model,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRunResponse(run *domain.AliasRun) RunResponse {
	resp := RunResponse{
		ID:         run.ID,
		Handle:     run.Handle,
		Mode:       string(run.Mode),
		Status:     string(run.Status),
		ErrorCode:  run.ErrorCode,
		Message:    run.Message,
		Discovered: run.Discovered,
		Aliases:    run.Aliases,
		Model:      run.Model,
		DurationMS: run.DurationMS,
		CreatedAt:  run.CreatedAt,
	}
	if resp.Discovered == nil {
		resp.Discovered = []string{}
	}
	if resp.Aliases == nil {
		resp.Aliases = []string{}
	}
	return resp
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if handle := r.URL.Query().Get("handle"); handle != "" {
		h.listByHandle(w, r, handle, limit)
		return
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	page, err := h.store.ListWithCursor(r.Context(), cursor, limit)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	items := make([]RunResponse, 0, len(page.Items))
	for _, run := range page.Items {
		items = append(items, toRunResponse(run))
	}

	api.Success(w, http.StatusOK, pagination.PageResult[RunResponse]{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// listByHandle returns the latest runs for one document as a single page.
func (h *RunHandler) listByHandle(w http.ResponseWriter, r *http.Request, handle string, limit int) {
	if r.URL.Query().Get("cursor") != "" {
		api.Error(w, http.StatusBadRequest, "cursor cannot be combined with handle")
		return
	}

	clean, err := domain.CleanHandle(handle)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	runs, err := h.store.ListByHandle(r.Context(), clean, limit)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	items := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, toRunResponse(run))
	}

	api.Success(w, http.StatusOK, pagination.PageResult[RunResponse]{Items: items})
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toRunResponse(run))
}
