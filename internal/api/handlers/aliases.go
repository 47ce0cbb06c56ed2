package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/aliasgen/internal/api"
	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/service"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AliasGenerator runs the alias pipeline for a document handle.
type AliasGenerator interface {
	GenerateFor(ctx context.Context, handle string, mode domain.Mode) (*service.Result, error)
}

type AliasHandler struct {
	svc AliasGenerator
}

func NewAliasHandler(svc AliasGenerator) *AliasHandler {
	return &AliasHandler{svc: svc}
}

type GenerateAliasesRequest struct {
	Handle string `json:"handle"`
	Mode   string `json:"mode"`
}

type GenerateAliasesResponse struct {
	RunID      string   `json:"run_id"`
	Handle     string   `json:"handle"`
	Title      string   `json:"title"`
	Mode       string   `json:"mode"`
	State      string   `json:"state"`
	Strategy   string   `json:"strategy,omitempty"`
	Discovered []string `json:"discovered"`
	Aliases    []string `json:"aliases"`
	Added      int      `json:"added"`
}

func (h *AliasHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateAliasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Handle) == "" {
		api.Error(w, http.StatusBadRequest, "handle is required")
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.svc.GenerateFor(r.Context(), req.Handle, mode)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toGenerateResponse(result))
}

func toGenerateResponse(result *service.Result) GenerateAliasesResponse {
	resp := GenerateAliasesResponse{
		RunID:      result.RunID,
		Handle:     result.Handle,
		Title:      result.Title,
		Mode:       string(result.Mode),
		State:      string(result.State),
		Strategy:   result.Strategy,
		Discovered: result.Discovered,
		Aliases:    result.Aliases,
		Added:      result.Added,
	}
	if resp.Discovered == nil {
		resp.Discovered = []string{}
	}
	if resp.Aliases == nil {
		resp.Aliases = []string{}
	}
	return resp
}
