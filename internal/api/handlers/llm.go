package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/llm"
	"github.com/rotzhost/rotzcoder/internal/research"
)

type LLMHandler struct {
	registry *llm.Registry
	runner   *research.Service
}

func NewLLMHandler(registry *llm.Registry, runner *research.Service) *LLMHandler {
	return &LLMHandler{registry: registry, runner: runner}
}

func (h *LLMHandler) Providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": h.registry.Names(),
		"models":    h.registry.ListModels(),
	})
}

func (h *LLMHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	var req research.RunRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	task, err := h.runner.Run(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *LLMHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tasks, err := h.runner.List(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (h *LLMHandler) Task(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid task id")
		return
	}

	task, err := h.runner.Get(r.Context(), claims.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
