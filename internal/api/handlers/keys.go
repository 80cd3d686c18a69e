package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/keyvault"
)

// KeysHandler manages a user's vaulted provider keys. Responses only
// ever carry masks; the plaintext goes in and never comes back out.
type KeysHandler struct {
	vault *keyvault.Service
}

func NewKeysHandler(vault *keyvault.Service) *KeysHandler {
	return &KeysHandler{vault: vault}
}

func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	keys, err := h.vault.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": keys})
}

func (h *KeysHandler) Save(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	k, err := h.vault.Save(r.Context(), claims.UserID, chi.URLParam(r, "provider"), req.APIKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

// Get returns the stored key's metadata and mask for one provider.
func (h *KeysHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	keys, err := h.vault.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	provider := chi.URLParam(r, "provider")
	for _, k := range keys {
		if k.Provider == provider {
			writeJSON(w, http.StatusOK, k)
			return
		}
	}
	writeError(w, keyvault.ErrKeyNotFound)
}

func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, auth.ErrTokenInvalid)
		return
	}

	if err := h.vault.Delete(r.Context(), claims.UserID, chi.URLParam(r, "provider")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
