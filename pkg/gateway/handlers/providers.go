package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/store"
)

type ProviderStore interface {
	CreateProvider(ctx context.Context, kind store.ProviderKind, p store.ProviderParams) (store.Provider, error)
	GetProvider(ctx context.Context, kind store.ProviderKind, id uuid.UUID) (store.Provider, error)
	ListProviders(ctx context.Context, kind store.ProviderKind) ([]store.Provider, error)
	DeleteProvider(ctx context.Context, kind store.ProviderKind, id uuid.UUID) error
}

// ProvidersHandler serves /v1/providers/{kind}; kind is model, tts, or
// transcriber.
type ProvidersHandler struct {
	Store  ProviderStore
	Logger *slog.Logger
}

func providerKind(r *http.Request) (store.ProviderKind, error) {
	raw := r.PathValue("kind")
	switch store.ProviderKind(raw) {
	case store.ProviderModel, store.ProviderTTS, store.ProviderTranscriber:
		return store.ProviderKind(raw), nil
	default:
		return "", apierror.InvalidRequest("provider kind must be model, tts, or transcriber", "kind")
	}
}

type providerRequest struct {
	Name     string `json:"name"`
	Model    string `json:"model"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	BaseURL  string `json:"base_url"`
	IsActive *bool  `json:"is_active"`
}

func (req providerRequest) params() store.ProviderParams {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return store.ProviderParams{
		Name:     req.Name,
		Model:    req.Model,
		Voice:    req.Voice,
		Language: req.Language,
		BaseURL:  req.BaseURL,
		IsActive: active,
	}
}

func (h ProvidersHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := providerKind(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req providerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, apierror.InvalidRequest("name is required", "name"))
		return
	}

	p, err := h.Store.CreateProvider(r.Context(), kind, req.params())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := providerKind(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	providers, err := h.Store.ListProviders(r.Context(), kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (h ProvidersHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := providerKind(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.Store.GetProvider(r.Context(), kind, id)
	if err != nil {
		respondError(w, r, storeErr(err, "provider"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h ProvidersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := providerKind(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteProvider(r.Context(), kind, id); err != nil {
		respondError(w, r, storeErr(err, "provider"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
