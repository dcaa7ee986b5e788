package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/store"
)

type ToyStore interface {
	CreateToy(ctx context.Context, p store.ToyParams) (store.Toy, error)
	GetToy(ctx context.Context, id uuid.UUID) (store.Toy, error)
	ListToys(ctx context.Context) ([]store.Toy, error)
	UpdateToy(ctx context.Context, id uuid.UUID, p store.ToyParams) (store.Toy, error)
	DeleteToy(ctx context.Context, id uuid.UUID) error
}

type ToysHandler struct {
	Store  ToyStore
	Logger *slog.Logger
}

type toyRequest struct {
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	AvatarURL             string     `json:"avatar_url"`
	UserCustomInstruction string     `json:"user_custom_instruction"`
	AgentID               *uuid.UUID `json:"agent_id"`
	IsActive              *bool      `json:"is_active"`
}

func (req toyRequest) params() store.ToyParams {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return store.ToyParams{
		Name:                  req.Name,
		Description:           req.Description,
		AvatarURL:             req.AvatarURL,
		UserCustomInstruction: req.UserCustomInstruction,
		AgentID:               req.AgentID,
		IsActive:              active,
	}
}

func (h ToysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req toyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, apierror.InvalidRequest("name is required", "name"))
		return
	}

	toy, err := h.Store.CreateToy(r.Context(), req.params())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toy)
}

func (h ToysHandler) List(w http.ResponseWriter, r *http.Request) {
	toys, err := h.Store.ListToys(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toys": toys})
}

func (h ToysHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	toy, err := h.Store.GetToy(r.Context(), id)
	if err != nil {
		respondError(w, r, storeErr(err, "toy"))
		return
	}
	writeJSON(w, http.StatusOK, toy)
}

func (h ToysHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req toyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, apierror.InvalidRequest("name is required", "name"))
		return
	}

	toy, err := h.Store.UpdateToy(r.Context(), id, req.params())
	if err != nil {
		respondError(w, r, storeErr(err, "toy"))
		return
	}
	writeJSON(w, http.StatusOK, toy)
}

func (h ToysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteToy(r.Context(), id); err != nil {
		respondError(w, r, storeErr(err, "toy"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
