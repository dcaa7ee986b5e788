package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/store"
)

type AgentStore interface {
	CreateAgent(ctx context.Context, p store.AgentParams) (store.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (store.Agent, error)
	ListAgents(ctx context.Context) ([]store.Agent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, p store.AgentParams) (store.Agent, error)
	DeleteAgent(ctx context.Context, id uuid.UUID) error
}

type AgentsHandler struct {
	Store  AgentStore
	Logger *slog.Logger
}

type agentRequest struct {
	Name                  string     `json:"name"`
	Persona               string     `json:"persona"`
	Greeting              string     `json:"greeting"`
	ModelProviderID       *uuid.UUID `json:"model_provider_id"`
	TTSProviderID         *uuid.UUID `json:"tts_provider_id"`
	TranscriberProviderID *uuid.UUID `json:"transcriber_provider_id"`
	IsActive              *bool      `json:"is_active"`
}

func (req agentRequest) params() store.AgentParams {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return store.AgentParams{
		Name:                  req.Name,
		Persona:               req.Persona,
		Greeting:              req.Greeting,
		ModelProviderID:       req.ModelProviderID,
		TTSProviderID:         req.TTSProviderID,
		TranscriberProviderID: req.TranscriberProviderID,
		IsActive:              active,
	}
}

func (h AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, apierror.InvalidRequest("name is required", "name"))
		return
	}

	agent, err := h.Store.CreateAgent(r.Context(), req.params())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.ListAgents(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (h AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	agent, err := h.Store.GetAgent(r.Context(), id)
	if err != nil {
		respondError(w, r, storeErr(err, "agent"))
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h AgentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req agentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, r, apierror.InvalidRequest("name is required", "name"))
		return
	}

	agent, err := h.Store.UpdateAgent(r.Context(), id, req.params())
	if err != nil {
		respondError(w, r, storeErr(err, "agent"))
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h AgentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteAgent(r.Context(), id); err != nil {
		respondError(w, r, storeErr(err, "agent"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
