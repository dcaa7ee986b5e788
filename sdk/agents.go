package toyvoice

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

// Agent is the gateway's agent resource.
type Agent = store.Agent

// AgentParams is the create/update payload for an agent.
type AgentParams struct {
	Name                  string     `json:"name"`
	Persona               string     `json:"persona,omitempty"`
	Greeting              string     `json:"greeting,omitempty"`
	ModelProviderID       *uuid.UUID `json:"model_provider_id,omitempty"`
	TTSProviderID         *uuid.UUID `json:"tts_provider_id,omitempty"`
	TranscriberProviderID *uuid.UUID `json:"transcriber_provider_id,omitempty"`
	IsActive              *bool      `json:"is_active,omitempty"`
}

type AgentsService struct {
	client *Client
}

func (s *AgentsService) Create(ctx context.Context, params AgentParams) (Agent, error) {
	var agent Agent
	err := s.client.do(ctx, http.MethodPost, "/v1/agents", params, &agent)
	return agent, err
}

func (s *AgentsService) Get(ctx context.Context, id uuid.UUID) (Agent, error) {
	var agent Agent
	err := s.client.do(ctx, http.MethodGet, "/v1/agents/"+id.String(), nil, &agent)
	return agent, err
}

func (s *AgentsService) List(ctx context.Context) ([]Agent, error) {
	var resp struct {
		Agents []Agent `json:"agents"`
	}
	err := s.client.do(ctx, http.MethodGet, "/v1/agents", nil, &resp)
	return resp.Agents, err
}

func (s *AgentsService) Update(ctx context.Context, id uuid.UUID, params AgentParams) (Agent, error) {
	var agent Agent
	err := s.client.do(ctx, http.MethodPut, "/v1/agents/"+id.String(), params, &agent)
	return agent, err
}

func (s *AgentsService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/agents/"+id.String(), nil, nil)
}
