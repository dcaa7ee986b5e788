package toyvoice

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

// Toy is the gateway's toy resource.
type Toy = store.Toy

// ToyParams is the create/update payload for a toy. A nil IsActive defaults
// to active.
type ToyParams struct {
	Name                  string     `json:"name"`
	Description           string     `json:"description,omitempty"`
	AvatarURL             string     `json:"avatar_url,omitempty"`
	UserCustomInstruction string     `json:"user_custom_instruction,omitempty"`
	AgentID               *uuid.UUID `json:"agent_id,omitempty"`
	IsActive              *bool      `json:"is_active,omitempty"`
}

type ToysService struct {
	client *Client
}

func (s *ToysService) Create(ctx context.Context, params ToyParams) (Toy, error) {
	var toy Toy
	err := s.client.do(ctx, http.MethodPost, "/v1/toys", params, &toy)
	return toy, err
}

func (s *ToysService) Get(ctx context.Context, id uuid.UUID) (Toy, error) {
	var toy Toy
	err := s.client.do(ctx, http.MethodGet, "/v1/toys/"+id.String(), nil, &toy)
	return toy, err
}

func (s *ToysService) List(ctx context.Context) ([]Toy, error) {
	var resp struct {
		Toys []Toy `json:"toys"`
	}
	err := s.client.do(ctx, http.MethodGet, "/v1/toys", nil, &resp)
	return resp.Toys, err
}

func (s *ToysService) Update(ctx context.Context, id uuid.UUID, params ToyParams) (Toy, error) {
	var toy Toy
	err := s.client.do(ctx, http.MethodPut, "/v1/toys/"+id.String(), params, &toy)
	return toy, err
}

func (s *ToysService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/toys/"+id.String(), nil, nil)
}
