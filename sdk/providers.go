package toyvoice

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

// Provider is one model, TTS, or transcriber configuration.
type Provider = store.Provider

// ProviderKind selects which provider table a call addresses.
type ProviderKind = store.ProviderKind

const (
	ProviderModel       = store.ProviderModel
	ProviderTTS         = store.ProviderTTS
	ProviderTranscriber = store.ProviderTranscriber
)

// ProviderParams is the create payload for a provider.
type ProviderParams struct {
	Name     string `json:"name"`
	Model    string `json:"model,omitempty"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type ProvidersService struct {
	client *Client
}

func (s *ProvidersService) Create(ctx context.Context, kind ProviderKind, params ProviderParams) (Provider, error) {
	var p Provider
	err := s.client.do(ctx, http.MethodPost, "/v1/providers/"+string(kind), params, &p)
	return p, err
}

func (s *ProvidersService) Get(ctx context.Context, kind ProviderKind, id uuid.UUID) (Provider, error) {
	var p Provider
	err := s.client.do(ctx, http.MethodGet, "/v1/providers/"+string(kind)+"/"+id.String(), nil, &p)
	return p, err
}

func (s *ProvidersService) List(ctx context.Context, kind ProviderKind) ([]Provider, error) {
	var resp struct {
		Providers []Provider `json:"providers"`
	}
	err := s.client.do(ctx, http.MethodGet, "/v1/providers/"+string(kind), nil, &resp)
	return resp.Providers, err
}

func (s *ProvidersService) Delete(ctx context.Context, kind ProviderKind, id uuid.UUID) error {
	return s.client.do(ctx, http.MethodDelete, "/v1/providers/"+string(kind)+"/"+id.String(), nil, nil)
}
