package store

import (
	"time"

	"github.com/google/uuid"
)

// Toy is a physical device profile. A toy binds to exactly one active agent
// at a time.
type Toy struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	AvatarURL             string    `json:"avatar_url,omitempty"`
	UserCustomInstruction string    `json:"user_custom_instruction,omitempty"`
	AgentID               *uuid.UUID `json:"agent_id,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Agent is a conversational persona plus its provider wiring.
type Agent struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Persona               string     `json:"persona,omitempty"`
	Greeting              string     `json:"greeting,omitempty"`
	ModelProviderID       *uuid.UUID `json:"model_provider_id,omitempty"`
	TTSProviderID         *uuid.UUID `json:"tts_provider_id,omitempty"`
	TranscriberProviderID *uuid.UUID `json:"transcriber_provider_id,omitempty"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type ProviderKind string

const (
	ProviderModel       ProviderKind = "model"
	ProviderTTS         ProviderKind = "tts"
	ProviderTranscriber ProviderKind = "transcriber"
)

// Provider is a row in one of the three provider tables. Which table is
// selected by Kind; the columns are uniform enough to share a struct.
type Provider struct {
	ID        uuid.UUID    `json:"id"`
	Kind      ProviderKind `json:"kind"`
	Name      string       `json:"name"`
	Model     string       `json:"model,omitempty"`
	Voice     string       `json:"voice,omitempty"`
	Language  string       `json:"language,omitempty"`
	BaseURL   string       `json:"base_url,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

type MemoryOwner string

const (
	MemoryOwnerToy   MemoryOwner = "toy"
	MemoryOwnerAgent MemoryOwner = "agent"
)

// MemoryChunk is one embedded piece of text ready for insertion.
type MemoryChunk struct {
	Content   string
	Embedding []float32
}

// MemoryEntry is a stored chunk.
type MemoryEntry struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryMatch is a search hit; Distance is cosine distance, lower is closer.
type MemoryMatch struct {
	MemoryEntry
	Distance float64 `json:"distance"`
}
