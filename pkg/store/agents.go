package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, persona, greeting, model_provider_id, tts_provider_id, transcriber_provider_id, is_active, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.Persona, &a.Greeting,
		&a.ModelProviderID, &a.TTSProviderID, &a.TranscriberProviderID,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

type AgentParams struct {
	Name                  string
	Persona               string
	Greeting              string
	ModelProviderID       *uuid.UUID
	TTSProviderID         *uuid.UUID
	TranscriberProviderID *uuid.UUID
	IsActive              bool
}

func (s *Store) CreateAgent(ctx context.Context, p AgentParams) (Agent, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, persona, greeting, model_provider_id, tts_provider_id, transcriber_provider_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+agentColumns,
		uuid.New(), p.Name, p.Persona, p.Greeting, p.ModelProviderID, p.TTSProviderID, p.TranscriberProviderID, p.IsActive)
	a, err := scanAgent(row)
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

func (s *Store) GetAgent(ctx context.Context, id uuid.UUID) (Agent, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	return scanAgent(row)
}

// GetAgentForToy resolves the agent currently bound to a toy.
func (s *Store) GetAgentForToy(ctx context.Context, toyID uuid.UUID) (Agent, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+prefixColumns("a", agentColumns)+`
		FROM agents a
		JOIN toys t ON t.agent_id = a.id
		WHERE t.id = $1 AND a.is_active`, toyID)
	return scanAgent(row)
}

func (s *Store) ListAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	out := make([]Agent, 0, 16)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAgent(ctx context.Context, id uuid.UUID, p AgentParams) (Agent, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE agents
		SET name = $2, persona = $3, greeting = $4, model_provider_id = $5,
		    tts_provider_id = $6, transcriber_provider_id = $7, is_active = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+agentColumns,
		id, p.Name, p.Persona, p.Greeting, p.ModelProviderID, p.TTSProviderID, p.TranscriberProviderID, p.IsActive)
	return scanAgent(row)
}

func (s *Store) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
