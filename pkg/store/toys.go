package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const toyColumns = `id, name, description, avatar_url, user_custom_instruction, agent_id, is_active, created_at, updated_at`

func scanToy(row pgx.Row) (Toy, error) {
	var t Toy
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.AvatarURL, &t.UserCustomInstruction,
		&t.AgentID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Toy{}, ErrNotFound
	}
	return t, err
}

type ToyParams struct {
	Name                  string
	Description           string
	AvatarURL             string
	UserCustomInstruction string
	AgentID               *uuid.UUID
	IsActive              bool
}

func (s *Store) CreateToy(ctx context.Context, p ToyParams) (Toy, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO toys (id, name, description, avatar_url, user_custom_instruction, agent_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+toyColumns,
		uuid.New(), p.Name, p.Description, p.AvatarURL, p.UserCustomInstruction, p.AgentID, p.IsActive)
	t, err := scanToy(row)
	if err != nil {
		return Toy{}, fmt.Errorf("create toy: %w", err)
	}
	return t, nil
}

func (s *Store) GetToy(ctx context.Context, id uuid.UUID) (Toy, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+toyColumns+` FROM toys WHERE id = $1`, id)
	return scanToy(row)
}

func (s *Store) ListToys(ctx context.Context) ([]Toy, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+toyColumns+` FROM toys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list toys: %w", err)
	}
	defer rows.Close()

	out := make([]Toy, 0, 16)
	for rows.Next() {
		t, err := scanToy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateToy(ctx context.Context, id uuid.UUID, p ToyParams) (Toy, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE toys
		SET name = $2, description = $3, avatar_url = $4, user_custom_instruction = $5,
		    agent_id = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+toyColumns,
		id, p.Name, p.Description, p.AvatarURL, p.UserCustomInstruction, p.AgentID, p.IsActive)
	return scanToy(row)
}

func (s *Store) DeleteToy(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM toys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete toy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
