package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const providerColumns = `id, name, model, voice, language, base_url, is_active, created_at`

// providerTable maps a kind to its table. Kinds are a closed set; anything
// else is rejected before SQL is built.
func providerTable(kind ProviderKind) (string, error) {
	switch kind {
	case ProviderModel:
		return "model_providers", nil
	case ProviderTTS:
		return "tts_providers", nil
	case ProviderTranscriber:
		return "transcriber_providers", nil
	default:
		return "", fmt.Errorf("unknown provider kind %q", kind)
	}
}

func scanProvider(row pgx.Row, kind ProviderKind) (Provider, error) {
	p := Provider{Kind: kind}
	err := row.Scan(&p.ID, &p.Name, &p.Model, &p.Voice, &p.Language, &p.BaseURL, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Provider{}, ErrNotFound
	}
	return p, err
}

type ProviderParams struct {
	Name     string
	Model    string
	Voice    string
	Language string
	BaseURL  string
	IsActive bool
}

func (s *Store) CreateProvider(ctx context.Context, kind ProviderKind, p ProviderParams) (Provider, error) {
	table, err := providerTable(kind)
	if err != nil {
		return Provider{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO `+table+` (id, name, model, voice, language, base_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+providerColumns,
		uuid.New(), p.Name, p.Model, p.Voice, p.Language, p.BaseURL, p.IsActive)
	out, err := scanProvider(row, kind)
	if err != nil {
		return Provider{}, fmt.Errorf("create %s provider: %w", kind, err)
	}
	return out, nil
}

func (s *Store) GetProvider(ctx context.Context, kind ProviderKind, id uuid.UUID) (Provider, error) {
	table, err := providerTable(kind)
	if err != nil {
		return Provider{}, err
	}
	row := s.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM `+table+` WHERE id = $1`, id)
	return scanProvider(row, kind)
}

func (s *Store) ListProviders(ctx context.Context, kind ProviderKind) ([]Provider, error) {
	table, err := providerTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+providerColumns+` FROM `+table+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list %s providers: %w", kind, err)
	}
	defer rows.Close()

	out := make([]Provider, 0, 8)
	for rows.Next() {
		p, err := scanProvider(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProvider(ctx context.Context, kind ProviderKind, id uuid.UUID) error {
	table, err := providerTable(kind)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s provider: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
