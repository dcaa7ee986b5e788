package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func memoryTable(owner MemoryOwner) (table, ownerCol string, err error) {
	switch owner {
	case MemoryOwnerToy:
		return "toy_memory", "toy_id", nil
	case MemoryOwnerAgent:
		return "agent_memory", "agent_id", nil
	default:
		return "", "", fmt.Errorf("unknown memory owner %q", owner)
	}
}

// encodeVector renders an embedding in pgvector's text input format, e.g.
// "[0.1,-0.2,0.3]". The query casts it with ::vector.
func encodeVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// AddMemory inserts embedded chunks for a toy or agent in a single batch.
func (s *Store) AddMemory(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID, chunks []MemoryChunk) ([]MemoryEntry, error) {
	table, ownerCol, err := memoryTable(owner)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	sql := `INSERT INTO ` + table + ` (id, ` + ownerCol + `, content, embedding)
		VALUES ($1, $2, $3, $4::vector)
		RETURNING id, ` + ownerCol + `, content, created_at`

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(sql, uuid.New(), ownerID, c.Content, encodeVector(c.Embedding))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	out := make([]MemoryEntry, 0, len(chunks))
	for range chunks {
		var e MemoryEntry
		if err := results.QueryRow().Scan(&e.ID, &e.OwnerID, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert memory: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// SearchMemory returns the closest chunks by cosine distance.
func (s *Store) SearchMemory(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID, embedding []float32, limit int) ([]MemoryMatch, error) {
	table, ownerCol, err := memoryTable(owner)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, `+ownerCol+`, content, created_at, embedding <=> $1::vector AS distance
		FROM `+table+`
		WHERE `+ownerCol+` = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`,
		encodeVector(embedding), ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}
	defer rows.Close()

	out := make([]MemoryMatch, 0, limit)
	for rows.Next() {
		var m MemoryMatch
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Content, &m.CreatedAt, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMemory returns stored chunks without embeddings, newest first.
func (s *Store) ListMemory(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID, limit int) ([]MemoryEntry, error) {
	table, ownerCol, err := memoryTable(owner)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, `+ownerCol+`, content, created_at
		FROM `+table+`
		WHERE `+ownerCol+` = $1
		ORDER BY created_at DESC
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memory: %w", err)
	}
	defer rows.Close()

	out := make([]MemoryEntry, 0, limit)
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Content, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteMemory removes all stored chunks for an owner.
func (s *Store) DeleteMemory(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID) (int64, error) {
	table, ownerCol, err := memoryTable(owner)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+` = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete memory: %w", err)
	}
	return tag.RowsAffected(), nil
}
