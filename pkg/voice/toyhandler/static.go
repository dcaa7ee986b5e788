package toyhandler

import (
	"context"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

// StaticCatalog serves a fixed toy profile from memory. It backs the gateway
// when no database is configured; memory recall always comes back empty.
type StaticCatalog struct {
	Toy      store.Toy
	Agent    store.Agent
	HasAgent bool
}

var _ Catalog = StaticCatalog{}

func (c StaticCatalog) GetToy(ctx context.Context, id uuid.UUID) (store.Toy, error) {
	toy := c.Toy
	toy.ID = id
	return toy, nil
}

func (c StaticCatalog) GetAgentForToy(ctx context.Context, toyID uuid.UUID) (store.Agent, error) {
	if !c.HasAgent {
		return store.Agent{}, store.ErrNotFound
	}
	return c.Agent, nil
}

func (c StaticCatalog) SearchMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, embedding []float32, limit int) ([]store.MemoryMatch, error) {
	return nil, nil
}
