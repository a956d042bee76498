package auth

import (
	"context"
	"sync"
)

// Repository looks up registered API clients.
type Repository interface {
	GetClient(ctx context.Context, id string) (Client, bool, error)
}

// StaticRepository serves clients declared in configuration.
type StaticRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewStaticRepository indexes clients by ID. Later duplicates win.
func NewStaticRepository(clients []Client) *StaticRepository {
	repo := &StaticRepository{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		repo.clients[c.ID] = c
	}
	return repo
}

func (r *StaticRepository) GetClient(_ context.Context, id string) (Client, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok, nil
}

var _ Repository = (*StaticRepository)(nil)
