package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"emberfall/internal/storage"
	"emberfall/pkg/combat"
	"emberfall/pkg/world"
)

// Instance is one live world with its combat state machine. Combat
// timers mutate the world in memory; the registry keeps the instance
// resident so those timers and later requests see the same entities.
type Instance struct {
	World  *world.World
	Combat *combat.Orchestrator
}

// Registry tracks live instances over a storage backend. Worlds not
// in memory are rehydrated from storage with a fresh (idle) combat
// orchestrator; combat sessions themselves are never persisted.
type Registry struct {
	store   storage.Storage
	gateway combat.Dialoguer
	mood    combat.MoodSource
	sink    combat.MessageSink
	logger  *slog.Logger

	mu        sync.Mutex
	instances map[uuid.UUID]*Instance
}

// NewRegistry creates a registry over the given storage backend.
func NewRegistry(store storage.Storage, gateway combat.Dialoguer, mood combat.MoodSource, sink combat.MessageSink, logger *slog.Logger) *Registry {
	return &Registry{
		store:     store,
		gateway:   gateway,
		mood:      mood,
		sink:      sink,
		logger:    logger,
		instances: make(map[uuid.UUID]*Instance),
	}
}

// Admit registers a freshly generated world, persists it, and returns
// its live instance.
func (r *Registry) Admit(ctx context.Context, w *world.World) (*Instance, error) {
	if err := r.store.SaveWorld(ctx, w.ID, w); err != nil {
		return nil, err
	}

	inst := r.wrap(w)
	r.mu.Lock()
	r.instances[w.ID] = inst
	r.mu.Unlock()

	r.logger.Info("World admitted", "uuid", w.ID, "layout", w.Layout)
	return inst, nil
}

// Get returns the live instance for a world, loading it from storage
// on a cache miss. Returns (nil, nil) when the world does not exist.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Instance, error) {
	r.mu.Lock()
	if inst, ok := r.instances[id]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	r.mu.Unlock()

	w, err := r.store.LoadWorld(ctx, id)
	if err != nil || w == nil {
		return nil, err
	}

	inst := r.wrap(w)
	r.mu.Lock()
	// Another request may have rehydrated concurrently; keep the
	// first instance so combat state stays singular.
	if existing, ok := r.instances[id]; ok {
		inst = existing
	} else {
		r.instances[id] = inst
	}
	r.mu.Unlock()

	return inst, nil
}

// Save persists the instance's current world snapshot.
func (r *Registry) Save(ctx context.Context, inst *Instance) error {
	return r.store.SaveWorld(ctx, inst.World.ID, inst.World)
}

// Remove deletes a world from memory and storage.
func (r *Registry) Remove(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.instances, id)
	r.mu.Unlock()
	return r.store.DeleteWorld(ctx, id)
}

func (r *Registry) wrap(w *world.World) *Instance {
	return &Instance{
		World:  w,
		Combat: combat.New(w, r.gateway, r.mood, r.sink, r.logger),
	}
}
