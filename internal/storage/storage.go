package storage

import (
	"context"

	"github.com/google/uuid"

	"emberfall/pkg/world"
)

// Storage persists world snapshots and serves static layout files.
// Worlds live in Redis; layouts are read from the data directory.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveWorld(ctx context.Context, id uuid.UUID, w *world.World) error
	// LoadWorld returns (nil, nil) when no world exists for the id.
	LoadWorld(ctx context.Context, id uuid.UUID) (*world.World, error)
	DeleteWorld(ctx context.Context, id uuid.UUID) error

	// ListLayouts maps layout names to their filenames.
	ListLayouts(ctx context.Context) (map[string]string, error)
	GetLayout(ctx context.Context, filename string) (*world.Layout, error)
}
