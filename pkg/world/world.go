// Package world holds the map-level game state: the entity
// collections, procedural placement and configured layouts.
package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"emberfall/pkg/actor"
)

// World is the unit of save/restore. A single top-level holder owns
// the collections; readers observe whole snapshots, never partial
// in-place mutation.
type World struct {
	ID        uuid.UUID      `json:"id"`
	Layout    string         `json:"layout,omitempty"` // named layout, empty for procedural maps
	Player    *actor.Player  `json:"player"`
	Enemies   []*actor.Enemy `json:"enemies,omitempty"`
	NPCs      []*actor.NPC   `json:"npcs,omitempty"`
	Treasures []*Treasure    `json:"treasures,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// New creates an empty world with a fresh ID.
func New(player *actor.Player) *World {
	return &World{
		ID:        uuid.New(),
		Player:    player,
		CreatedAt: time.Now(),
	}
}

// EnemyByID returns the enemy with the given id, or nil.
func (w *World) EnemyByID(id string) *actor.Enemy {
	for _, e := range w.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// NPCByID returns the NPC with the given id, or nil.
func (w *World) NPCByID(id string) *actor.NPC {
	for _, n := range w.NPCs {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// CollectTreasure marks the treasure collected and credits the
// player's inventory and gold. Collecting an already-collected
// treasure is an error; the flag is terminal.
func (w *World) CollectTreasure(id string) (*Treasure, error) {
	for _, tr := range w.Treasures {
		if tr.ID != id {
			continue
		}
		if tr.Collected {
			return nil, fmt.Errorf("treasure %s already collected", id)
		}
		tr.Collected = true
		if tr.Item != "" {
			w.Player.AddItem(tr.Item)
		}
		w.Player.Gold += tr.Gold
		return tr, nil
	}
	return nil, fmt.Errorf("treasure %s not found", id)
}
