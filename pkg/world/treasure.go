package world

import "emberfall/pkg/geom"

// Treasure is a collectible item on the map. Collected is terminal.
type Treasure struct {
	ID        string     `json:"id"`
	Position  geom.Point `json:"position"`
	Item      string     `json:"item,omitempty"`
	Gold      int        `json:"gold,omitempty"`
	Collected bool       `json:"collected"`
}
