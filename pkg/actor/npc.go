package actor

import "emberfall/pkg/geom"

// NPCTypeTrader marks an NPC that buys items from the player.
const NPCTypeTrader = "trader"

// NPC is a non-player character. Immutable after placement except for
// position. Lines are static decorative dialogue, unrelated to the
// generated dialogue path.
type NPC struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Position geom.Point `json:"position"`
	Type     string     `json:"type,omitempty"` // "trader" or free-text persona
	Lines    []string   `json:"lines,omitempty"`
}

// IsTrader reports whether this NPC uses the trader persona.
func (n *NPC) IsTrader() bool {
	return n.Type == NPCTypeTrader
}
