package actor

import "emberfall/pkg/geom"

// Player is the player character aggregate. It is owned by the world
// snapshot; combat mutates health/experience/level/gold, treasure
// collection and trading mutate inventory and gold.
type Player struct {
	Position  geom.Point `json:"position"`
	Size      float64    `json:"size"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"max_health"`
	Exp       int        `json:"experience"`
	Level     int        `json:"level"`
	Gold      int        `json:"gold"`
	Inventory []string   `json:"inventory,omitempty"`
}

// NewPlayer creates a level 1 player at the given spawn point.
func NewPlayer(spawn geom.Point) *Player {
	return &Player{
		Position:  spawn,
		Size:      20,
		Health:    100,
		MaxHealth: 100,
		Level:     1,
	}
}

// TakeDamage reduces the player's health by n. Health cannot go below 0.
func (p *Player) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	p.Health -= n
	if p.Health < 0 {
		p.Health = 0
	}
}

// Heal increases the player's health by n, capped at MaxHealth.
func (p *Player) Heal(n int) {
	if n <= 0 {
		return
	}
	p.Health += n
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// GainExperience adds n experience and applies at most one level-up.
// The threshold is Level × 100 accumulated experience. Large gains that
// would cross several thresholds still grant a single level per call.
// Returns true if the player leveled up.
func (p *Player) GainExperience(n int) bool {
	if n <= 0 {
		return false
	}
	p.Exp += n
	if p.Exp >= p.Level*100 {
		p.Level++
		return true
	}
	return false
}

// AddItem appends an item to the inventory. Duplicates are allowed.
func (p *Player) AddItem(name string) {
	p.Inventory = append(p.Inventory, name)
}

// RemoveItem removes one matching inventory entry. Returns false if the
// player does not own the item.
func (p *Player) RemoveItem(name string) bool {
	for i, item := range p.Inventory {
		if item == name {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// HasItem reports whether at least one matching entry is in the inventory.
func (p *Player) HasItem(name string) bool {
	for _, item := range p.Inventory {
		if item == name {
			return true
		}
	}
	return false
}
