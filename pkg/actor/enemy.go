package actor

import "emberfall/pkg/geom"

// Enemy is a hostile creature on the map. Personality feeds dialogue
// synthesis; BattleCries are the static fallback lines used when
// dialogue generation is unavailable.
type Enemy struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Position    geom.Point `json:"position"`
	Health      int        `json:"health"`
	MaxHealth   int        `json:"max_health"`
	Damage      int        `json:"damage"`
	Personality string     `json:"personality,omitempty"`
	BattleCries []string   `json:"battle_cries,omitempty"`
	Defeated    bool       `json:"defeated"`
}

// TakeDamage reduces the enemy's health by n. Health may go negative;
// the defeated transition clamps via MarkDefeated.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.Health -= n
}

// IsDead reports whether the enemy's health has reached 0 or below.
func (e *Enemy) IsDead() bool {
	return e.Health <= 0
}

// MarkDefeated marks the enemy defeated. Defeated is terminal: a
// defeated enemy is excluded from combat but stays in the collection
// for persistence.
func (e *Enemy) MarkDefeated() {
	if e.Health < 0 {
		e.Health = 0
	}
	e.Defeated = true
}

// HealthRatio returns current health as a fraction of max, for
// dialogue prompts.
func (e *Enemy) HealthRatio() float64 {
	if e.MaxHealth <= 0 {
		return 0
	}
	r := float64(e.Health) / float64(e.MaxHealth)
	if r < 0 {
		return 0
	}
	return r
}
