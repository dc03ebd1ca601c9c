package world

import (
	"log/slog"
	"math/rand"

	"emberfall/pkg/geom"
)

// Category identifies an entity category for placement purposes.
type Category string

const (
	CategoryNPC      Category = "npc"
	CategoryEnemy    Category = "enemy"
	CategoryTreasure Category = "treasure"
)

// Default counts when a rule specifies no density.
var defaultCounts = map[Category]int{
	CategoryNPC:      2,
	CategoryEnemy:    4,
	CategoryTreasure: 4,
}

// placementMargin keeps candidates away from the canvas edge.
const placementMargin = 40.0

// Rule controls how many instances of one category to scatter and
// which other categories to keep extra distance from.
type Rule struct {
	Category    Category
	Density     float64 // instances per 10000 square units; 0 means the category default count
	MinDistance float64 // separation from points of avoided categories
	Avoid       []Category
}

// Constraint is the per-run spatial exclusion set. Consumed only
// during map generation; not persisted.
type Constraint struct {
	MinDistanceFromPlayer float64
	MinSeparation         float64 // general separation between any two placed points
	SafeZones             []geom.Circle
	DangerZones           []geom.Circle
}

// Engine scatters entities with rejection sampling. It carries its own
// random source so tests can seed it; placement itself makes no
// determinism promise.
type Engine struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewEngine creates a placement engine with the given random source.
func NewEngine(rng *rand.Rand, logger *slog.Logger) *Engine {
	return &Engine{rng: rng, logger: logger}
}

type placed struct {
	pt  geom.Point
	cat Category
}

// Scatter produces a coordinate list per category. Slots whose attempt
// budget runs out are dropped: an under-populated category is accepted,
// not an error.
func (e *Engine) Scatter(width, height float64, spawn geom.Point, rules []Rule, c Constraint) map[Category][]geom.Point {
	out := make(map[Category][]geom.Point, len(rules))
	var accepted []placed

	for _, rule := range rules {
		target := e.targetCount(rule, width, height)
		budget := target * 10

		for slot := 0; slot < target; slot++ {
			pt, ok := e.sampleSlot(rule, width, height, spawn, c, accepted, budget)
			if !ok {
				e.logger.Debug("Placement slot dropped",
					"category", string(rule.Category),
					"slot", slot,
					"attempts", budget)
				continue
			}
			accepted = append(accepted, placed{pt: pt, cat: rule.Category})
			out[rule.Category] = append(out[rule.Category], pt)
		}
	}

	return out
}

func (e *Engine) targetCount(rule Rule, width, height float64) int {
	if rule.Density > 0 {
		n := int(rule.Density * width * height / 10000)
		if n < 1 {
			n = 1
		}
		return n
	}
	if n, ok := defaultCounts[rule.Category]; ok {
		return n
	}
	return 1
}

func (e *Engine) sampleSlot(rule Rule, width, height float64, spawn geom.Point, c Constraint, accepted []placed, budget int) (geom.Point, bool) {
	for attempt := 0; attempt < budget; attempt++ {
		pt := geom.Point{
			X: placementMargin + e.rng.Float64()*(width-2*placementMargin),
			Y: placementMargin + e.rng.Float64()*(height-2*placementMargin),
		}

		if geom.Dist(pt, spawn) < c.MinDistanceFromPlayer {
			continue
		}
		if !zonePolicyAllows(rule.Category, pt, c) {
			continue
		}
		if !separationHolds(rule, pt, accepted, c) {
			continue
		}
		return pt, true
	}
	return geom.Point{}, false
}

// zonePolicyAllows applies the category zone policy: NPCs must fall
// inside a safe zone, enemies outside all safe zones (and inside a
// danger zone when any are configured), treasures are zone-agnostic.
func zonePolicyAllows(cat Category, pt geom.Point, c Constraint) bool {
	switch cat {
	case CategoryNPC:
		if len(c.SafeZones) == 0 {
			return true
		}
		for _, z := range c.SafeZones {
			if z.Contains(pt) {
				return true
			}
		}
		return false
	case CategoryEnemy:
		for _, z := range c.SafeZones {
			if z.Contains(pt) {
				return false
			}
		}
		if len(c.DangerZones) == 0 {
			return true
		}
		for _, z := range c.DangerZones {
			if z.Contains(pt) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func separationHolds(rule Rule, pt geom.Point, accepted []placed, c Constraint) bool {
	for _, p := range accepted {
		min := c.MinSeparation
		if rule.MinDistance > 0 && avoids(rule, p.cat) {
			min = rule.MinDistance
		}
		if geom.Dist(pt, p.pt) < min {
			return false
		}
	}
	return true
}

func avoids(rule Rule, cat Category) bool {
	for _, a := range rule.Avoid {
		if a == cat {
			return true
		}
	}
	return false
}
