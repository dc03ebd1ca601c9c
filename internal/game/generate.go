// Package game owns the live runtime: world generation and the
// registry of in-memory instances with their combat state.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"emberfall/pkg/actor"
	"emberfall/pkg/geom"
	"emberfall/pkg/world"
)

// Canvas dimensions for procedural maps.
const (
	worldWidth  = 800.0
	worldHeight = 600.0
)

// safeZoneRadius covers the village area around the spawn point.
const safeZoneRadius = 150.0

type enemyArchetype struct {
	name        string
	health      int
	damage      int
	personality string
	battleCries []string
}

var enemyArchetypes = []enemyArchetype{
	{
		name:        "Goblin",
		health:      60,
		damage:      8,
		personality: "sneering and cowardly, quick to gloat and quicker to panic",
		battleCries: []string{"You'll regret this!", "Shiny things are MINE!"},
	},
	{
		name:        "Skeleton Warrior",
		health:      80,
		damage:      12,
		personality: "hollow and dutiful, speaks in dry rattling phrases",
		battleCries: []string{"Rest is for the living.", "My bones remember war."},
	},
	{
		name:        "Dire Wolf",
		health:      70,
		damage:      10,
		personality: "feral and terse, more growl than words",
		battleCries: []string{"Grrrrahh!", "The pack hungers."},
	},
	{
		name:        "Bandit",
		health:      90,
		damage:      14,
		personality: "smug and mercenary, taunts about gold and easy marks",
		battleCries: []string{"Your purse or your life!", "Easy coin, this one."},
	},
}

type npcArchetype struct {
	name  string
	kind  string
	lines []string
}

var npcArchetypes = []npcArchetype{
	{
		name: "Marla the Trader",
		kind: actor.NPCTypeTrader,
		lines: []string{
			"Welcome, traveler. Coin for goods, goods for coin.",
			"I pay fair prices. Mostly.",
		},
	},
	{
		name: "Old Brennan",
		kind: "villager",
		lines: []string{
			"The woods aren't safe since the bandits came.",
			"Stay near the village after dark.",
		},
	},
}

var treasureLoot = []string{
	"Health Potion",
	"Iron Shield",
	"Magic Sword",
	"Ancient Relic",
	"Dragon Scale",
}

// Generator builds populated worlds from placement output.
type Generator struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGenerator creates a generator with the given random source.
func NewGenerator(rng *rand.Rand, logger *slog.Logger) *Generator {
	return &Generator{rng: rng, logger: logger}
}

// Procedural scatters a fresh world: NPCs in the spawn safe zone,
// enemies outside it, treasures wherever they fit.
func (g *Generator) Procedural() *world.World {
	spawn := geom.Point{X: worldWidth / 2, Y: worldHeight / 2}
	w := world.New(actor.NewPlayer(spawn))

	engine := world.NewEngine(g.rng, g.logger)
	rules := []world.Rule{
		{Category: world.CategoryNPC},
		{Category: world.CategoryEnemy, MinDistance: 120, Avoid: []world.Category{world.CategoryNPC}},
		{Category: world.CategoryTreasure},
	}
	constraint := world.Constraint{
		MinDistanceFromPlayer: 80,
		MinSeparation:         50,
		SafeZones:             []geom.Circle{{Center: spawn, Radius: safeZoneRadius}},
	}

	points := engine.Scatter(worldWidth, worldHeight, spawn, rules, constraint)
	g.populate(w, points)
	return w
}

// FromLayout builds a world from a hand-authored layout. Entity
// positions come from the layout's resolution rules; stats still come
// from the archetype tables.
func (g *Generator) FromLayout(l *world.Layout) *world.World {
	w := world.New(actor.NewPlayer(l.Spawn))
	w.Layout = l.Name

	positions := l.Resolve(g.rng, g.logger)
	points := make(map[world.Category][]geom.Point)
	for _, ent := range l.Entities {
		points[ent.Kind] = append(points[ent.Kind], positions[ent.ID])
	}
	g.populate(w, points)
	return w
}

// populate turns per-category coordinates into actors, cycling the
// archetype tables when placement yields more points than archetypes.
func (g *Generator) populate(w *world.World, points map[world.Category][]geom.Point) {
	for i, pt := range points[world.CategoryNPC] {
		arch := npcArchetypes[i%len(npcArchetypes)]
		w.NPCs = append(w.NPCs, &actor.NPC{
			ID:       fmt.Sprintf("npc-%d", i+1),
			Name:     arch.name,
			Position: pt,
			Type:     arch.kind,
			Lines:    arch.lines,
		})
	}

	for i, pt := range points[world.CategoryEnemy] {
		arch := enemyArchetypes[i%len(enemyArchetypes)]
		w.Enemies = append(w.Enemies, &actor.Enemy{
			ID:          fmt.Sprintf("enemy-%d", i+1),
			Name:        arch.name,
			Position:    pt,
			Health:      arch.health,
			MaxHealth:   arch.health,
			Damage:      arch.damage,
			Personality: arch.personality,
			BattleCries: arch.battleCries,
		})
	}

	for i, pt := range points[world.CategoryTreasure] {
		tr := &world.Treasure{
			ID:       fmt.Sprintf("treasure-%d", i+1),
			Position: pt,
			Gold:     5 + g.rng.Intn(26),
		}
		// Roughly half the chests carry an item on top of gold.
		if g.rng.Intn(2) == 0 {
			tr.Item = treasureLoot[g.rng.Intn(len(treasureLoot))]
		}
		w.Treasures = append(w.Treasures, tr)
	}

	g.logger.Debug("World populated",
		"npcs", len(w.NPCs), "enemies", len(w.Enemies), "treasures", len(w.Treasures))
}
