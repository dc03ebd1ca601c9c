package world

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"emberfall/pkg/geom"
)

// zoneAttempts bounds rejection sampling inside a named zone before the
// deterministic center-of-zone fallback kicks in.
const zoneAttempts = 10

// avoidRadius is the clearance kept from avoided named points when
// sampling inside a zone.
const avoidRadius = 30.0

// Layout is a hand-authored map configuration: named points, named
// rectangular zones, and the entities to place from them.
type Layout struct {
	Name     string                `yaml:"name"`
	Spawn    geom.Point            `yaml:"spawn"`
	Points   map[string]geom.Point `yaml:"points,omitempty"`
	Zones    map[string]geom.Rect  `yaml:"zones,omitempty"`
	Entities []LayoutEntity        `yaml:"entities,omitempty"`
}

// LayoutEntity places one entity either at a named point, at literal
// coordinates, or somewhere inside a named zone.
type LayoutEntity struct {
	ID       string      `yaml:"id"`
	Kind     Category    `yaml:"kind"`
	At       string      `yaml:"at,omitempty"`
	Position *geom.Point `yaml:"position,omitempty"`
	Zone     string      `yaml:"zone,omitempty"`
	Avoid    []string    `yaml:"avoid,omitempty"` // named points to keep clear of
}

// LoadLayout reads a layout from a YAML file. Malformed YAML is a load
// error; dangling references inside a valid layout are not (they get
// default coordinates at resolve time).
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse layout file: %w", err)
	}
	return &l, nil
}

// Resolve returns a position for every configured entity. Unknown
// point or zone names are logged and substituted with the layout
// spawn; every entity always receives a position.
func (l *Layout) Resolve(rng *rand.Rand, logger *slog.Logger) map[string]geom.Point {
	out := make(map[string]geom.Point, len(l.Entities))
	for _, ent := range l.Entities {
		out[ent.ID] = l.resolveOne(ent, rng, logger)
	}
	return out
}

func (l *Layout) resolveOne(ent LayoutEntity, rng *rand.Rand, logger *slog.Logger) geom.Point {
	switch {
	case ent.At != "":
		pt, ok := l.Points[ent.At]
		if !ok {
			logger.Warn("Unknown named position in layout",
				"layout", l.Name, "entity", ent.ID, "point", ent.At)
			return l.Spawn
		}
		return pt

	case ent.Position != nil:
		return *ent.Position

	case ent.Zone != "":
		zone, ok := l.Zones[ent.Zone]
		if !ok {
			logger.Warn("Unknown zone in layout",
				"layout", l.Name, "entity", ent.ID, "zone", ent.Zone)
			return l.Spawn
		}
		return l.sampleZone(zone, ent.Avoid, rng)

	default:
		logger.Warn("Layout entity has no placement directive",
			"layout", l.Name, "entity", ent.ID)
		return l.Spawn
	}
}

// sampleZone rejection-samples inside the zone rectangle, keeping
// clear of the avoided named points. After the attempt budget it falls
// back to the zone center so the entity is always placed.
func (l *Layout) sampleZone(zone geom.Rect, avoid []string, rng *rand.Rand) geom.Point {
	for attempt := 0; attempt < zoneAttempts; attempt++ {
		pt := geom.Point{
			X: zone.X + rng.Float64()*zone.W,
			Y: zone.Y + rng.Float64()*zone.H,
		}
		if l.clearOfAvoided(pt, avoid) {
			return pt
		}
	}
	return zone.Center()
}

func (l *Layout) clearOfAvoided(pt geom.Point, avoid []string) bool {
	for _, name := range avoid {
		ap, ok := l.Points[name]
		if !ok {
			continue
		}
		if geom.Within(pt, ap, avoidRadius) {
			return false
		}
	}
	return true
}
