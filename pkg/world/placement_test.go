package world

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"emberfall/pkg/geom"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(seed int64) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)), testLogger())
}

func TestScatterRespectsPlayerDistance(t *testing.T) {
	spawn := geom.Point{X: 50, Y: 50}
	c := Constraint{
		MinDistanceFromPlayer: 80,
		MinSeparation:         10,
	}
	rules := []Rule{
		{Category: CategoryNPC},
		{Category: CategoryEnemy},
		{Category: CategoryTreasure},
	}

	for seed := int64(0); seed < 10; seed++ {
		placed := testEngine(seed).Scatter(800, 600, spawn, rules, c)
		for cat, pts := range placed {
			for _, pt := range pts {
				if geom.Dist(pt, spawn) < 80 {
					t.Errorf("seed %d: %s placed %.1f units from spawn, want >= 80",
						seed, cat, geom.Dist(pt, spawn))
				}
			}
		}
	}
}

func TestScatterZonePolicy(t *testing.T) {
	safe := geom.Circle{Center: geom.Point{X: 400, Y: 300}, Radius: 150}
	c := Constraint{
		MinDistanceFromPlayer: 40,
		MinSeparation:         5,
		SafeZones:             []geom.Circle{safe},
	}
	spawn := geom.Point{X: 60, Y: 60}
	rules := []Rule{
		{Category: CategoryNPC},
		{Category: CategoryEnemy},
	}

	placed := testEngine(7).Scatter(800, 600, spawn, rules, c)

	for _, pt := range placed[CategoryNPC] {
		if !safe.Contains(pt) {
			t.Errorf("NPC at (%.1f, %.1f) outside all safe zones", pt.X, pt.Y)
		}
	}
	for _, pt := range placed[CategoryEnemy] {
		if safe.Contains(pt) {
			t.Errorf("enemy at (%.1f, %.1f) inside a safe zone", pt.X, pt.Y)
		}
	}
}

func TestScatterSeparation(t *testing.T) {
	c := Constraint{
		MinDistanceFromPlayer: 40,
		MinSeparation:         30,
	}
	rules := []Rule{
		{Category: CategoryTreasure, Density: 1},
	}

	placed := testEngine(11).Scatter(800, 600, geom.Point{X: 50, Y: 50}, rules, c)

	pts := placed[CategoryTreasure]
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := geom.Dist(pts[i], pts[j]); d < 30 {
				t.Errorf("points %d and %d are %.1f apart, want >= 30", i, j, d)
			}
		}
	}
}

func TestScatterAvoidListOverride(t *testing.T) {
	c := Constraint{
		MinDistanceFromPlayer: 40,
		MinSeparation:         10,
	}
	rules := []Rule{
		{Category: CategoryNPC},
		{Category: CategoryEnemy, MinDistance: 120, Avoid: []Category{CategoryNPC}},
	}

	placed := testEngine(3).Scatter(800, 600, geom.Point{X: 50, Y: 50}, rules, c)

	for _, e := range placed[CategoryEnemy] {
		for _, n := range placed[CategoryNPC] {
			if d := geom.Dist(e, n); d < 120 {
				t.Errorf("enemy %.1f units from NPC, want >= 120", d)
			}
		}
	}
}

func TestScatterDefaultCounts(t *testing.T) {
	c := Constraint{MinDistanceFromPlayer: 10, MinSeparation: 1}
	rules := []Rule{
		{Category: CategoryNPC},
		{Category: CategoryEnemy},
		{Category: CategoryTreasure},
	}

	placed := testEngine(1).Scatter(800, 600, geom.Point{X: 50, Y: 50}, rules, c)

	// Under-population is allowed, overshoot is not.
	if n := len(placed[CategoryNPC]); n > 2 {
		t.Errorf("expected at most 2 NPCs, got %d", n)
	}
	if n := len(placed[CategoryEnemy]); n > 4 {
		t.Errorf("expected at most 4 enemies, got %d", n)
	}
	if n := len(placed[CategoryTreasure]); n > 4 {
		t.Errorf("expected at most 4 treasures, got %d", n)
	}
}

func TestScatterUnsatisfiableSlotIsDropped(t *testing.T) {
	// Safe zones that cover nothing reachable: NPCs can never place.
	c := Constraint{
		MinDistanceFromPlayer: 40,
		MinSeparation:         5,
		SafeZones:             []geom.Circle{{Center: geom.Point{X: -500, Y: -500}, Radius: 10}},
	}
	rules := []Rule{{Category: CategoryNPC}}

	placed := testEngine(5).Scatter(800, 600, geom.Point{X: 50, Y: 50}, rules, c)

	if n := len(placed[CategoryNPC]); n != 0 {
		t.Errorf("expected 0 NPCs for unsatisfiable constraint, got %d", n)
	}
}

func TestScatterDensityCount(t *testing.T) {
	e := testEngine(2)
	// density 1 per 10000 over 800x600 = 48 targets
	if n := e.targetCount(Rule{Category: CategoryTreasure, Density: 1}, 800, 600); n != 48 {
		t.Errorf("expected target count 48, got %d", n)
	}
	// tiny area still yields at least one slot
	if n := e.targetCount(Rule{Category: CategoryTreasure, Density: 0.1}, 100, 100); n != 1 {
		t.Errorf("expected minimum target count 1, got %d", n)
	}
}
