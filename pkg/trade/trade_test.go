package trade

import (
	"testing"

	"emberfall/pkg/actor"
	"emberfall/pkg/emotion"
	"emberfall/pkg/geom"
)

func newSeller(items ...string) *actor.Player {
	p := actor.NewPlayer(geom.Point{})
	for _, item := range items {
		p.AddItem(item)
	}
	return p
}

func TestHandleIntent(t *testing.T) {
	t.Run("sells an owned cataloged item", func(t *testing.T) {
		p := newSeller("Magic Sword")

		res := HandleIntent("I want to sell my Magic Sword", p, nil)

		if !res.Handled || !res.Sold {
			t.Fatalf("expected a completed sale, got %+v", res)
		}
		if res.Gold != 100 {
			t.Errorf("expected 100 gold, got %d", res.Gold)
		}
		if p.Gold != 100 {
			t.Errorf("expected player credited 100 gold, got %d", p.Gold)
		}
		if p.HasItem("Magic Sword") {
			t.Error("expected item removed from inventory")
		}
	})

	t.Run("removes only one duplicate", func(t *testing.T) {
		p := newSeller("Health Potion", "Health Potion")

		HandleIntent("sell Health Potion", p, nil)

		if len(p.Inventory) != 1 {
			t.Errorf("expected one potion left, got %d entries", len(p.Inventory))
		}
	})

	t.Run("refuses unowned item without a network call", func(t *testing.T) {
		p := newSeller()

		res := HandleIntent("sell Magic Sword please", p, nil)

		if !res.Handled {
			t.Fatal("expected the intent to be handled locally")
		}
		if res.Sold {
			t.Error("expected a refusal, not a sale")
		}
		if res.Message == "" {
			t.Error("expected a synthesized refusal message")
		}
	})

	t.Run("no intent verb passes through", func(t *testing.T) {
		p := newSeller("Magic Sword")
		res := HandleIntent("nice weather today", p, nil)
		if res.Handled {
			t.Errorf("expected pass-through, got %+v", res)
		}
	})

	t.Run("intent verb without a cataloged item passes through", func(t *testing.T) {
		p := newSeller()
		res := HandleIntent("will you buy my old boots?", p, nil)
		if res.Handled {
			t.Errorf("expected pass-through, got %+v", res)
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		p := newSeller("Iron Shield")
		res := HandleIntent("SELL IRON SHIELD", p, nil)
		if !res.Sold {
			t.Errorf("expected sale, got %+v", res)
		}
	})
}

func TestAdjustedPrice(t *testing.T) {
	tests := []struct {
		name string
		mood *emotion.Sample
		want int
	}{
		{"no mood", nil, 100},
		{"sad pays 10 percent more", &emotion.Sample{Label: emotion.LabelSad, Confidence: 0.6}, 110},
		{"angry pays 5 percent more", &emotion.Sample{Label: emotion.LabelAngry, Confidence: 0.6}, 105},
		{"fearful pays 15 percent more", &emotion.Sample{Label: emotion.LabelFearful, Confidence: 0.6}, 115},
		{"happy pays base price", &emotion.Sample{Label: emotion.LabelHappy, Confidence: 0.9}, 100},
		{"neutral pays base price", &emotion.Sample{Label: emotion.LabelNeutral, Confidence: 0.9}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustedPrice(100, tt.mood); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSadSaleScenario(t *testing.T) {
	// Selling a 100-gold item while detected sad credits round(100 * 1.1).
	p := newSeller("Magic Sword")
	mood := &emotion.Sample{Label: emotion.LabelSad, Confidence: 0.6}

	res := HandleIntent("sell Magic Sword", p, mood)

	if res.Gold != 110 {
		t.Errorf("expected 110 gold credited, got %d", res.Gold)
	}
	if p.Gold != 110 {
		t.Errorf("expected player gold 110, got %d", p.Gold)
	}
}
