// Package trade implements the deterministic sale path that gates NPC
// dialogue: sell intents referencing a cataloged item are completed
// locally and never reach the completion endpoint.
package trade

import (
	"fmt"
	"math"
	"strings"

	"emberfall/pkg/actor"
	"emberfall/pkg/emotion"
)

// Catalog is the fixed table of sellable item names and their base
// prices in gold.
var Catalog = map[string]int{
	"Magic Sword":   100,
	"Iron Shield":   60,
	"Health Potion": 25,
	"Ancient Relic": 250,
	"Dragon Scale":  180,
}

// Sell-intent verbs scanned for in the raw utterance.
var intentVerbs = []string{"sell", "trade", "buy"}

// Emotion price bonuses, bounded at +15%. A detected low mood nudges
// the trader's sympathy; happiness earns nothing extra.
var moodBonus = map[emotion.Label]float64{
	emotion.LabelSad:     1.10,
	emotion.LabelAngry:   1.05,
	emotion.LabelFearful: 1.15,
}

// Result is the outcome of an intent check.
type Result struct {
	Handled bool   // true when the utterance was resolved locally
	Sold    bool   // true when a sale completed
	Item    string `json:",omitempty"`
	Gold    int    `json:",omitempty"`
	Message string `json:",omitempty"`
}

// HandleIntent inspects the player's raw utterance for a sell/trade
// intent against the catalog. When an intent names a cataloged item,
// the exchange resolves deterministically (sale or refusal) and the
// network call is skipped. Returns Handled=false when no intent is
// found, in which case the caller proceeds to dialogue generation.
func HandleIntent(utterance string, player *actor.Player, mood *emotion.Sample) Result {
	if !hasIntentVerb(utterance) {
		return Result{}
	}

	item := matchCatalogItem(utterance)
	if item == "" {
		return Result{}
	}

	if !player.HasItem(item) {
		return Result{
			Handled: true,
			Item:    item,
			Message: fmt.Sprintf("You don't seem to have a %s to sell.", item),
		}
	}

	price := AdjustedPrice(Catalog[item], mood)
	player.RemoveItem(item)
	player.Gold += price

	return Result{
		Handled: true,
		Sold:    true,
		Item:    item,
		Gold:    price,
		Message: fmt.Sprintf("A fine %s! Here's %d gold for it.", item, price),
	}
}

// AdjustedPrice applies the bounded emotion bonus to a base price.
func AdjustedPrice(base int, mood *emotion.Sample) int {
	if mood == nil {
		return base
	}
	mult, ok := moodBonus[mood.Label]
	if !ok {
		return base
	}
	return int(math.Round(float64(base) * mult))
}

func hasIntentVerb(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, verb := range intentVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func matchCatalogItem(utterance string) string {
	lower := strings.ToLower(utterance)
	for item := range Catalog {
		if strings.Contains(lower, strings.ToLower(item)) {
			return item
		}
	}
	return ""
}
