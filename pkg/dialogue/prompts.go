package dialogue

import (
	"fmt"
	"sort"
	"strings"

	"emberfall/pkg/actor"
	"emberfall/pkg/emotion"
	"emberfall/pkg/trade"
)

// Dialogue generation keeps replies short: these are chat bubbles, not
// narration.
const npcPromptRules = `Stay in character. Reply with one or two short sentences of spoken dialogue only. No narration, no quotation marks, no stage directions.`

func npcSystemPrompt(npc *actor.NPC, player *actor.Player, mood *emotion.Sample) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, a character in a fantasy village. ", npc.Name)

	if npc.IsTrader() {
		sb.WriteString("You are a trader who buys items from adventurers. You pay these prices:\n")
		for _, item := range sortedCatalogItems() {
			fmt.Fprintf(&sb, "- %s: %d gold\n", item, trade.Catalog[item])
		}
		sb.WriteString("If the player wants to sell something, tell them to say exactly: sell <item name>. ")
	} else if npc.Type != "" {
		fmt.Fprintf(&sb, "Your persona: %s. ", npc.Type)
	}

	fmt.Fprintf(&sb, "The player is level %d and carries %d gold. ", player.Level, player.Gold)

	if clause := mood.PromptClause(); clause != "" {
		fmt.Fprintf(&sb, "%s; adapt your tone to that. ", clause)
	}

	sb.WriteString(npcPromptRules)
	return sb.String()
}

func sortedCatalogItems() []string {
	items := make([]string, 0, len(trade.Catalog))
	for item := range trade.Catalog {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

var situationInstructions = map[Situation]string{
	SituationAttack: "You are attacking the player. Say something menacing.",
	SituationDefend: "You just took a hit. Say something pained but defiant.",
	SituationDeath:  "You have been struck down. Say your dramatic final words.",
}

func enemySystemPrompt(enemy *actor.Enemy, situation Situation, mood *emotion.Sample) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, an enemy creature. Your personality: %s. ",
		enemy.Name, enemy.Personality)
	fmt.Fprintf(&sb, "You are at %d%% health. ", int(enemy.HealthRatio()*100))
	sb.WriteString(situationInstructions[situation])

	if clause := mood.PromptClause(); clause != "" {
		fmt.Fprintf(&sb, " %s; mock them for it.", clause)
	}

	sb.WriteString(" Reply with a single short line of dialogue. No narration.")
	return sb.String()
}
