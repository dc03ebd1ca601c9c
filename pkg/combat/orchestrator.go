// Package combat runs one encounter from engagement to resolution.
// Mechanical outcomes (damage, death, rewards, level-ups) resolve
// synchronously; dialogue generation is best-effort narration layered
// on top and never rolls a mechanical state change back.
package combat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"emberfall/pkg/actor"
	"emberfall/pkg/dialogue"
	"emberfall/pkg/emotion"
	"emberfall/pkg/geom"
	"emberfall/pkg/world"
)

// Phase is the orchestrator's current state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseEnemyTalking Phase = "enemy_talking"
	PhasePlayerTurn   Phase = "player_turn"
)

var (
	ErrNoSession     = errors.New("no active combat session")
	ErrBusy          = errors.New("combat session already active")
	ErrEnemyDefeated = errors.New("enemy is already defeated")
)

// Pacing and displacement defaults.
const (
	defaultEngageDelay  = 3 * time.Second
	defaultCounterDelay = 2 * time.Second
)

var defaultFleeOffset = geom.Point{X: 120, Y: 90}

// Player damage multipliers by detected affect. Absent or other
// affects multiply by exactly 1.0.
var damageMult = map[emotion.Label]float64{
	emotion.LabelAngry:   1.2,
	emotion.LabelFearful: 0.8,
	emotion.LabelHappy:   1.1,
	emotion.LabelSad:     0.9,
}

// Enemy counter-attack multipliers: fear makes hits land harder, anger
// slightly softens them.
var counterMult = map[emotion.Label]float64{
	emotion.LabelFearful: 1.15,
	emotion.LabelAngry:   0.95,
}

// MoodSource exposes the current smoothed affect estimate. A nil
// source (or a nil sample) means no active emotion.
type MoodSource interface {
	Current() *emotion.Sample
}

// Dialoguer is the enemy-dialogue surface the orchestrator consumes.
type Dialoguer interface {
	EnemyLine(ctx context.Context, enemy *actor.Enemy, situation dialogue.Situation, mood *emotion.Sample) dialogue.Line
}

// Message is a user-facing combat line pushed to the client.
type Message struct {
	EnemyID   string `json:"enemy_id"`
	Text      string `json:"text"`
	Situation string `json:"situation,omitempty"`
}

// MessageSink receives asynchronous combat messages (opening lines,
// counter-attack flavor). May be nil.
type MessageSink func(Message)

// session is the transient record linking the player to one
// actively-fought enemy.
type session struct {
	enemy   *actor.Enemy
	talking bool
	gen     uint64
}

// Orchestrator is the combat state machine. One orchestrator per
// world; all entity mutation happens under its lock.
type Orchestrator struct {
	world   *world.World
	gateway Dialoguer
	mood    MoodSource
	sink    MessageSink
	logger  *slog.Logger
	rng     *rand.Rand

	// Overridable pacing; tests shrink these.
	EngageDelay  time.Duration
	CounterDelay time.Duration
	FleeOffset   geom.Point

	mu      sync.Mutex
	session *session
	// gen increments whenever a session is created or cleared so
	// late-arriving dialogue for a dead session is discarded.
	gen uint64
}

// New creates an orchestrator for the given world.
func New(w *world.World, gateway Dialoguer, mood MoodSource, sink MessageSink, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		world:        w,
		gateway:      gateway,
		mood:         mood,
		sink:         sink,
		logger:       logger,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		EngageDelay:  defaultEngageDelay,
		CounterDelay: defaultCounterDelay,
		FleeOffset:   defaultFleeOffset,
	}
}

// Phase returns the current state.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.session == nil:
		return PhaseIdle
	case o.session.talking:
		return PhaseEnemyTalking
	default:
		return PhasePlayerTurn
	}
}

// ActiveEnemyID returns the engaged enemy's id, if any.
func (o *Orchestrator) ActiveEnemyID() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return "", false
	}
	return o.session.enemy.ID, true
}

// currentMood reads the smoothed affect, tolerating a nil source.
func (o *Orchestrator) currentMood() *emotion.Sample {
	if o.mood == nil {
		return nil
	}
	return o.mood.Current()
}

// Engage starts an encounter with the given enemy. The enemy opens
// with an "attack" line; whether or not generation succeeds, the
// player's turn begins after a fixed pacing delay that input cannot
// cancel.
func (o *Orchestrator) Engage(ctx context.Context, enemyID string) error {
	o.mu.Lock()
	if o.session != nil {
		o.mu.Unlock()
		return ErrBusy
	}
	enemy := o.world.EnemyByID(enemyID)
	if enemy == nil {
		o.mu.Unlock()
		return fmt.Errorf("enemy %s not found", enemyID)
	}
	if enemy.Defeated {
		o.mu.Unlock()
		return ErrEnemyDefeated
	}

	o.gen++
	gen := o.gen
	o.session = &session{enemy: enemy, talking: true, gen: gen}
	o.mu.Unlock()

	o.logger.Info("Combat engaged", "enemy", enemyID)

	mood := o.currentMood()
	go func() {
		line := o.gateway.EnemyLine(ctx, enemy, dialogue.SituationAttack, mood)
		o.emit(gen, Message{EnemyID: enemyID, Text: line.Text, Situation: string(dialogue.SituationAttack)})
	}()

	time.AfterFunc(o.EngageDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.session == nil || o.session.gen != gen {
			return
		}
		o.session.talking = false
	})

	return nil
}

// AttackResult reports one attack resolution.
type AttackResult struct {
	// Ignored is set when the attack landed while the enemy was
	// talking: input is silently swallowed, nothing changed.
	Ignored bool `json:"ignored,omitempty"`

	Damage      int           `json:"damage,omitempty"`
	EnemyHealth int           `json:"enemy_health,omitempty"`
	Victory     bool          `json:"victory,omitempty"`
	ExpGained   int           `json:"exp_gained,omitempty"`
	GoldGained  int           `json:"gold_gained,omitempty"`
	LeveledUp   bool          `json:"leveled_up,omitempty"`
	Line        dialogue.Line `json:"line"`
}

// Attack resolves one player attack against the engaged enemy.
func (o *Orchestrator) Attack(ctx context.Context) (*AttackResult, error) {
	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return nil, ErrNoSession
	}
	if o.session.talking {
		o.mu.Unlock()
		return &AttackResult{Ignored: true}, nil
	}

	enemy := o.session.enemy
	gen := o.session.gen
	mood := o.currentMood()

	damage := playerDamage(o.world.Player.Level, mood)
	enemy.TakeDamage(damage)

	if enemy.IsDead() {
		exp := 15 + enemy.Damage
		gold := 10 + o.rng.Intn(20)
		leveled := o.world.Player.GainExperience(exp)
		o.world.Player.Gold += gold
		enemy.MarkDefeated()
		o.session = nil
		o.gen++
		o.mu.Unlock()

		o.logger.Info("Enemy defeated",
			"enemy", enemy.ID, "exp", exp, "gold", gold, "leveled_up", leveled)

		line := o.gateway.EnemyLine(ctx, enemy, dialogue.SituationDeath, mood)
		return &AttackResult{
			Damage:      damage,
			EnemyHealth: enemy.Health,
			Victory:     true,
			ExpGained:   exp,
			GoldGained:  gold,
			LeveledUp:   leveled,
			Line:        line,
		}, nil
	}

	// Enemy survives: it talks through the counter exchange, so
	// further attack input is swallowed until the turn comes back.
	o.session.talking = true
	o.mu.Unlock()

	defendLine := o.gateway.EnemyLine(ctx, enemy, dialogue.SituationDefend, mood)
	o.scheduleCounter(gen, enemy, defendLine)

	return &AttackResult{
		Damage:      damage,
		EnemyHealth: enemy.Health,
		Line:        defendLine,
	}, nil
}

// scheduleCounter applies the enemy's counter-attack after the pacing
// delay. Damage application is synchronous and not gated on the
// counter line resolving.
func (o *Orchestrator) scheduleCounter(gen uint64, enemy *actor.Enemy, defendLine dialogue.Line) {
	time.AfterFunc(o.CounterDelay, func() {
		o.mu.Lock()
		if o.session == nil || o.session.gen != gen {
			o.mu.Unlock()
			return
		}
		mood := o.currentMood()
		counter := counterDamage(enemy.Damage, mood)
		o.world.Player.TakeDamage(counter)
		playerHealth := o.world.Player.Health
		o.mu.Unlock()

		o.logger.Debug("Counter-attack applied",
			"enemy", enemy.ID, "damage", counter, "player_health", playerHealth)

		counterLine := o.gateway.EnemyLine(context.Background(), enemy, dialogue.SituationAttack, mood)

		o.mu.Lock()
		if o.session != nil && o.session.gen == gen {
			o.session.talking = false
		}
		o.mu.Unlock()

		o.emit(gen, Message{
			EnemyID:   enemy.ID,
			Text:      defendLine.Text + " " + counterLine.Text,
			Situation: "counter",
		})
	})
}

// Flee resolves the encounter as flight: the session is cleared
// unconditionally (even mid-dialogue) and the player is displaced by
// the fixed offset. Clearing is idempotent; displacement applies once
// per call.
func (o *Orchestrator) Flee() {
	o.mu.Lock()
	if o.session != nil {
		o.session = nil
		o.gen++
	}
	o.world.Player.Position.X += o.FleeOffset.X
	o.world.Player.Position.Y += o.FleeOffset.Y
	o.mu.Unlock()

	o.logger.Info("Player fled combat")
}

// emit delivers a message unless its session generation is stale: a
// line that resolves after flight or victory is discarded rather than
// shown after the player disengaged.
func (o *Orchestrator) emit(gen uint64, msg Message) {
	o.mu.Lock()
	stale := o.session == nil || o.session.gen != gen
	sink := o.sink
	o.mu.Unlock()

	if stale || sink == nil {
		if stale {
			o.logger.Debug("Discarded stale combat message", "enemy", msg.EnemyID)
		}
		return
	}
	sink(msg)
}

// playerDamage computes round((20 + level×5) × affect multiplier).
func playerDamage(level int, mood *emotion.Sample) int {
	base := float64(20 + level*5)
	return int(math.Round(base * lookupMult(damageMult, mood)))
}

// counterDamage modulates the enemy's fixed attack value by the
// smaller counter-attack affect effect.
func counterDamage(base int, mood *emotion.Sample) int {
	return int(math.Round(float64(base) * lookupMult(counterMult, mood)))
}

func lookupMult(table map[emotion.Label]float64, mood *emotion.Sample) float64 {
	if mood == nil {
		return 1.0
	}
	if m, ok := table[mood.Label]; ok {
		return m
	}
	return 1.0
}
