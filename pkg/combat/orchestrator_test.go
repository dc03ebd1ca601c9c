package combat

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberfall/pkg/actor"
	"emberfall/pkg/dialogue"
	"emberfall/pkg/emotion"
	"emberfall/pkg/geom"
	"emberfall/pkg/world"
)

type fakeDialoguer struct {
	mu    sync.Mutex
	calls []dialogue.Situation
}

func (f *fakeDialoguer) EnemyLine(_ context.Context, _ *actor.Enemy, situation dialogue.Situation, _ *emotion.Sample) dialogue.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, situation)
	return dialogue.Line{Text: "[" + string(situation) + "]"}
}

func (f *fakeDialoguer) situations() []dialogue.Situation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dialogue.Situation(nil), f.calls...)
}

type fakeMood struct {
	mu     sync.Mutex
	sample *emotion.Sample
}

func (f *fakeMood) Current() *emotion.Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sample
}

func (f *fakeMood) set(label emotion.Label) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = &emotion.Sample{Label: label, Confidence: 0.9}
}

type sinkRecorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (s *sinkRecorder) record(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *sinkRecorder) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func newTestWorld(enemy *actor.Enemy) *world.World {
	w := world.New(actor.NewPlayer(geom.Point{X: 100, Y: 100}))
	w.Enemies = []*actor.Enemy{enemy}
	return w
}

func newTestOrchestrator(w *world.World, gw Dialoguer, mood MoodSource, sink MessageSink) *Orchestrator {
	o := New(w, gw, mood, sink, slog.New(slog.NewTextHandler(testWriter{}, nil)))
	o.EngageDelay = 10 * time.Millisecond
	o.CounterDelay = 10 * time.Millisecond
	return o
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitForPhase(t *testing.T, o *Orchestrator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Phase() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("phase never reached %s, stuck at %s", want, o.Phase())
}

func testEnemy(health int) *actor.Enemy {
	return &actor.Enemy{
		ID:        "goblin-1",
		Name:      "Goblin",
		Position:  geom.Point{X: 300, Y: 300},
		Health:    health,
		MaxHealth: health,
		Damage:    10,
	}
}

func TestEngage(t *testing.T) {
	t.Run("transitions to player turn after delay", func(t *testing.T) {
		gw := &fakeDialoguer{}
		o := newTestOrchestrator(newTestWorld(testEnemy(100)), gw, nil, nil)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		assert.Equal(t, PhaseEnemyTalking, o.Phase())

		id, ok := o.ActiveEnemyID()
		require.True(t, ok)
		assert.Equal(t, "goblin-1", id)

		waitForPhase(t, o, PhasePlayerTurn)
		assert.Contains(t, gw.situations(), dialogue.SituationAttack)
	})

	t.Run("rejects second engagement while active", func(t *testing.T) {
		o := newTestOrchestrator(newTestWorld(testEnemy(100)), &fakeDialoguer{}, nil, nil)
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		assert.ErrorIs(t, o.Engage(context.Background(), "goblin-1"), ErrBusy)
	})

	t.Run("rejects defeated enemy", func(t *testing.T) {
		enemy := testEnemy(100)
		enemy.Defeated = true
		o := newTestOrchestrator(newTestWorld(enemy), &fakeDialoguer{}, nil, nil)
		assert.ErrorIs(t, o.Engage(context.Background(), "goblin-1"), ErrEnemyDefeated)
	})

	t.Run("rejects unknown enemy", func(t *testing.T) {
		o := newTestOrchestrator(newTestWorld(testEnemy(100)), &fakeDialoguer{}, nil, nil)
		assert.Error(t, o.Engage(context.Background(), "nobody"))
	})
}

func TestAttack(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		o := newTestOrchestrator(newTestWorld(testEnemy(100)), &fakeDialoguer{}, nil, nil)
		_, err := o.Attack(context.Background())
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("ignored while enemy is talking", func(t *testing.T) {
		enemy := testEnemy(100)
		o := newTestOrchestrator(newTestWorld(enemy), &fakeDialoguer{}, nil, nil)
		o.EngageDelay = time.Second

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		result, err := o.Attack(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Ignored)
		assert.Equal(t, 100, enemy.Health, "swallowed input must not deal damage")
	})

	t.Run("level 1 neutral damage is 25", func(t *testing.T) {
		enemy := testEnemy(100)
		o := newTestOrchestrator(newTestWorld(enemy), &fakeDialoguer{}, nil, nil)
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)

		result, err := o.Attack(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 25, result.Damage)
		assert.Equal(t, 75, enemy.Health)
	})

	t.Run("affect modulates damage", func(t *testing.T) {
		tests := []struct {
			label emotion.Label
			want  int
		}{
			{emotion.LabelAngry, 30},   // 25 × 1.2
			{emotion.LabelFearful, 20}, // 25 × 0.8
			{emotion.LabelHappy, 28},   // round(27.5)
			{emotion.LabelSad, 23},     // round(22.5)
			{emotion.LabelSurprised, 25},
		}
		for _, tc := range tests {
			t.Run(string(tc.label), func(t *testing.T) {
				enemy := testEnemy(100)
				mood := &fakeMood{}
				mood.set(tc.label)
				o := newTestOrchestrator(newTestWorld(enemy), &fakeDialoguer{}, mood, nil)
				require.NoError(t, o.Engage(context.Background(), "goblin-1"))
				waitForPhase(t, o, PhasePlayerTurn)

				result, err := o.Attack(context.Background())
				require.NoError(t, err)
				assert.Equal(t, tc.want, result.Damage)
			})
		}
	})

	t.Run("surviving enemy counters and returns the turn", func(t *testing.T) {
		enemy := testEnemy(100)
		w := newTestWorld(enemy)
		gw := &fakeDialoguer{}
		sink := &sinkRecorder{}
		o := newTestOrchestrator(w, gw, nil, sink.record)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)

		result, err := o.Attack(context.Background())
		require.NoError(t, err)
		assert.False(t, result.Victory)
		assert.Equal(t, "[defend]", result.Line.Text)
		assert.Equal(t, PhaseEnemyTalking, o.Phase())

		waitForPhase(t, o, PhasePlayerTurn)
		assert.Equal(t, 90, w.Player.Health, "counter deals the enemy's base damage")

		msgs := sink.messages()
		require.NotEmpty(t, msgs)
		last := msgs[len(msgs)-1]
		assert.Equal(t, "counter", last.Situation)
		assert.Equal(t, "[defend] [attack]", last.Text)
	})

	t.Run("fear amplifies the counter", func(t *testing.T) {
		enemy := testEnemy(100)
		w := newTestWorld(enemy)
		mood := &fakeMood{}
		mood.set(emotion.LabelFearful)
		o := newTestOrchestrator(w, &fakeDialoguer{}, mood, nil)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)
		_, err := o.Attack(context.Background())
		require.NoError(t, err)
		waitForPhase(t, o, PhasePlayerTurn)

		// round(10 × 1.15) = 12
		assert.Equal(t, 88, w.Player.Health)
	})

	t.Run("victory at exactly zero health", func(t *testing.T) {
		enemy := testEnemy(25)
		w := newTestWorld(enemy)
		gw := &fakeDialoguer{}
		o := newTestOrchestrator(w, gw, nil, nil)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)

		result, err := o.Attack(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Victory)
		assert.True(t, enemy.Defeated)
		assert.Equal(t, 0, enemy.Health)
		assert.Equal(t, "[death]", result.Line.Text)
		assert.Equal(t, PhaseIdle, o.Phase())
	})

	t.Run("victory grants rewards and a level", func(t *testing.T) {
		// Level 2 player hits for 30; a 25-health enemy overkills to
		// -5 which the defeat clamp resets to zero.
		enemy := testEnemy(25)
		w := newTestWorld(enemy)
		w.Player.Level = 2
		w.Player.Exp = 180
		o := newTestOrchestrator(w, &fakeDialoguer{}, nil, nil)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)

		result, err := o.Attack(context.Background())
		require.NoError(t, err)
		require.True(t, result.Victory)
		assert.Equal(t, 30, result.Damage)
		assert.Equal(t, 0, enemy.Health)
		assert.Equal(t, 25, result.ExpGained, "15 plus the enemy's damage stat")
		assert.GreaterOrEqual(t, result.GoldGained, 10)
		assert.LessOrEqual(t, result.GoldGained, 29)
		assert.True(t, result.LeveledUp)
		assert.Equal(t, 3, w.Player.Level)
		assert.Equal(t, result.GoldGained, w.Player.Gold)
	})

	t.Run("mechanics stand when dialogue fails", func(t *testing.T) {
		// The dialogue layer never errors outward; a fallback line is
		// still a line and damage is already applied before any
		// dialogue request is made.
		enemy := testEnemy(100)
		o := newTestOrchestrator(newTestWorld(enemy), &fakeDialoguer{}, nil, nil)
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)

		_, err := o.Attack(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 75, enemy.Health)
	})
}

func TestFlee(t *testing.T) {
	t.Run("clears the session and displaces the player", func(t *testing.T) {
		w := newTestWorld(testEnemy(100))
		o := newTestOrchestrator(w, &fakeDialoguer{}, nil, nil)
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))

		start := w.Player.Position
		o.Flee()
		assert.Equal(t, PhaseIdle, o.Phase())
		assert.Equal(t, start.X+o.FleeOffset.X, w.Player.Position.X)
		assert.Equal(t, start.Y+o.FleeOffset.Y, w.Player.Position.Y)
	})

	t.Run("valid mid-dialogue", func(t *testing.T) {
		o := newTestOrchestrator(newTestWorld(testEnemy(100)), &fakeDialoguer{}, nil, nil)
		o.EngageDelay = time.Second
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		require.Equal(t, PhaseEnemyTalking, o.Phase())

		o.Flee()
		assert.Equal(t, PhaseIdle, o.Phase())
	})

	t.Run("is idempotent for the session but displaces per call", func(t *testing.T) {
		w := newTestWorld(testEnemy(100))
		o := newTestOrchestrator(w, &fakeDialoguer{}, nil, nil)
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))

		start := w.Player.Position
		o.Flee()
		o.Flee()
		assert.Equal(t, PhaseIdle, o.Phase())
		assert.Equal(t, start.X+2*o.FleeOffset.X, w.Player.Position.X)
	})

	t.Run("flee then re-engage deals no damage in between", func(t *testing.T) {
		enemy := testEnemy(100)
		w := newTestWorld(enemy)
		o := newTestOrchestrator(w, &fakeDialoguer{}, nil, nil)

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)
		o.Flee()
		require.NoError(t, o.Engage(context.Background(), "goblin-1"))

		assert.Equal(t, 100, enemy.Health)
		assert.Equal(t, 100, w.Player.Health)
	})

	t.Run("counter scheduled before flight is discarded", func(t *testing.T) {
		enemy := testEnemy(100)
		w := newTestWorld(enemy)
		sink := &sinkRecorder{}
		o := newTestOrchestrator(w, &fakeDialoguer{}, nil, sink.record)
		o.CounterDelay = 30 * time.Millisecond

		require.NoError(t, o.Engage(context.Background(), "goblin-1"))
		waitForPhase(t, o, PhasePlayerTurn)
		_, err := o.Attack(context.Background())
		require.NoError(t, err)
		o.Flee()

		time.Sleep(80 * time.Millisecond)
		assert.Equal(t, 100, w.Player.Health, "counter against a fled player is dropped")
		for _, msg := range sink.messages() {
			assert.NotEqual(t, "counter", msg.Situation)
		}
	})
}
