package emotion

import (
	"testing"
	"time"
)

func scoresWith(base float64, overrides map[Label]float64) map[Label]float64 {
	s := make(map[Label]float64, len(Labels))
	for _, l := range Labels {
		s[l] = base
	}
	for l, v := range overrides {
		s[l] = v
	}
	return s
}

func TestClassifyScores(t *testing.T) {
	now := time.Now()

	t.Run("picks the top label", func(t *testing.T) {
		s := ClassifyScores(scoresWith(0.05, map[Label]float64{LabelHappy: 0.8}), now)
		if s == nil {
			t.Fatal("expected a sample")
		}
		if s.Label != LabelHappy {
			t.Errorf("expected happy, got %s", s.Label)
		}
		if s.Confidence != 0.8 {
			t.Errorf("expected confidence 0.8, got %f", s.Confidence)
		}
	})

	t.Run("tie-break reports neutral for weak near-ties", func(t *testing.T) {
		s := ClassifyScores(scoresWith(0.02, map[Label]float64{
			LabelAngry:   0.45,
			LabelSad:     0.40,
			LabelNeutral: 0.35,
		}), now)
		if s == nil {
			t.Fatal("expected a sample")
		}
		if s.Label != LabelNeutral {
			t.Errorf("expected neutral tie-break, got %s", s.Label)
		}
		if s.Confidence != 0.35 {
			t.Errorf("expected neutral score as confidence, got %f", s.Confidence)
		}
	})

	t.Run("no tie-break for strong top scores", func(t *testing.T) {
		s := ClassifyScores(scoresWith(0.02, map[Label]float64{
			LabelAngry: 0.65,
			LabelSad:   0.60,
		}), now)
		if s == nil {
			t.Fatal("expected a sample")
		}
		if s.Label != LabelAngry {
			t.Errorf("expected angry, got %s", s.Label)
		}
	})

	t.Run("discards below the absolute floor", func(t *testing.T) {
		s := ClassifyScores(scoresWith(0.01, map[Label]float64{LabelHappy: 0.25}), now)
		if s != nil {
			t.Errorf("expected nil for sub-floor confidence, got %+v", s)
		}
	})

	t.Run("empty scores are no sample", func(t *testing.T) {
		if s := ClassifyScores(nil, now); s != nil {
			t.Errorf("expected nil, got %+v", s)
		}
	})
}

func TestSmoothDecay(t *testing.T) {
	t.Run("decays and clears within five ticks from 0.5", func(t *testing.T) {
		s := &Sample{
			Label:      LabelHappy,
			Confidence: 0.5,
			Scores:     scoresWith(0.05, map[Label]float64{LabelHappy: 0.5}),
			Timestamp:  time.Now(),
		}

		ticks := 0
		for s != nil && ticks < 10 {
			s = Smooth(s, nil)
			ticks++
		}
		// ceil(log(0.2/0.5)/log(0.8)) ticks to fall below the clear floor
		if ticks != 5 {
			t.Errorf("expected clear after 5 no-sample ticks, took %d", ticks)
		}
	})

	t.Run("nil previous stays nil", func(t *testing.T) {
		if s := Smooth(nil, nil); s != nil {
			t.Errorf("expected nil, got %+v", s)
		}
	})
}

func TestSmoothAdopt(t *testing.T) {
	next := &Sample{
		Label:      LabelSad,
		Confidence: 0.9,
		Scores:     scoresWith(0.02, map[Label]float64{LabelSad: 0.9}),
		Timestamp:  time.Now(),
	}

	s := Smooth(nil, next)
	if s == nil {
		t.Fatal("expected adopted sample")
	}
	if s.Label != LabelSad {
		t.Errorf("expected sad, got %s", s.Label)
	}
	// First samples are adopted at reduced confidence.
	if s.Confidence < 0.719 || s.Confidence > 0.721 {
		t.Errorf("expected confidence ~0.72, got %f", s.Confidence)
	}
}

func TestSmoothBlend(t *testing.T) {
	prev := &Sample{
		Label:      LabelNeutral,
		Confidence: 0.5,
		Scores:     scoresWith(0.1, map[Label]float64{LabelNeutral: 0.5}),
	}

	t.Run("strong samples blend fast", func(t *testing.T) {
		next := &Sample{
			Label:      LabelAngry,
			Confidence: 0.9,
			Scores:     scoresWith(0.0, map[Label]float64{LabelAngry: 0.9}),
			Timestamp:  time.Now(),
		}

		s := Smooth(prev, next)
		if s.Label != LabelAngry {
			t.Errorf("expected angry after fast blend, got %s", s.Label)
		}
		// 0.3*0.1 + 0.7*0.9 = 0.66
		if s.Confidence < 0.659 || s.Confidence > 0.661 {
			t.Errorf("expected confidence ~0.66, got %f", s.Confidence)
		}
	})

	t.Run("weak samples blend slow and keep the prior label", func(t *testing.T) {
		next := &Sample{
			Label:      LabelAngry,
			Confidence: 0.45,
			Scores:     scoresWith(0.0, map[Label]float64{LabelAngry: 0.45}),
			Timestamp:  time.Now(),
		}

		s := Smooth(prev, next)
		// 0.6*0.5 + 0.4*0 = 0.30 neutral vs 0.6*0.1 + 0.4*0.45 = 0.24 angry
		if s.Label != LabelNeutral {
			t.Errorf("expected neutral to persist through slow blend, got %s", s.Label)
		}
	})

	t.Run("weak blended top forces neutral", func(t *testing.T) {
		weakPrev := &Sample{
			Label:      LabelSad,
			Confidence: 0.34,
			Scores:     scoresWith(0.05, map[Label]float64{LabelSad: 0.34}),
		}
		next := &Sample{
			Label:      LabelSad,
			Confidence: 0.32,
			Scores:     scoresWith(0.05, map[Label]float64{LabelSad: 0.32}),
			Timestamp:  time.Now(),
		}

		s := Smooth(weakPrev, next)
		if s.Label != LabelNeutral {
			t.Errorf("expected forced neutral below 0.35, got %s", s.Label)
		}
	})
}

func TestPromptClause(t *testing.T) {
	tests := []struct {
		name       string
		sample     *Sample
		wantClause string
	}{
		{"nil sample", nil, ""},
		{"weak signal", &Sample{Label: LabelHappy, Confidence: 0.39}, ""},
		{"slight", &Sample{Label: LabelHappy, Confidence: 0.45}, "The player appears slightly happy"},
		{"somewhat", &Sample{Label: LabelSad, Confidence: 0.6}, "The player appears somewhat sad"},
		{"clearly", &Sample{Label: LabelAngry, Confidence: 0.8}, "The player appears clearly angry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.PromptClause(); got != tt.wantClause {
				t.Errorf("expected %q, got %q", tt.wantClause, got)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	if got := (*Sample)(nil).Describe(); got != "unknown" {
		t.Errorf("expected 'unknown' for nil sample, got %q", got)
	}
	s := &Sample{Label: LabelFearful}
	if got := s.Describe(); got != "anxious and on edge" {
		t.Errorf("unexpected description %q", got)
	}
	s.Label = Label("bogus")
	if got := s.Describe(); got != "uncertain" {
		t.Errorf("expected 'uncertain' for unknown label, got %q", got)
	}
}
