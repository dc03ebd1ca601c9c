// Package emotion implements the webcam affect pipeline: periodic
// face classification, temporal smoothing, and a stable "current
// emotion" signal consumed by combat and dialogue.
package emotion

import (
	"fmt"
	"time"
)

// Label is one of the closed set of affect labels.
type Label string

const (
	LabelHappy     Label = "happy"
	LabelSad       Label = "sad"
	LabelAngry     Label = "angry"
	LabelFearful   Label = "fearful"
	LabelDisgusted Label = "disgusted"
	LabelSurprised Label = "surprised"
	LabelNeutral   Label = "neutral"
)

// Labels lists every valid affect label.
var Labels = []Label{
	LabelHappy, LabelSad, LabelAngry, LabelFearful,
	LabelDisgusted, LabelSurprised, LabelNeutral,
}

// Sample is one classified affect estimate. Scores need not sum to 1
// after smoothing.
type Sample struct {
	Label      Label             `json:"label"`
	Confidence float64           `json:"confidence"`
	Scores     map[Label]float64 `json:"scores,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// descriptions are the longer narrative phrases per label.
var descriptions = map[Label]string{
	LabelHappy:     "cheerful and upbeat",
	LabelSad:       "melancholy and downcast",
	LabelAngry:     "frustrated and irritable",
	LabelFearful:   "anxious and on edge",
	LabelDisgusted: "repulsed and uneasy",
	LabelSurprised: "startled and wide-eyed",
	LabelNeutral:   "calm and composed",
}

// Describe returns a narrative phrase for the sample's label,
// defaulting to "uncertain" for labels outside the closed set.
// A nil sample describes as "unknown".
func (s *Sample) Describe() string {
	if s == nil {
		return "unknown"
	}
	if d, ok := descriptions[s.Label]; ok {
		return d
	}
	return "uncertain"
}

// PromptClause returns a short context clause for prompt injection,
// or the empty string when the signal is too weak to mention.
func (s *Sample) PromptClause() string {
	if s == nil || s.Confidence < 0.4 {
		return ""
	}
	qualifier := "slightly"
	switch {
	case s.Confidence > 0.7:
		qualifier = "clearly"
	case s.Confidence > 0.5:
		qualifier = "somewhat"
	}
	return fmt.Sprintf("The player appears %s %s", qualifier, s.Label)
}

// clone returns a deep copy so subscribers and readers never share the
// pipeline's mutable distribution.
func (s *Sample) clone() *Sample {
	if s == nil {
		return nil
	}
	c := *s
	c.Scores = make(map[Label]float64, len(s.Scores))
	for l, v := range s.Scores {
		c.Scores[l] = v
	}
	return &c
}
