package emotion

import "time"

// Smoothing and classification tuning. The tie-break and floor values
// suppress noisy flip-flopping between near-tied labels.
const (
	decayFactor     = 0.8  // per no-sample tick
	clearFloor      = 0.2  // decayed confidence below this clears the signal
	adoptScale      = 0.8  // first-sample confidence reduction
	strongThreshold = 0.6  // above this, blend fast
	fastRetain      = 0.3  // retained weight for strong samples
	slowRetain      = 0.6  // retained weight otherwise
	neutralFloor    = 0.35 // blended top below this forces neutral
	confidenceFloor = 0.3  // raw samples below this are discarded
	tieBreakGap     = 0.1  // top-two gap for the tie-break-to-neutral rule
)

// ClassifyScores turns one raw score distribution into a usable
// sample, applying the tie-break-to-neutral rule and the absolute
// confidence floor. Returns nil when the sample must be treated as
// "no sample".
func ClassifyScores(scores map[Label]float64, ts time.Time) *Sample {
	if len(scores) == 0 {
		return nil
	}

	top, second := rankTop2(scores)
	label := top
	confidence := scores[top]

	// Near-tied weak scores report neutral instead of the nominal top.
	if confidence-scores[second] < tieBreakGap && confidence < strongThreshold {
		label = LabelNeutral
		confidence = scores[LabelNeutral]
	}

	if confidence < confidenceFloor {
		return nil
	}

	out := &Sample{
		Label:      label,
		Confidence: confidence,
		Scores:     make(map[Label]float64, len(scores)),
		Timestamp:  ts,
	}
	for l, v := range scores {
		out.Scores[l] = v
	}
	return out
}

// Smooth is the pure smoothing law: (previous, newSample) -> next.
// A nil next models a "no sample" tick. The result is nil once the
// decayed signal drops below the clear floor.
func Smooth(prev, next *Sample) *Sample {
	if next == nil {
		return decay(prev)
	}
	if prev == nil {
		return adopt(next)
	}
	return blend(prev, next)
}

func decay(prev *Sample) *Sample {
	if prev == nil {
		return nil
	}
	out := prev.clone()
	out.Confidence *= decayFactor
	for l := range out.Scores {
		out.Scores[l] *= decayFactor
	}
	if out.Confidence < clearFloor {
		return nil
	}
	return out
}

// adopt takes a first sample at reduced confidence to avoid one-shot
// overconfidence.
func adopt(next *Sample) *Sample {
	out := next.clone()
	out.Confidence *= adoptScale
	for l := range out.Scores {
		out.Scores[l] *= adoptScale
	}
	return out
}

func blend(prev, next *Sample) *Sample {
	retain := slowRetain
	if next.Confidence > strongThreshold {
		retain = fastRetain
	}

	out := &Sample{
		Scores:    make(map[Label]float64, len(Labels)),
		Timestamp: next.Timestamp,
	}
	for _, l := range Labels {
		out.Scores[l] = retain*prev.Scores[l] + (1-retain)*next.Scores[l]
	}

	top, _ := rankTop2(out.Scores)
	out.Label = top
	out.Confidence = out.Scores[top]
	if out.Confidence < neutralFloor {
		out.Label = LabelNeutral
	}
	return out
}

// rankTop2 returns the labels with the highest and second-highest
// scores. Iteration over the fixed label list keeps ties stable.
func rankTop2(scores map[Label]float64) (top, second Label) {
	top, second = LabelNeutral, LabelNeutral
	best, next := -1.0, -1.0
	for _, l := range Labels {
		v := scores[l]
		switch {
		case v > best:
			second, next = top, best
			top, best = l, v
		case v > next:
			second, next = l, v
		}
	}
	return top, second
}
