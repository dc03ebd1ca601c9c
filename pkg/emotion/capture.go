package emotion

import (
	"context"
	"errors"
)

// Capture acquisition failure kinds, surfaced when Enable fails.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoCamera         = errors.New("no camera found")
	ErrModelAssets      = errors.New("classification model assets unavailable")
)

// CaptureStatus describes the capture surface. Frames are usable once
// dimensions are non-zero and the surface reports playing.
type CaptureStatus struct {
	Width   int
	Height  int
	Playing bool
}

// Ready reports whether the surface can deliver frames.
func (s CaptureStatus) Ready() bool {
	return s.Playing && s.Width > 0 && s.Height > 0
}

// Frame is one captured video frame, encoded for the classifier.
type Frame []byte

// CaptureDevice is the owned camera resource. Implementations wrap
// the platform media-capture flow; Open errors should wrap one of the
// failure sentinels above so callers can classify them. At most one
// capture session is active at a time.
type CaptureDevice interface {
	// Open acquires the device. Idempotent opens are not required;
	// the pipeline opens at most once per Enable.
	Open(ctx context.Context) error

	// Status reports the current surface state.
	Status() CaptureStatus

	// Resume attempts to restart a paused or stalled surface.
	Resume() error

	// Grab captures the current frame.
	Grab(ctx context.Context) (Frame, error)

	// Close releases the device and its tracks. Always succeeds.
	Close() error
}

// Detection is one detected face with its per-label score
// distribution.
type Detection struct {
	Scores map[Label]float64 `json:"scores"`
}

// TopScore returns the detection's highest label score.
func (d Detection) TopScore() float64 {
	best := 0.0
	for _, v := range d.Scores {
		if v > best {
			best = v
		}
	}
	return best
}

// Classifier runs face/affect classification on a frame. Loading its
// model assets happens before the pipeline starts; a missing asset
// should surface as ErrModelAssets from the constructor, not from
// Detect.
type Classifier interface {
	Detect(ctx context.Context, frame Frame) ([]Detection, error)
}
