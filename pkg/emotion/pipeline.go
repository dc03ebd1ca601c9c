package emotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the pipeline lifecycle state.
type State string

const (
	StateDisabled State = "disabled"
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateDegraded State = "degraded" // running, but the last tick produced no sample
)

// Lifecycle defaults. The timer fires faster than classification is
// allowed to run; the work interval throttles the actual detection.
const (
	defaultTickInterval      = 200 * time.Millisecond
	defaultWorkInterval      = 800 * time.Millisecond
	defaultStabilityAttempts = 10
	defaultStabilityDelay    = 100 * time.Millisecond
)

// Pipeline owns the capture device, periodic classification, and the
// smoothed affect estimate. It is an explicit resource: construct one,
// Enable it, Disable it. No process-wide singleton.
type Pipeline struct {
	device     CaptureDevice
	classifier Classifier
	logger     *slog.Logger

	// Overridable before Enable; tests shrink these.
	TickInterval      time.Duration
	WorkInterval      time.Duration
	StabilityAttempts int
	StabilityDelay    time.Duration

	mu       sync.Mutex
	state    State
	smoothed *Sample
	subs     map[int]func(*Sample)
	nextSub  int
	lastWork time.Time
	// detecting gates result application: a classification that was
	// in flight when Disable ran is discarded, not applied.
	detecting bool
	stop      chan struct{}
}

// NewPipeline creates a pipeline around the given device and
// classifier. Nothing is acquired until Enable.
func NewPipeline(device CaptureDevice, classifier Classifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		device:            device,
		classifier:        classifier,
		logger:            logger,
		TickInterval:      defaultTickInterval,
		WorkInterval:      defaultWorkInterval,
		StabilityAttempts: defaultStabilityAttempts,
		StabilityDelay:    defaultStabilityDelay,
		state:             StateDisabled,
		subs:              make(map[int]func(*Sample)),
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the smoothed affect estimate, or nil when there is
// no usable signal.
func (p *Pipeline) Current() *Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.smoothed.clone()
}

// PromptClause returns the short affect clause for prompt injection.
func (p *Pipeline) PromptClause() string {
	return p.Current().PromptClause()
}

// Describe returns the narrative phrase for the current estimate.
func (p *Pipeline) Describe() string {
	return p.Current().Describe()
}

// Subscribe registers fn to be called synchronously after every
// smoothing update or clear. The returned function unsubscribes.
func (p *Pipeline) Subscribe(fn func(*Sample)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Enable acquires the capture device, waits for the surface to become
// stable, and starts the detection timer. Idempotent: enabling a
// pipeline that is already loading or running is a no-op. On device
// acquisition failure the pipeline reverts to Disabled and the error
// wraps one of the capture failure sentinels.
func (p *Pipeline) Enable(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateDisabled {
		p.mu.Unlock()
		return nil
	}
	p.state = StateLoading
	p.mu.Unlock()

	if err := p.device.Open(ctx); err != nil {
		p.mu.Lock()
		p.state = StateDisabled
		p.mu.Unlock()
		p.logger.Error("Failed to acquire capture device", "error", err)
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}

	// Wait for non-zero dimensions and a playing surface. Exhausting
	// the attempt budget is not an error: detection starts anyway and
	// the first ticks simply find no face.
	stable := p.waitForStability(ctx)

	p.mu.Lock()
	if p.state != StateLoading {
		// Disabled while the device was opening or stabilizing. Release
		// the device again: a concurrent Disable may have closed it
		// before the open completed.
		p.mu.Unlock()
		if err := p.device.Close(); err != nil {
			p.logger.Error("Failed to release capture device", "error", err)
		}
		return nil
	}
	p.state = StateActive
	p.detecting = true
	p.lastWork = time.Time{}
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	if !stable {
		p.logger.Warn("Capture surface not stable, starting detection anyway",
			"attempts", p.StabilityAttempts)
	}
	go p.run(stop)
	p.logger.Info("Emotion pipeline enabled")
	return nil
}

func (p *Pipeline) waitForStability(ctx context.Context) bool {
	for attempt := 0; attempt < p.StabilityAttempts; attempt++ {
		p.mu.Lock()
		loading := p.state == StateLoading
		p.mu.Unlock()
		if !loading {
			return false
		}
		if p.device.Status().Ready() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.StabilityDelay):
		}
	}
	return false
}

// Disable stops the detection timer, releases the capture device, and
// clears the smoothed estimate. Always succeeds. A classification
// still in flight is discarded when it lands.
func (p *Pipeline) Disable() {
	p.mu.Lock()
	if p.state == StateDisabled {
		p.mu.Unlock()
		return
	}
	p.detecting = false
	p.state = StateDisabled
	p.smoothed = nil
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	subs := p.snapshotSubs()
	p.mu.Unlock()

	if err := p.device.Close(); err != nil {
		p.logger.Error("Failed to release capture device", "error", err)
	}
	for _, fn := range subs {
		fn(nil)
	}
	p.logger.Info("Emotion pipeline disabled")
}

func (p *Pipeline) run(stop chan struct{}) {
	ticker := time.NewTicker(p.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick(context.Background())
		}
	}
}

// tick runs one detection pass. Work is throttled to the work
// interval even though the timer fires more often, so classification
// calls never overlap by construction.
func (p *Pipeline) tick(ctx context.Context) {
	p.mu.Lock()
	if !p.detecting {
		p.mu.Unlock()
		return
	}
	now := time.Now()
	if !p.lastWork.IsZero() && now.Sub(p.lastWork) < p.WorkInterval {
		p.mu.Unlock()
		return
	}
	p.lastWork = now
	p.mu.Unlock()

	p.apply(p.detectOnce(ctx, now))
}

// detectOnce captures and classifies one frame. A nil result means
// "no sample" for this tick.
func (p *Pipeline) detectOnce(ctx context.Context, now time.Time) *Sample {
	status := p.device.Status()
	if !status.Ready() {
		if err := p.device.Resume(); err != nil {
			p.logger.Debug("Capture surface resume failed", "error", err)
		}
		return nil
	}

	frame, err := p.device.Grab(ctx)
	if err != nil {
		p.logger.Debug("Frame grab failed", "error", err)
		return nil
	}

	detections, err := p.classifier.Detect(ctx, frame)
	if err != nil {
		p.logger.Debug("Classification failed", "error", err)
		return nil
	}
	if len(detections) == 0 {
		return nil
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.TopScore() > best.TopScore() {
			best = d
		}
	}
	return ClassifyScores(best.Scores, now)
}

// apply folds one tick result into the smoothed estimate and notifies
// subscribers. Results landing after Disable are discarded.
func (p *Pipeline) apply(sample *Sample) {
	p.mu.Lock()
	if !p.detecting {
		p.mu.Unlock()
		return
	}
	p.smoothed = Smooth(p.smoothed, sample)
	if sample == nil {
		if p.state == StateActive {
			p.state = StateDegraded
		}
	} else {
		p.state = StateActive
	}
	notify := p.smoothed.clone()
	subs := p.snapshotSubs()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(notify)
	}
}

func (p *Pipeline) snapshotSubs() []func(*Sample) {
	out := make([]func(*Sample), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

// ClassifyAcquireError maps a device acquisition error to a short
// reason string for API responses.
func ClassifyAcquireError(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNoCamera):
		return "no_camera"
	case errors.Is(err, ErrModelAssets):
		return "resource_load_failure"
	default:
		return "error"
	}
}
