package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"emberfall/pkg/emotion"
)

// Device implements emotion.CaptureDevice against the capture sidecar
// that owns the physical camera. Open failures map onto the emotion
// package's failure sentinels so Enable can classify them.
type Device struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ emotion.CaptureDevice = (*Device)(nil)

// NewDevice creates a capture device client. Nothing is acquired
// until Open.
func NewDevice(baseURL string, logger *slog.Logger) *Device {
	return &Device{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Open asks the sidecar to acquire the camera.
func (d *Device) Open(ctx context.Context) error {
	resp, err := d.post(ctx, "/camera/open")
	if err != nil {
		return fmt.Errorf("%w: %v", emotion.ErrNoCamera, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		return emotion.ErrPermissionDenied
	case http.StatusNotFound:
		return emotion.ErrNoCamera
	default:
		return fmt.Errorf("camera open failed with status: %d", resp.StatusCode)
	}
}

type statusResponse struct {
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Playing bool `json:"playing"`
}

// Status reports the sidecar's capture surface state. A failed status
// request reads as not-ready; the pipeline will resume and retry.
func (d *Device) Status() emotion.CaptureStatus {
	resp, err := d.httpClient.Get(d.baseURL + "/camera/status")
	if err != nil {
		d.logger.Debug("Camera status request failed", "error", err)
		return emotion.CaptureStatus{}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return emotion.CaptureStatus{}
	}
	return emotion.CaptureStatus{Width: s.Width, Height: s.Height, Playing: s.Playing}
}

// Resume restarts a paused capture surface.
func (d *Device) Resume() error {
	resp, err := d.post(context.Background(), "/camera/resume")
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera resume failed with status: %d", resp.StatusCode)
	}
	return nil
}

// Grab captures the current frame as encoded bytes.
func (d *Device) Grab(ctx context.Context) (emotion.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.baseURL+"/camera/frame", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to grab frame: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frame request failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return emotion.Frame(data), nil
}

// Close releases the camera. Best effort; the sidecar also times
// sessions out on its own.
func (d *Device) Close() error {
	resp, err := d.post(context.Background(), "/camera/close")
	if err != nil {
		d.logger.Debug("Camera close request failed", "error", err)
		return nil
	}
	_ = resp.Body.Close()
	return nil
}

func (d *Device) post(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return d.httpClient.Do(req)
}
