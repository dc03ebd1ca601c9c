// Package vision is the face-classification client used by the
// emotion pipeline. Model assets live on disk; inference runs on a
// locally hosted endpoint.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"emberfall/pkg/emotion"
)

// manifest lists the model files the classifier depends on. A missing
// manifest or model file is a resource-load failure, distinct from
// camera permission or device errors.
type manifest struct {
	Models []struct {
		Name string `json:"name"`
		File string `json:"file"`
	} `json:"models"`
}

// Client implements emotion.Classifier against a local detection
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ emotion.Classifier = (*Client)(nil)

// NewClient verifies the model assets under assetDir and returns a
// classifier client. Errors wrap emotion.ErrModelAssets so callers
// can classify the failure.
func NewClient(baseURL string, assetDir string, logger *slog.Logger) (*Client, error) {
	if err := verifyAssets(assetDir); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}, nil
}

func verifyAssets(assetDir string) error {
	data, err := os.ReadFile(filepath.Join(assetDir, "manifest.json"))
	if err != nil {
		return fmt.Errorf("%w: reading manifest: %v", emotion.ErrModelAssets, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: parsing manifest: %v", emotion.ErrModelAssets, err)
	}

	for _, model := range m.Models {
		if _, err := os.Stat(filepath.Join(assetDir, model.File)); err != nil {
			return fmt.Errorf("%w: model %s: %v", emotion.ErrModelAssets, model.Name, err)
		}
	}
	return nil
}

type detectRequest struct {
	Image string `json:"image"` // base64-encoded frame
}

type detectResponse struct {
	Faces []struct {
		Scores map[emotion.Label]float64 `json:"scores"`
	} `json:"faces"`
}

// Detect classifies all faces in the frame.
func (c *Client) Detect(ctx context.Context, frame emotion.Frame) ([]emotion.Detection, error) {
	reqBody, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/detect", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection request failed with status: %d", resp.StatusCode)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]emotion.Detection, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		out = append(out, emotion.Detection{Scores: f.Scores})
	}
	return out, nil
}
