package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/detection"
)

const defaultDetectorURL = "http://localhost:5000"

// Client talks to an external face detection service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detector client. A zero timeout leaves requests bounded
// only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(req *http.Request) (detection.Observation, error) {
	var obs detection.Observation

	resp, err := c.client.Do(req)
	if err != nil {
		return obs, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// No face in view.
	if resp.StatusCode == http.StatusNoContent {
		return obs, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return obs, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return obs, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &obs); err != nil {
		return obs, fmt.Errorf("failed to parse observation: %w", err)
	}
	return obs, nil
}

// Observe fetches the detections of the current camera frame.
func (c *Client) Observe(ctx context.Context) (detection.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/observe", nil)
	if err != nil {
		return detection.Observation{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// Detect runs detection on a still image, used to enroll from an uploaded frame.
func (c *Client) Detect(ctx context.Context, imageData []byte) (detection.Observation, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return detection.Observation{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return detection.Observation{}, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return detection.Observation{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &buf)
	if err != nil {
		return detection.Observation{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
