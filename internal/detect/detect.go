package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/samber/lo"
)

// Detector is the boundary to the object-detection service.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]models.Detection, error)
}

// Client posts JPEG frames to the detection service's /predict endpoint.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		url:  baseURL,
		http: http.DefaultClient,
	}
}

// Detect sends one encoded frame and returns the detections from the response.
func (c *Client) Detect(ctx context.Context, frame []byte) ([]models.Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/predict", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status: %s, error: %s", resp.Status, body)
	}

	var detections []models.Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	return detections, nil
}

// FilterPersons keeps person detections above the confidence floor.
func FilterPersons(detections []models.Detection, minConfidence float64) []models.Detection {
	return lo.Filter(detections, func(d models.Detection, _ int) bool {
		return d.Class == "person" && d.Score > minConfidence && len(d.Box) == 4
	})
}
