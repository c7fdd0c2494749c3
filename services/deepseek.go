package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// GroundingOCRClient talks to a DeepSeek-OCR HTTP service that returns
// raw text with grounding markup (text plus bounding boxes).
type GroundingOCRClient struct {
	baseURL    string
	promptType string
	httpClient *http.Client
}

type groundingRequest struct {
	Image      string `json:"image"`
	PromptType string `json:"prompt_type"`
}

var (
	groundingClient *GroundingOCRClient
	groundingOnce   sync.Once
)

// DefaultGroundingClient returns a singleton client for the grounding
// OCR service. Configured via DEEPSEEK_OCR_URL and DEEPSEEK_OCR_PROMPT.
func DefaultGroundingClient() *GroundingOCRClient {
	groundingOnce.Do(func() {
		baseURL := os.Getenv("DEEPSEEK_OCR_URL")
		if baseURL == "" {
			baseURL = "http://localhost:8000"
		}

		promptType := os.Getenv("DEEPSEEK_OCR_PROMPT")
		if promptType == "" {
			promptType = "ocr_simple"
		}

		groundingClient = &GroundingOCRClient{
			baseURL:    baseURL,
			promptType: promptType,
			httpClient: &http.Client{Timeout: 120 * time.Second},
		}
	})
	return groundingClient
}

// OCR sends the image to the service and returns the raw grounding text.
// The response is treated as opaque; parsing happens downstream.
func (c *GroundingOCRClient) OCR(ctx context.Context, image []byte) (string, error) {
	payload, err := json.Marshal(groundingRequest{
		Image:      base64.StdEncoding.EncodeToString(image),
		PromptType: c.promptType,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal OCR request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to build OCR request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "OCR service request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read OCR response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("OCR service returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	text := gjson.GetBytes(body, "text")
	if !text.Exists() {
		return "", errors.New("OCR response missing text field")
	}
	return text.String(), nil
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
