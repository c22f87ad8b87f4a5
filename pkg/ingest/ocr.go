package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ocrEndpoint = "https://api.mistral.ai/v1/ocr"
	ocrModel    = "mistral-ocr-latest"
)

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

// MistralOCR extracts the text of PDF documents through the Mistral OCR API.
type MistralOCR struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewMistralOCR creates an OCR client.
func NewMistralOCR(apiKey string) *MistralOCR {
	return &MistralOCR{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		endpoint:   ocrEndpoint,
		apiKey:     apiKey,
	}
}

// ExtractURL extracts the text of a PDF reachable at a public URL.
func (m *MistralOCR) ExtractURL(ctx context.Context, url string) (string, error) {
	url = strings.Replace(url, "http://", "https://", 1)
	return m.extract(ctx, url)
}

// ExtractDocument extracts the text of an uploaded PDF. The document is sent
// inline as a base64 data URL.
func (m *MistralOCR) ExtractDocument(ctx context.Context, data []byte) (string, error) {
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	return m.extract(ctx, dataURL)
}

func (m *MistralOCR) extract(ctx context.Context, documentURL string) (string, error) {
	if m.apiKey == "" {
		return "", fmt.Errorf("MISTRAL_API_KEY is not set")
	}

	reqBody := map[string]interface{}{
		"model": ocrModel,
		"document": map[string]string{
			"type":         "document_url",
			"document_url": documentURL,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status: %s, body: %s", resp.Status, string(body))
	}

	var ocr ocrResponse
	if err := json.Unmarshal(body, &ocr); err != nil {
		return "", fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}

	var b strings.Builder
	for i, page := range ocr.Pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(page.Markdown)
	}
	return b.String(), nil
}
