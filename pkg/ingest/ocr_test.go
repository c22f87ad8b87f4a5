package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractURLJoinsPages(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"pages": [{"index": 0, "markdown": "# Page one"}, {"index": 1, "markdown": "Page two body"}]}`)
	}))
	defer server.Close()

	ocr := NewMistralOCR("test-key")
	ocr.endpoint = server.URL

	text, err := ocr.ExtractURL(context.Background(), "http://uni.example/syllabus.pdf")
	if err != nil {
		t.Fatalf("ExtractURL() error = %v", err)
	}

	if text != "# Page one\n\nPage two body" {
		t.Errorf("ExtractURL() = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != "mistral-ocr-latest" {
		t.Errorf("model = %v", gotBody["model"])
	}

	document, ok := gotBody["document"].(map[string]interface{})
	if !ok {
		t.Fatalf("document field = %v", gotBody["document"])
	}
	if document["type"] != "document_url" {
		t.Errorf("document type = %v", document["type"])
	}
	// http URLs get upgraded before they are sent out.
	if document["document_url"] != "https://uni.example/syllabus.pdf" {
		t.Errorf("document_url = %v", document["document_url"])
	}
}

func TestExtractDocumentSendsDataURL(t *testing.T) {
	var gotURL string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Document struct {
				DocumentURL string `json:"document_url"`
			} `json:"document"`
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		gotURL = body.Document.DocumentURL
		io.WriteString(w, `{"pages": [{"index": 0, "markdown": "content"}]}`)
	}))
	defer server.Close()

	ocr := NewMistralOCR("test-key")
	ocr.endpoint = server.URL

	if _, err := ocr.ExtractDocument(context.Background(), []byte("%PDF-1.4")); err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}

	if !strings.HasPrefix(gotURL, "data:application/pdf;base64,") {
		t.Errorf("document_url = %q, want base64 data URL", gotURL)
	}
}

func TestExtractErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid document", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	ocr := NewMistralOCR("test-key")
	ocr.endpoint = server.URL

	_, err := ocr.ExtractURL(context.Background(), "https://uni.example/broken.pdf")
	if err == nil {
		t.Fatal("ExtractURL() error = nil, want API error")
	}
	if !strings.Contains(err.Error(), "invalid document") {
		t.Errorf("error = %v, want response body included", err)
	}
}

func TestExtractMissingKey(t *testing.T) {
	ocr := NewMistralOCR("")

	if _, err := ocr.ExtractURL(context.Background(), "https://uni.example/x.pdf"); err == nil {
		t.Error("ExtractURL() error = nil, want missing key error")
	}
}
