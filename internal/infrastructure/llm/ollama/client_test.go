package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chaiyut/docintake/internal/core/domain"
)

func TestGeneratorSendsPrompt(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen")
	gen := NewGenerator(client)
	reply, err := gen.GenerateFromPrompt(context.Background(), "summarize recent uploads")
	if err != nil {
		t.Fatalf("GenerateFromPrompt() error = %v", err)
	}
	if reply != "ok" {
		t.Fatalf("reply = %q", reply)
	}
	if !strings.Contains(capturedPrompt, "summarize recent uploads") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestFieldExtractorParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["format"] != "json" {
			t.Fatalf("expected json format request, got %v", payload["format"])
		}
		body := `{"response":"{\"entity_name\":\"ACME Co\",\"tax_id\":\"0105551234567\",\"receipt_number\":\"RC-42\",\"receipt_date\":\"2025-01-15\",\"total_amount\":\"1250.00\"}"}`
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "gen"))
	got, err := extractor.ExtractFields(context.Background(), "receipt text")
	if err != nil {
		t.Fatalf("ExtractFields() error = %v", err)
	}

	want := domain.Enrichment{
		EntityName:    "ACME Co",
		TaxID:         "0105551234567",
		ReceiptNumber: "RC-42",
		ReceiptDate:   "2025-01-15",
		TotalAmount:   "1250.00",
	}
	if got != want {
		t.Fatalf("ExtractFields() = %+v, want %+v", got, want)
	}
}

func TestFieldExtractorToleratesProseAroundJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := `{"response":"Here is the result: {\"entity_name\":\"ACME\",\"total_amount\":\"9.99\"} hope it helps"}`
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "gen"))
	got, err := extractor.ExtractFields(context.Background(), "text")
	if err != nil {
		t.Fatalf("ExtractFields() error = %v", err)
	}
	if got.EntityName != "ACME" || got.TotalAmount != "9.99" {
		t.Fatalf("ExtractFields() = %+v", got)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen"))
	_, err := gen.GenerateFromPrompt(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to classify as temporary, got %v", err)
	}
}
