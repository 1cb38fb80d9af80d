package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chaiyut/docintake/internal/core/domain"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
}

func New(baseURL, genModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// FieldExtractor pulls structured receipt fields out of extracted text.
type FieldExtractor struct {
	client *Client
}

func NewFieldExtractor(client *Client) *FieldExtractor {
	return &FieldExtractor{client: client}
}

func (f *FieldExtractor) ExtractFields(ctx context.Context, text string) (domain.Enrichment, error) {
	respText, err := f.client.generateJSON(ctx, buildFieldExtractionPrompt(text))
	if err != nil {
		return domain.Enrichment{}, err
	}

	var result struct {
		EntityName    string `json:"entity_name"`
		TaxID         string `json:"tax_id"`
		ReceiptNumber string `json:"receipt_number"`
		ReceiptDate   string `json:"receipt_date"`
		TotalAmount   string `json:"total_amount"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.Enrichment{}, fmt.Errorf("parse field extraction json: %w", err)
	}
	return domain.Enrichment{
		EntityName:    strings.TrimSpace(result.EntityName),
		TaxID:         strings.TrimSpace(result.TaxID),
		ReceiptNumber: strings.TrimSpace(result.ReceiptNumber),
		ReceiptDate:   strings.TrimSpace(result.ReceiptDate),
		TotalAmount:   strings.TrimSpace(result.TotalAmount),
	}, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return g.client.generateText(ctx, prompt)
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", wrapTemporaryIfNeeded("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
