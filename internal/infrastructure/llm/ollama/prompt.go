package ollama

func buildFieldExtractionPrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a receipt and invoice field extractor.
Return strict JSON object with keys:
entity_name (string, company or vendor name), tax_id (string), receipt_number (string), receipt_date (string, as written on the document), total_amount (string, numeric total).
Use empty string for any field not present. No markdown, no extra keys.

Document text:
` + snippet
}
