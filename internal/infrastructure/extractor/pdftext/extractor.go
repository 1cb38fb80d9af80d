package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

const pageBreak = "\n\n--- Page Break ---\n\n"

// Extractor pulls plain text out of stored PDF blobs. Image files carry no
// extractable text here and come back empty.
type Extractor struct {
	storage ports.BlobStorage
}

func NewExtractor(storage ports.BlobStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, file *domain.UploadedFile) (string, error) {
	if !file.IsPDF() {
		return "", nil
	}

	reader, err := e.storage.Open(ctx, file.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open stored pdf: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored pdf: %w", err)
	}

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", file.OriginalName, err)
	}

	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d of %s: %w", i, file.OriginalName, err)
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, pageBreak), nil
}
