package pdftext

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chaiyut/docintake/internal/core/domain"
)

type storageStub struct {
	opened  []string
	content string
	openErr error
}

func (s *storageStub) Save(_ context.Context, _, _ string, _ io.Reader) (string, error) {
	return "", errors.New("not wired")
}

func (s *storageStub) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.opened = append(s.opened, path)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(strings.NewReader(s.content)), nil
}

func (s *storageStub) Remove(_ context.Context, _ string) error { return nil }
func (s *storageStub) Exists(_ string) bool                     { return true }

func TestExtractSkipsNonPDF(t *testing.T) {
	storage := &storageStub{}
	extractor := NewExtractor(storage)

	text, err := extractor.Extract(context.Background(), &domain.UploadedFile{
		OriginalName: "scan.png",
		MimeType:     "image/png",
		StoragePath:  "uploads/b/x.png",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text for image, got %q", text)
	}
	if len(storage.opened) != 0 {
		t.Fatalf("storage opened for non-PDF: %v", storage.opened)
	}
}

func TestExtractPropagatesOpenFailure(t *testing.T) {
	storage := &storageStub{openErr: errors.New("blob missing")}
	extractor := NewExtractor(storage)

	_, err := extractor.Extract(context.Background(), &domain.UploadedFile{
		OriginalName: "doc.pdf",
		MimeType:     "application/pdf",
		StoragePath:  "uploads/b/x.pdf",
	})
	if err == nil {
		t.Fatalf("expected error when blob cannot be opened")
	}
	if !strings.Contains(err.Error(), "open stored pdf") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractRejectsCorruptPDF(t *testing.T) {
	storage := &storageStub{content: "this is not a pdf"}
	extractor := NewExtractor(storage)

	_, err := extractor.Extract(context.Background(), &domain.UploadedFile{
		OriginalName: "broken.pdf",
		MimeType:     "application/pdf",
		StoragePath:  "uploads/b/broken.pdf",
	})
	if err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
