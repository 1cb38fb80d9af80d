package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/chaiyut/docintake/internal/core/domain"
)

func TestGetByIDAggregatesPageText(t *testing.T) {
	storage := newStorageStub()
	storage.blobs["uploads/b/x.pdf"] = "%PDF"
	repo := &repoStub{
		getByID: func(context.Context, int64) (*domain.UploadedFile, error) {
			return &domain.UploadedFile{ID: 1, StoragePath: "uploads/b/x.pdf"}, nil
		},
		listPages: func(context.Context, int64) ([]domain.PageRecord, error) {
			return []domain.PageRecord{
				{PageNumber: 1, OCRText: "page one"},
				{PageNumber: 2, OCRText: ""},
				{PageNumber: 3, OCRText: "page three"},
			}, nil
		},
	}
	uc := NewFileQueryUseCase(repo, storage)

	detail, err := uc.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !detail.FileExists {
		t.Fatalf("expected file_exists=true")
	}
	if !strings.Contains(detail.OCRText, "page one") || !strings.Contains(detail.OCRText, "page three") {
		t.Fatalf("aggregated text missing pages: %q", detail.OCRText)
	}
	if !strings.Contains(detail.OCRText, "--- Page Break ---") {
		t.Fatalf("expected page break separator in %q", detail.OCRText)
	}
	if strings.Contains(detail.OCRText, "page one\n\n\n") {
		t.Fatalf("empty pages must not add separators: %q", detail.OCRText)
	}
}

func TestGetByIDKeepsParentTextWhenPresent(t *testing.T) {
	repo := &repoStub{
		getByID: func(context.Context, int64) (*domain.UploadedFile, error) {
			return &domain.UploadedFile{ID: 1, OCRText: "parent text", StoragePath: "gone"}, nil
		},
		listPages: func(context.Context, int64) ([]domain.PageRecord, error) {
			return []domain.PageRecord{{PageNumber: 1, OCRText: "page text"}}, nil
		},
	}
	uc := NewFileQueryUseCase(repo, newStorageStub())

	detail, err := uc.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if detail.OCRText != "parent text" {
		t.Fatalf("parent text overwritten: %q", detail.OCRText)
	}
	if detail.FileExists {
		t.Fatalf("expected file_exists=false for missing blob")
	}
}

func TestGetByIDPropagatesNotFound(t *testing.T) {
	repo := &repoStub{
		getByID: func(context.Context, int64) (*domain.UploadedFile, error) {
			return nil, domain.ErrFileNotFound
		},
	}
	uc := NewFileQueryUseCase(repo, newStorageStub())

	_, err := uc.GetByID(context.Background(), 404)
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestListNormalizesPagination(t *testing.T) {
	var gotOpts domain.ListOptions
	repo := &repoStub{
		list: func(_ context.Context, _ domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error) {
			gotOpts = opts
			return []domain.UploadedFile{}, 0, nil
		},
	}
	uc := NewFileQueryUseCase(repo, newStorageStub())

	if _, _, err := uc.List(context.Background(), domain.ListFilter{}, domain.ListOptions{Page: 0, PageSize: 0}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotOpts.Page != 1 || gotOpts.PageSize != domain.DefaultPageSize {
		t.Fatalf("opts not normalized: %+v", gotOpts)
	}
	if gotOpts.Direction != domain.SortDescending {
		t.Fatalf("default direction = %v, want descending", gotOpts.Direction)
	}
}

func TestListOptionsOffset(t *testing.T) {
	opts := domain.ListOptions{Page: 3, PageSize: 10}.Normalized()
	if opts.Offset() != 20 {
		t.Fatalf("offset = %d, want 20", opts.Offset())
	}
}
