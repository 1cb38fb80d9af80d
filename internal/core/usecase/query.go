package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

const pageBreakSeparator = "\n\n--- Page Break ---\n\n"

type FileQueryUseCase struct {
	repo    ports.FileRepository
	storage ports.BlobStorage
}

func NewFileQueryUseCase(repo ports.FileRepository, storage ports.BlobStorage) *FileQueryUseCase {
	return &FileQueryUseCase{repo: repo, storage: storage}
}

func (uc *FileQueryUseCase) List(
	ctx context.Context,
	filter domain.ListFilter,
	opts domain.ListOptions,
) ([]domain.UploadedFile, int64, error) {
	rows, total, err := uc.repo.List(ctx, filter, opts.Normalized())
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	return rows, total, nil
}

// GetByID returns the parent row plus its ordered page records. A parent with
// no OCR text of its own borrows the aggregated page texts, so callers always
// see whatever the worker managed to extract.
func (uc *FileQueryUseCase) GetByID(ctx context.Context, id int64) (*domain.FileDetail, error) {
	file, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch file by id: %w", err)
	}

	pages, err := uc.repo.ListPages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch page records: %w", err)
	}

	detail := &domain.FileDetail{
		UploadedFile: *file,
		Pages:        pages,
		FileExists:   uc.storage.Exists(file.StoragePath),
	}

	if detail.OCRText == "" && len(pages) > 0 {
		detail.OCRText = aggregatePageText(pages)
	}
	return detail, nil
}

func (uc *FileQueryUseCase) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats, err := uc.repo.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute statistics: %w", err)
	}
	return stats, nil
}

func aggregatePageText(pages []domain.PageRecord) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if page.OCRText != "" {
			parts = append(parts, page.OCRText)
		}
	}
	return strings.Join(parts, pageBreakSeparator)
}
