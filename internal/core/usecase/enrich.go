package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

// EnrichFileUseCase is the worker-side pipeline: extract text from the stored
// blob, pull structured receipt fields out of it, write both back.
type EnrichFileUseCase struct {
	repo      ports.FileRepository
	extractor ports.TextExtractor
	fields    ports.FieldExtractor
}

func NewEnrichFileUseCase(
	repo ports.FileRepository,
	extractor ports.TextExtractor,
	fields ports.FieldExtractor,
) *EnrichFileUseCase {
	return &EnrichFileUseCase{
		repo:      repo,
		extractor: extractor,
		fields:    fields,
	}
}

func (uc *EnrichFileUseCase) EnrichByID(ctx context.Context, fileID int64) error {
	file, err := uc.repo.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("fetch file by id: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusInProgress); err != nil {
		return fmt.Errorf("set status=in_progress: %w", err)
	}

	if !file.IsPDF() {
		// Image OCR sits behind an external pipeline that is not wired in;
		// images complete immediately with no extracted text.
		if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusComplete); err != nil {
			return fmt.Errorf("set status=complete: %w", err)
		}
		return nil
	}

	enrichment, err := uc.extract(ctx, file)
	if err != nil {
		uc.markFailed(ctx, fileID, err)
		return err
	}

	if err := uc.repo.SaveEnrichment(ctx, fileID, enrichment); err != nil {
		err = fmt.Errorf("save enrichment: %w", err)
		uc.markFailed(ctx, fileID, err)
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusComplete); err != nil {
		return fmt.Errorf("set status=complete: %w", err)
	}
	return nil
}

func (uc *EnrichFileUseCase) extract(ctx context.Context, file *domain.UploadedFile) (domain.Enrichment, error) {
	text, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.Enrichment{}, nil
	}

	enrichment, err := uc.fields.ExtractFields(ctx, text)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("extract fields: %w", err)
	}
	enrichment.OCRText = text
	return enrichment, nil
}

func (uc *EnrichFileUseCase) markFailed(ctx context.Context, fileID int64, cause error) {
	slog.Error("enrichment_failed", "file_id", fileID, "error", cause)
	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusFailed); err != nil {
		slog.Error("set status=failed", "file_id", fileID, "error", err)
	}
}
