package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

type FileContentUseCase struct {
	repo    ports.FileRepository
	storage ports.BlobStorage
}

func NewFileContentUseCase(repo ports.FileRepository, storage ports.BlobStorage) *FileContentUseCase {
	return &FileContentUseCase{repo: repo, storage: storage}
}

// Serve resolves a file row and opens its stored bytes. A row whose blob has
// gone missing from disk reads as not-found, never as a server failure.
func (uc *FileContentUseCase) Serve(ctx context.Context, id int64) (*domain.UploadedFile, io.ReadCloser, error) {
	file, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch file by id: %w", err)
	}

	if !uc.storage.Exists(file.StoragePath) {
		return nil, nil, domain.WrapError(
			domain.ErrFileNotFound,
			"locate blob",
			errors.New("stored file missing on disk"),
		)
	}

	reader, err := uc.storage.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrFileNotFound, "open blob", err)
	}
	return file, reader, nil
}

// Delete removes the metadata rows (pages cascade) and then best-effort
// deletes the blob. A blob already gone from disk never fails the delete.
func (uc *FileContentUseCase) Delete(ctx context.Context, id int64) error {
	file, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch file by id: %w", err)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}

	if err := uc.storage.Remove(ctx, file.StoragePath); err != nil {
		slog.Warn("blob_remove_after_delete", "file_id", id, "path", file.StoragePath, "error", err)
	}
	return nil
}
