package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

// batchTimestampLayout names the per-batch storage directory. Colons are
// avoided so the directory name is valid on every host filesystem.
const batchTimestampLayout = "2006-01-02T15-04-05"

type IngestBatchUseCase struct {
	repo    ports.FileRepository
	storage ports.BlobStorage
	queue   ports.MessageQueue
	now     func() time.Time
}

func NewIngestBatchUseCase(
	repo ports.FileRepository,
	storage ports.BlobStorage,
	queue ports.MessageQueue,
) *IngestBatchUseCase {
	return &IngestBatchUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		now:     time.Now,
	}
}

// Ingest runs the per-file fold over one upload batch. Batch-level validation
// rejects the whole request before any disk write; everything after that is a
// per-file failure that leaves the rest of the batch untouched.
func (uc *IngestBatchUseCase) Ingest(ctx context.Context, batch domain.IncomingBatch) (domain.BatchResult, error) {
	if len(batch.Files) == 0 {
		return domain.BatchResult{}, domain.ErrEmptyBatch
	}
	if len(batch.Files) > domain.MaxFilesPerBatch {
		return domain.BatchResult{}, domain.WrapError(
			domain.ErrTooManyFiles,
			"validate batch",
			fmt.Errorf("%d files exceeds limit of %d", len(batch.Files), domain.MaxFilesPerBatch),
		)
	}

	owner := batch.Owner
	if owner == "" {
		owner = domain.DefaultOwner
	}

	result := domain.BatchResult{
		BatchID: uc.now().UTC().Format(batchTimestampLayout),
	}

	// Files are handled strictly in order: concurrent writes into a shared
	// batch directory buy nothing at this scale and race on creation.
	for i := range batch.Files {
		incoming := &batch.Files[i]
		accepted, err := uc.ingestOne(ctx, incoming, batch, owner, result.BatchID)
		if err != nil {
			slog.Warn("file_rejected",
				"filename", incoming.OriginalName,
				"batch_id", result.BatchID,
				"error", err,
			)
			result.Rejected = append(result.Rejected, domain.RejectedFile{
				OriginalName: incoming.OriginalName,
				Reason:       rejectionReason(err),
				Err:          err,
			})
			continue
		}
		result.Accepted = append(result.Accepted, *accepted)
	}

	return result, nil
}

func (uc *IngestBatchUseCase) ingestOne(
	ctx context.Context,
	incoming *domain.IncomingFile,
	batch domain.IncomingBatch,
	owner, batchID string,
) (*domain.AcceptedFile, error) {
	if err := validateIncoming(incoming); err != nil {
		return nil, err
	}

	storageName := domain.NewStorageName(incoming.OriginalName)
	path, err := uc.storage.Save(ctx, batchID, storageName, incoming.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "store file", err)
	}

	entity := incoming.EntityOverride
	reference := incoming.ReferenceOverride
	if entity == "" && reference == "" {
		parsed := domain.ParseFilename(incoming.OriginalName)
		entity = parsed.EntityName
		reference = parsed.ReferenceCode
	}

	file := &domain.UploadedFile{
		OriginalName:     incoming.OriginalName,
		StoragePath:      path,
		Owner:            owner,
		MimeType:         incoming.DeclaredMimeType,
		SizeBytes:        incoming.SizeBytes,
		EntityName:       entity,
		ReferenceCode:    reference,
		WorkNote:         batch.WorkNote,
		ProcessingStatus: domain.StatusPending,
		SimilarityFlag:   domain.SimilarityNo,
		UploadedAt:       uc.now().UTC(),
		ClientOrigin:     batch.ClientOrigin,
		BatchID:          batchID,
	}

	if err := uc.repo.CreateWithPage(ctx, file); err != nil {
		if rmErr := uc.storage.Remove(ctx, path); rmErr != nil {
			slog.Warn("cleanup_after_insert_failure", "path", path, "error", rmErr)
		}
		return nil, domain.WrapError(domain.ErrPersistence, "record metadata", err)
	}

	// The upload is already durable; a lost event only delays enrichment.
	if err := uc.queue.PublishFileIngested(ctx, file.ID); err != nil {
		slog.Warn("publish_file_ingested", "file_id", file.ID, "error", err)
	}

	return &domain.AcceptedFile{
		ID:           file.ID,
		OriginalName: incoming.OriginalName,
		SizeBytes:    incoming.SizeBytes,
	}, nil
}

func validateIncoming(incoming *domain.IncomingFile) error {
	if !domain.AllowedMimeTypes[incoming.DeclaredMimeType] {
		return domain.WrapError(
			domain.ErrInvalidType,
			"validate file",
			fmt.Errorf("got %q", incoming.DeclaredMimeType),
		)
	}
	if incoming.SizeBytes > domain.MaxFileSizeBytes {
		return domain.WrapError(
			domain.ErrFileTooLarge,
			"validate file",
			fmt.Errorf("%d bytes exceeds limit of %d", incoming.SizeBytes, domain.MaxFileSizeBytes),
		)
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidType):
		return "Invalid file type. Only PDF, JPG, PNG files are allowed."
	case domain.IsKind(err, domain.ErrFileTooLarge):
		return "File too large. Maximum size is 50MB per file."
	case domain.IsKind(err, domain.ErrStorage):
		return "Failed to store file on disk."
	case domain.IsKind(err, domain.ErrPersistence):
		return "Failed to record file metadata."
	default:
		return "File could not be processed."
	}
}
