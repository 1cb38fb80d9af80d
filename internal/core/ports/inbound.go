package ports

import (
	"context"
	"io"

	"github.com/chaiyut/docintake/internal/core/domain"
)

// BatchIngestor is the inbound contract for multi-file upload orchestration.
type BatchIngestor interface {
	Ingest(ctx context.Context, batch domain.IncomingBatch) (domain.BatchResult, error)
}

// FileQueryService is the inbound read model over stored file metadata.
type FileQueryService interface {
	List(ctx context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.FileDetail, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

// FileContentService streams stored bytes and removes files.
type FileContentService interface {
	Serve(ctx context.Context, id int64) (*domain.UploadedFile, io.ReadCloser, error)
	Delete(ctx context.Context, id int64) error
}

// FileEnricher is the inbound contract for asynchronous enrichment.
type FileEnricher interface {
	EnrichByID(ctx context.Context, fileID int64) error
}

// Assistant answers operator questions about the stored corpus.
type Assistant interface {
	Chat(ctx context.Context, message string) (*domain.AssistantReply, error)
	SuspiciousFiles(ctx context.Context) ([]domain.UploadedFile, error)
}
