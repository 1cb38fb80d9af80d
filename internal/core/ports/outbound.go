package ports

import (
	"context"
	"io"

	"github.com/chaiyut/docintake/internal/core/domain"
)

// FileRepository persists and reads uploaded file metadata.
type FileRepository interface {
	// CreateWithPage inserts the parent row and, for PDFs, the eager
	// page_number=1 child row in a single transaction.
	CreateWithPage(ctx context.Context, file *domain.UploadedFile) error
	GetByID(ctx context.Context, id int64) (*domain.UploadedFile, error)
	ListPages(ctx context.Context, fileID int64) ([]domain.PageRecord, error)
	List(ctx context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProcessingStatus) error
	SaveEnrichment(ctx context.Context, id int64, enrichment domain.Enrichment) error
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (*domain.Statistics, error)
	ListSuspicious(ctx context.Context) ([]domain.UploadedFile, error)
	ListRecent(ctx context.Context, limit int) ([]domain.UploadedFile, error)
}

// BlobStorage stores uploaded bytes under batch directories plus a backup copy.
type BlobStorage interface {
	// Save writes primary and backup copies; on failure neither survives.
	Save(ctx context.Context, batchID, storageName string, data io.Reader) (path string, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Remove deletes primary and backup copies; missing files are not errors.
	Remove(ctx context.Context, path string) error
	Exists(path string) bool
}

// MessageQueue publishes/consumes file-ingested events.
type MessageQueue interface {
	PublishFileIngested(ctx context.Context, fileID int64) error
	SubscribeFileIngested(ctx context.Context, handler func(context.Context, int64) error) error
}

// TextExtractor pulls plain text out of a stored blob.
type TextExtractor interface {
	Extract(ctx context.Context, file *domain.UploadedFile) (string, error)
}

// FieldExtractor turns extracted text into structured receipt fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (domain.Enrichment, error)
}

// TextGenerator is the opaque text-completion endpoint used by the assistant.
type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}
