package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/chaiyut/docintake/internal/core/domain"
)

// repoStub lets each test wire only the repository calls it cares about.
type repoStub struct {
	createWithPage func(ctx context.Context, file *domain.UploadedFile) error
	getByID        func(ctx context.Context, id int64) (*domain.UploadedFile, error)
	listPages      func(ctx context.Context, fileID int64) ([]domain.PageRecord, error)
	list           func(ctx context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error)
	updateStatus   func(ctx context.Context, id int64, status domain.ProcessingStatus) error
	saveEnrichment func(ctx context.Context, id int64, enrichment domain.Enrichment) error
	deleteFile     func(ctx context.Context, id int64) error
	statistics     func(ctx context.Context) (*domain.Statistics, error)
	listSuspicious func(ctx context.Context) ([]domain.UploadedFile, error)
	listRecent     func(ctx context.Context, limit int) ([]domain.UploadedFile, error)
}

var errStubNotWired = errors.New("stub not wired")

func (s *repoStub) CreateWithPage(ctx context.Context, file *domain.UploadedFile) error {
	if s.createWithPage == nil {
		return errStubNotWired
	}
	return s.createWithPage(ctx, file)
}

func (s *repoStub) GetByID(ctx context.Context, id int64) (*domain.UploadedFile, error) {
	if s.getByID == nil {
		return nil, errStubNotWired
	}
	return s.getByID(ctx, id)
}

func (s *repoStub) ListPages(ctx context.Context, fileID int64) ([]domain.PageRecord, error) {
	if s.listPages == nil {
		return nil, errStubNotWired
	}
	return s.listPages(ctx, fileID)
}

func (s *repoStub) List(ctx context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error) {
	if s.list == nil {
		return nil, 0, errStubNotWired
	}
	return s.list(ctx, filter, opts)
}

func (s *repoStub) UpdateStatus(ctx context.Context, id int64, status domain.ProcessingStatus) error {
	if s.updateStatus == nil {
		return errStubNotWired
	}
	return s.updateStatus(ctx, id, status)
}

func (s *repoStub) SaveEnrichment(ctx context.Context, id int64, enrichment domain.Enrichment) error {
	if s.saveEnrichment == nil {
		return errStubNotWired
	}
	return s.saveEnrichment(ctx, id, enrichment)
}

func (s *repoStub) Delete(ctx context.Context, id int64) error {
	if s.deleteFile == nil {
		return errStubNotWired
	}
	return s.deleteFile(ctx, id)
}

func (s *repoStub) Statistics(ctx context.Context) (*domain.Statistics, error) {
	if s.statistics == nil {
		return nil, errStubNotWired
	}
	return s.statistics(ctx)
}

func (s *repoStub) ListSuspicious(ctx context.Context) ([]domain.UploadedFile, error) {
	if s.listSuspicious == nil {
		return nil, errStubNotWired
	}
	return s.listSuspicious(ctx)
}

func (s *repoStub) ListRecent(ctx context.Context, limit int) ([]domain.UploadedFile, error) {
	if s.listRecent == nil {
		return nil, errStubNotWired
	}
	return s.listRecent(ctx, limit)
}

// storageStub is an in-memory blob store keyed by path.
type storageStub struct {
	blobs   map[string]string
	removed []string
}

func newStorageStub() *storageStub {
	return &storageStub{blobs: make(map[string]string)}
}

func (s *storageStub) Save(_ context.Context, batchID, storageName string, data io.Reader) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	path := "uploads/" + batchID + "/" + storageName
	s.blobs[path] = string(raw)
	return path, nil
}

func (s *storageStub) Open(_ context.Context, path string) (io.ReadCloser, error) {
	content, ok := s.blobs[path]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *storageStub) Remove(_ context.Context, path string) error {
	delete(s.blobs, path)
	s.removed = append(s.removed, path)
	return nil
}

func (s *storageStub) Exists(path string) bool {
	_, ok := s.blobs[path]
	return ok
}
