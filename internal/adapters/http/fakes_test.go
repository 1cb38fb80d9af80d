package httpadapter

import (
	"context"
	"errors"
	"io"

	"github.com/chaiyut/docintake/internal/core/domain"
)

var errNotWired = errors.New("fake not wired")

type ingestorFake struct {
	gotBatch domain.IncomingBatch
	result   domain.BatchResult
	err      error
}

func (f *ingestorFake) Ingest(_ context.Context, batch domain.IncomingBatch) (domain.BatchResult, error) {
	f.gotBatch = batch
	if f.err != nil {
		return domain.BatchResult{}, f.err
	}
	return f.result, nil
}

type queryFake struct {
	list       func(domain.ListFilter, domain.ListOptions) ([]domain.UploadedFile, int64, error)
	getByID    func(int64) (*domain.FileDetail, error)
	statistics func() (*domain.Statistics, error)
}

func (f *queryFake) List(_ context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error) {
	if f.list == nil {
		return nil, 0, errNotWired
	}
	return f.list(filter, opts)
}

func (f *queryFake) GetByID(_ context.Context, id int64) (*domain.FileDetail, error) {
	if f.getByID == nil {
		return nil, errNotWired
	}
	return f.getByID(id)
}

func (f *queryFake) Statistics(_ context.Context) (*domain.Statistics, error) {
	if f.statistics == nil {
		return nil, errNotWired
	}
	return f.statistics()
}

type contentFake struct {
	serve  func(int64) (*domain.UploadedFile, io.ReadCloser, error)
	delete func(int64) error
}

func (f *contentFake) Serve(_ context.Context, id int64) (*domain.UploadedFile, io.ReadCloser, error) {
	if f.serve == nil {
		return nil, nil, errNotWired
	}
	return f.serve(id)
}

func (f *contentFake) Delete(_ context.Context, id int64) error {
	if f.delete == nil {
		return errNotWired
	}
	return f.delete(id)
}

type assistantFake struct {
	chat       func(string) (*domain.AssistantReply, error)
	suspicious func() ([]domain.UploadedFile, error)
}

func (f *assistantFake) Chat(_ context.Context, message string) (*domain.AssistantReply, error) {
	if f.chat == nil {
		return nil, errNotWired
	}
	return f.chat(message)
}

func (f *assistantFake) SuspiciousFiles(_ context.Context) ([]domain.UploadedFile, error) {
	if f.suspicious == nil {
		return nil, errNotWired
	}
	return f.suspicious()
}
