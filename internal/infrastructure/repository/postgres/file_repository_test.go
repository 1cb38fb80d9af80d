package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chaiyut/docintake/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*FileRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FileRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, fullfile_path").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE uploaded_files").
		WithArgs(int64(404), string(domain.StatusInProgress)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 404, domain.StatusInProgress)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM uploaded_files").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithPageInsertsEagerPageForPDF(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	uploadedAt := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	file := &domain.UploadedFile{
		OriginalName:     "acme_PN-100.pdf",
		StoragePath:      "uploads/2025-01-15T09-30-00/abc.pdf",
		Owner:            "system",
		MimeType:         "application/pdf",
		SizeBytes:        1024,
		EntityName:       "acme",
		ReferenceCode:    "PN-100",
		ProcessingStatus: domain.StatusPending,
		SimilarityFlag:   domain.SimilarityNo,
		UploadedAt:       uploadedAt,
		BatchID:          "2025-01-15T09-30-00",
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO uploaded_files").
		WithArgs(
			file.OriginalName, file.StoragePath, file.Owner, file.MimeType, file.SizeBytes,
			file.EntityName, file.ReferenceCode, file.WorkNote, "pending", "no",
			file.UploadedAt, file.ClientOrigin, file.BatchID,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO uploaded_files_page").
		WithArgs(int64(7), 1, file.Owner, file.StoragePath, file.BatchID, file.UploadedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.CreateWithPage(context.Background(), file); err != nil {
		t.Fatalf("CreateWithPage() error = %v", err)
	}
	if file.ID != 7 {
		t.Fatalf("file.ID = %d, want 7", file.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithPageSkipsPageForImages(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	file := &domain.UploadedFile{
		OriginalName:     "scan.png",
		StoragePath:      "uploads/b/x.png",
		Owner:            "system",
		MimeType:         "image/png",
		ProcessingStatus: domain.StatusPending,
		SimilarityFlag:   domain.SimilarityNo,
		UploadedAt:       time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO uploaded_files").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	if err := repo.CreateWithPage(context.Background(), file); err != nil {
		t.Fatalf("CreateWithPage() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithPageRollsBackWhenPageInsertFails(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	file := &domain.UploadedFile{
		OriginalName: "doc.pdf",
		MimeType:     "application/pdf",
		UploadedAt:   time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO uploaded_files").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec("INSERT INTO uploaded_files_page").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if err := repo.CreateWithPage(context.Background(), file); err == nil {
		t.Fatalf("expected error when page insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveEnrichmentWritesParentAndPages(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	enrichment := domain.Enrichment{
		OCRText:       "receipt body",
		ReceiptDate:   "2025-01-15",
		TotalAmount:   "1250.00",
		TaxID:         "0105551234567",
		ReceiptNumber: "RC-42",
		EntityName:    "acme",
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE uploaded_files").
		WithArgs(int64(7), enrichment.OCRText, enrichment.ReceiptDate, enrichment.TotalAmount).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE uploaded_files_page").
		WithArgs(int64(7), enrichment.OCRText, enrichment.TaxID, enrichment.ReceiptNumber, enrichment.EntityName).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveEnrichment(context.Background(), 7, enrichment); err != nil {
		t.Fatalf("SaveEnrichment() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBuildWhereBindsEveryPlaceholder(t *testing.T) {
	where, args := buildWhere(listConditions(domain.ListFilter{
		EntityName: "acme",
		Search:     "invoice",
	}))

	want := "WHERE company_name ILIKE $1 AND (filename ILIKE $2 OR company_name ILIKE $3 OR pn_name ILIKE $4 OR ocr_text ILIKE $5)"
	if where != want {
		t.Fatalf("where = %q, want %q", where, want)
	}
	if len(args) != 5 {
		t.Fatalf("args = %d, want 5", len(args))
	}
	if args[0] != "%acme%" {
		t.Fatalf("args[0] = %v", args[0])
	}
	for _, a := range args[1:] {
		if a != "%invoice%" {
			t.Fatalf("search arg = %v, want %%invoice%%", a)
		}
	}
}

func TestBuildWhereEmptyFilter(t *testing.T) {
	where, args := buildWhere(listConditions(domain.ListFilter{}))
	if where != "" || len(args) != 0 {
		t.Fatalf("empty filter produced %q with %d args", where, len(args))
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		opts domain.ListOptions
		want string
	}{
		{"default", domain.ListOptions{}, "ORDER BY id DESC"},
		{"allowed key asc", domain.ListOptions{SortKey: "entity_name", Direction: domain.SortAscending}, "ORDER BY company_name ASC"},
		{"allowed key desc", domain.ListOptions{SortKey: "created_at", Direction: domain.SortDescending}, "ORDER BY uploaded_at DESC"},
		{"unknown key falls back", domain.ListOptions{SortKey: "owner; DROP TABLE uploaded_files"}, "ORDER BY uploaded_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderClause(tt.opts); got != tt.want {
				t.Fatalf("orderClause() = %q, want %q", got, tt.want)
			}
		})
	}
}
