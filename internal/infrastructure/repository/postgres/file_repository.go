package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chaiyut/docintake/internal/core/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FileRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS uploaded_files (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	fullfile_path TEXT NOT NULL,
	owner TEXT NOT NULL DEFAULT 'system',
	mime_type TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	company_name TEXT NOT NULL DEFAULT '',
	pn_name TEXT NOT NULL DEFAULT '',
	work_detail TEXT NOT NULL DEFAULT '',
	processing_status TEXT NOT NULL DEFAULT 'pending',
	similarity_status TEXT NOT NULL DEFAULT 'no',
	ocr_text TEXT NOT NULL DEFAULT '',
	receipt_date TEXT NOT NULL DEFAULT '',
	total_amount TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL,
	client_ip TEXT NOT NULL DEFAULT '',
	folder_timestamp TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS uploaded_files_page (
	id BIGSERIAL PRIMARY KEY,
	file_id BIGINT NOT NULL REFERENCES uploaded_files(id) ON DELETE CASCADE,
	page_number INT NOT NULL DEFAULT 1,
	owner TEXT NOT NULL DEFAULT 'system',
	fullfile_path TEXT NOT NULL DEFAULT '',
	folder_timestamp TEXT NOT NULL DEFAULT '',
	ocr_text TEXT NOT NULL DEFAULT '',
	extract_taxid TEXT NOT NULL DEFAULT '',
	extract_receipt TEXT NOT NULL DEFAULT '',
	extract_entity TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploaded_files_status ON uploaded_files(processing_status);
CREATE INDEX IF NOT EXISTS idx_uploaded_files_uploaded_at ON uploaded_files(uploaded_at DESC);
CREATE INDEX IF NOT EXISTS idx_uploaded_files_page_file_id ON uploaded_files_page(file_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const fileColumns = `id, filename, fullfile_path, owner, mime_type, file_size, company_name, pn_name, work_detail, processing_status, similarity_status, ocr_text, receipt_date, total_amount, uploaded_at, client_ip, folder_timestamp`

// CreateWithPage inserts the parent row and, for PDFs, the eager page_number=1
// child row. Both land in one transaction so a failed page insert leaves no
// orphaned parent.
func (r *FileRepository) CreateWithPage(ctx context.Context, file *domain.UploadedFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
INSERT INTO uploaded_files (
	filename, fullfile_path, owner, mime_type, file_size, company_name, pn_name, work_detail, processing_status, similarity_status, uploaded_at, client_ip, folder_timestamp
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id
`,
		file.OriginalName, file.StoragePath, file.Owner, file.MimeType, file.SizeBytes,
		file.EntityName, file.ReferenceCode, file.WorkNote, string(file.ProcessingStatus),
		string(file.SimilarityFlag), file.UploadedAt, file.ClientOrigin, file.BatchID,
	)
	if err := row.Scan(&file.ID); err != nil {
		return fmt.Errorf("insert uploaded file: %w", err)
	}

	if file.IsPDF() {
		page := domain.NewPageRecord(file)
		_, err := tx.ExecContext(ctx, `
INSERT INTO uploaded_files_page (
	file_id, page_number, owner, fullfile_path, folder_timestamp, uploaded_at
) VALUES ($1,$2,$3,$4,$5,$6)
`, page.FileID, page.PageNumber, page.Owner, page.StoragePath, page.BatchID, page.UploadedAt)
		if err != nil {
			return fmt.Errorf("insert eager page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*domain.UploadedFile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fileColumns+`
FROM uploaded_files
WHERE id = $1
`, id)

	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get file by id", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) ListPages(ctx context.Context, fileID int64) ([]domain.PageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_id, page_number, owner, fullfile_path, folder_timestamp, ocr_text, extract_taxid, extract_receipt, extract_entity, uploaded_at
FROM uploaded_files_page
WHERE file_id = $1
ORDER BY page_number ASC
`, fileID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PageRecord, 0)
	for rows.Next() {
		var p domain.PageRecord
		err := rows.Scan(
			&p.ID, &p.FileID, &p.PageNumber, &p.Owner, &p.StoragePath, &p.BatchID,
			&p.OCRText, &p.ExtractTaxID, &p.ExtractReceiptNo, &p.ExtractEntity, &p.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

// sortColumns is the allow-list of sortable keys. Everything else falls back
// to upload time so caller-supplied keys never reach the SQL text.
var sortColumns = map[string]string{
	"id":                "id",
	"original_name":     "filename",
	"entity_name":       "company_name",
	"reference_code":    "pn_name",
	"created_at":        "uploaded_at",
	"processing_status": "processing_status",
}

type condition struct {
	clause string
	arg    any
}

func listConditions(filter domain.ListFilter) []condition {
	conds := make([]condition, 0, 6)
	if filter.EntityName != "" {
		conds = append(conds, condition{"company_name ILIKE ?", "%" + filter.EntityName + "%"})
	}
	if filter.ReferenceCode != "" {
		conds = append(conds, condition{"pn_name ILIKE ?", "%" + filter.ReferenceCode + "%"})
	}
	if filter.OriginalName != "" {
		conds = append(conds, condition{"filename ILIKE ?", "%" + filter.OriginalName + "%"})
	}
	if filter.Search != "" {
		conds = append(conds, condition{"(filename ILIKE ? OR company_name ILIKE ? OR pn_name ILIKE ? OR ocr_text ILIKE ?)", "%" + filter.Search + "%"})
	}
	if filter.ProcessingStatus != "" {
		conds = append(conds, condition{"processing_status = ?", filter.ProcessingStatus})
	}
	if filter.SimilarityFlag != "" {
		conds = append(conds, condition{"similarity_status = ?", filter.SimilarityFlag})
	}
	return conds
}

// buildWhere renders the condition list into a WHERE clause with positional
// placeholders, repeating args for clauses that bind the same value more
// than once.
func buildWhere(conds []condition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(conds))
	sb.WriteString("WHERE ")
	for i, c := range conds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		clause := c.clause
		for strings.Contains(clause, "?") {
			args = append(args, c.arg)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		sb.WriteString(clause)
	}
	return sb.String(), args
}

func orderClause(opts domain.ListOptions) string {
	dir := "DESC"
	if opts.Direction == domain.SortAscending {
		dir = "ASC"
	}
	if opts.SortKey == "" {
		return "ORDER BY id DESC"
	}
	col, ok := sortColumns[opts.SortKey]
	if !ok {
		return "ORDER BY uploaded_at DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

func (r *FileRepository) List(ctx context.Context, filter domain.ListFilter, opts domain.ListOptions) ([]domain.UploadedFile, int64, error) {
	opts = opts.Normalized()
	where, args := buildWhere(listConditions(filter))

	var total int64
	countQuery := "SELECT COUNT(*) FROM uploaded_files " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM uploaded_files %s %s LIMIT $%d OFFSET $%d",
		fileColumns, where, orderClause(opts), len(args)+1, len(args)+2,
	)
	args = append(args, opts.PageSize, opts.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UploadedFile, 0, opts.PageSize)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate files: %w", err)
	}
	return out, total, nil
}

func (r *FileRepository) UpdateStatus(ctx context.Context, id int64, status domain.ProcessingStatus) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE uploaded_files
SET processing_status = $2
WHERE id = $1
`, id, string(status))
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update file status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "update file status", fmt.Errorf("id=%d", id))
	}
	return nil
}

// SaveEnrichment writes the worker's outputs to the parent row and mirrors
// the extracted fields onto the eager page rows.
func (r *FileRepository) SaveEnrichment(ctx context.Context, id int64, enrichment domain.Enrichment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrichment tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE uploaded_files
SET ocr_text = $2, receipt_date = $3, total_amount = $4
WHERE id = $1
`, id, enrichment.OCRText, enrichment.ReceiptDate, enrichment.TotalAmount)
	if err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save enrichment rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "save enrichment", fmt.Errorf("id=%d", id))
	}

	_, err = tx.ExecContext(ctx, `
UPDATE uploaded_files_page
SET ocr_text = $2, extract_taxid = $3, extract_receipt = $4, extract_entity = $5
WHERE file_id = $1
`, id, enrichment.OCRText, enrichment.TaxID, enrichment.ReceiptNumber, enrichment.EntityName)
	if err != nil {
		return fmt.Errorf("save page enrichment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrichment tx: %w", err)
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "delete file", fmt.Errorf("id=%d", id))
	}
	return nil
}

func (r *FileRepository) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var stats domain.Statistics
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE similarity_status = 'yes'),
	COUNT(*) FILTER (WHERE ocr_text <> ''),
	COUNT(*) FILTER (WHERE uploaded_at >= date_trunc('day', now())),
	COUNT(DISTINCT owner),
	COALESCE(SUM(file_size), 0)
FROM uploaded_files
`).Scan(
		&stats.TotalFiles, &stats.SuspiciousFiles, &stats.FilesWithOCR,
		&stats.TodayFiles, &stats.UniqueOwners, &stats.TotalSizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate statistics: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT mime_type, COUNT(*), COALESCE(SUM(file_size), 0)
FROM uploaded_files
GROUP BY mime_type
ORDER BY COUNT(*) DESC
`)
	if err != nil {
		return nil, fmt.Errorf("aggregate by type: %w", err)
	}
	defer rows.Close()

	stats.ByType = make([]domain.TypeBreakdown, 0)
	for rows.Next() {
		var b domain.TypeBreakdown
		if err := rows.Scan(&b.MimeType, &b.Count, &b.TotalSize); err != nil {
			return nil, fmt.Errorf("scan type breakdown: %w", err)
		}
		stats.ByType = append(stats.ByType, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type breakdown: %w", err)
	}
	return &stats, nil
}

func (r *FileRepository) ListSuspicious(ctx context.Context) ([]domain.UploadedFile, error) {
	return r.queryFiles(ctx, `
SELECT `+fileColumns+`
FROM uploaded_files
WHERE similarity_status = 'yes'
ORDER BY uploaded_at DESC
`)
}

func (r *FileRepository) ListRecent(ctx context.Context, limit int) ([]domain.UploadedFile, error) {
	return r.queryFiles(ctx, `
SELECT `+fileColumns+`
FROM uploaded_files
ORDER BY uploaded_at DESC
LIMIT $1
`, limit)
}

func (r *FileRepository) queryFiles(ctx context.Context, query string, args ...any) ([]domain.UploadedFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UploadedFile, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

type fileScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row fileScanner) (domain.UploadedFile, error) {
	var file domain.UploadedFile
	var status, similarity string
	err := row.Scan(
		&file.ID,
		&file.OriginalName,
		&file.StoragePath,
		&file.Owner,
		&file.MimeType,
		&file.SizeBytes,
		&file.EntityName,
		&file.ReferenceCode,
		&file.WorkNote,
		&status,
		&similarity,
		&file.OCRText,
		&file.ReceiptDate,
		&file.TotalAmount,
		&file.UploadedAt,
		&file.ClientOrigin,
		&file.BatchID,
	)
	if err != nil {
		return domain.UploadedFile{}, err
	}
	file.ProcessingStatus = domain.ProcessingStatus(status)
	file.SimilarityFlag = domain.SimilarityFlag(similarity)
	return file, nil
}
