package domain

import "time"

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusInProgress ProcessingStatus = "in_progress"
	StatusComplete   ProcessingStatus = "complete"
	StatusFailed     ProcessingStatus = "failed"
)

type SimilarityFlag string

const (
	SimilarityNo  SimilarityFlag = "no"
	SimilarityYes SimilarityFlag = "yes"
)

// Batch-level intake limits. These are contract constants, not tunables.
const (
	MaxFileSizeBytes = 50 * 1024 * 1024
	MaxFilesPerBatch = 200
	DefaultOwner     = "system"
	DefaultPageSize  = 50
)

// AllowedMimeTypes is the intake allow-list for declared content types.
var AllowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

type UploadedFile struct {
	ID               int64            `json:"id"`
	OriginalName     string           `json:"filename"`
	StoragePath      string           `json:"-"`
	Owner            string           `json:"owner"`
	MimeType         string           `json:"mime_type"`
	SizeBytes        int64            `json:"file_size"`
	EntityName       string           `json:"company_name"`
	ReferenceCode    string           `json:"pn_name"`
	WorkNote         string           `json:"work_detail,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	SimilarityFlag   SimilarityFlag   `json:"similarity_status"`
	OCRText          string           `json:"ocr_text,omitempty"`
	ReceiptDate      string           `json:"receipt_date,omitempty"`
	TotalAmount      string           `json:"total_amount,omitempty"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	ClientOrigin     string           `json:"-"`
	BatchID          string           `json:"folder_timestamp,omitempty"`
}

func (f *UploadedFile) IsPDF() bool {
	return f.MimeType == "application/pdf"
}

// PageRecord is the eager per-page child of a PDF upload. The duplicated
// owner/path/batch fields mirror the parent and are not authoritative.
type PageRecord struct {
	ID               int64     `json:"id"`
	FileID           int64     `json:"file_id"`
	PageNumber       int       `json:"page_number"`
	Owner            string    `json:"owner"`
	StoragePath      string    `json:"-"`
	BatchID          string    `json:"folder_timestamp,omitempty"`
	OCRText          string    `json:"ocr_text,omitempty"`
	ExtractTaxID     string    `json:"extract_taxid,omitempty"`
	ExtractReceiptNo string    `json:"extract_receipt,omitempty"`
	ExtractEntity    string    `json:"extract_entity,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// NewPageRecord builds the single eager page for a freshly inserted PDF.
func NewPageRecord(file *UploadedFile) PageRecord {
	return PageRecord{
		FileID:      file.ID,
		PageNumber:  1,
		Owner:       file.Owner,
		StoragePath: file.StoragePath,
		BatchID:     file.BatchID,
		UploadedAt:  file.UploadedAt,
	}
}

// ListFilter holds the optional, ANDed listing filters.
type ListFilter struct {
	EntityName       string
	ReferenceCode    string
	OriginalName     string
	Search           string
	ProcessingStatus string
	SimilarityFlag   string
}

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

type ListOptions struct {
	Page      int
	PageSize  int
	SortKey   string
	Direction SortDirection
}

func (o ListOptions) Normalized() ListOptions {
	out := o
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = DefaultPageSize
	}
	if out.Direction != SortAscending {
		out.Direction = SortDescending
	}
	return out
}

func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// Enrichment carries the fields the async worker writes back after text
// extraction. Empty fields are written as-is; the worker decides what it got.
type Enrichment struct {
	OCRText       string
	ReceiptDate   string
	TotalAmount   string
	TaxID         string
	ReceiptNumber string
	EntityName    string
}

// Statistics mirrors the dashboard aggregates.
type Statistics struct {
	TotalFiles      int64           `json:"total_files"`
	SuspiciousFiles int64           `json:"suspicious_files"`
	FilesWithOCR    int64           `json:"files_with_ocr"`
	TodayFiles      int64           `json:"today_files"`
	UniqueOwners    int64           `json:"unique_users"`
	TotalSizeBytes  int64           `json:"total_size"`
	ByType          []TypeBreakdown `json:"by_type"`
}

type TypeBreakdown struct {
	MimeType  string `json:"mime_type"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}
