package domain

import "io"

// IncomingFile is the explicit wrapper around one multipart entry. Client-side
// parse overrides, when present, win over the filename parser.
type IncomingFile struct {
	OriginalName      string
	DeclaredMimeType  string
	SizeBytes         int64
	Body              io.Reader
	EntityOverride    string
	ReferenceOverride string
}

// IncomingBatch is one upload request: up to MaxFilesPerBatch files that share
// a work note, an owner and one timestamp-named storage directory.
type IncomingBatch struct {
	Files        []IncomingFile
	WorkNote     string
	Owner        string
	ClientOrigin string
}

type AcceptedFile struct {
	ID           int64  `json:"id"`
	OriginalName string `json:"filename"`
	SizeBytes    int64  `json:"file_size"`
}

type RejectedFile struct {
	OriginalName string `json:"filename"`
	Reason       string `json:"reason"`
	Err          error  `json:"-"`
}

// BatchResult makes the continue-on-error contract of batch intake explicit:
// the fold never aborts on a per-file failure.
type BatchResult struct {
	BatchID  string
	Accepted []AcceptedFile
	Rejected []RejectedFile
}

// FileDetail is the single-record read model: the parent row plus its ordered
// page records.
type FileDetail struct {
	UploadedFile
	Pages      []PageRecord `json:"pages"`
	FileExists bool         `json:"file_exists"`
}

// AssistantReply is one assistant turn plus the context it was grounded in.
type AssistantReply struct {
	Text     string         `json:"response"`
	Kind     string         `json:"message_type"`
	Provider string         `json:"provider"`
	Context  map[string]any `json:"context,omitempty"`
}
