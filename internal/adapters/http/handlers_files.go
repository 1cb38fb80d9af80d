package httpadapter

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chaiyut/docintake/internal/core/domain"
)

// multipartMemoryLimit caps the in-memory portion of a parsed upload; larger
// parts spill to temp files.
const multipartMemoryLimit = 32 << 20

func (rt *Router) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid multipart form"})
		return
	}
	form := r.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	if len(headers) == 0 && len(form.File) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": `Unexpected field name. Use "files" as field name.`,
		})
		return
	}

	batch := domain.IncomingBatch{
		WorkNote:     r.FormValue("workDetail"),
		Owner:        r.FormValue("owner"),
		ClientOrigin: clientIP(r),
	}
	opened := make([]io.Closer, 0, len(headers))
	defer func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}()
	for i, header := range headers {
		part, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "failed to read uploaded file"})
			return
		}
		opened = append(opened, part)

		batch.Files = append(batch.Files, domain.IncomingFile{
			OriginalName:      header.Filename,
			DeclaredMimeType:  header.Header.Get("Content-Type"),
			SizeBytes:         header.Size,
			Body:              part,
			EntityOverride:    r.FormValue(fmt.Sprintf("company_name_%d", i)),
			ReferenceOverride: r.FormValue(fmt.Sprintf("pn_name_%d", i)),
		})
	}

	result, err := rt.ingestor.Ingest(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		var acceptedBytes int64
		for _, f := range result.Accepted {
			acceptedBytes += f.SizeBytes
		}
		rt.metrics.RecordBatchResult(serviceName, len(result.Accepted), len(result.Rejected), acceptedBytes)
	}

	accepted := result.Accepted
	if accepted == nil {
		accepted = []domain.AcceptedFile{}
	}
	rejected := result.Rejected
	if rejected == nil {
		rejected = []domain.RejectedFile{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully uploaded %d file(s)", len(accepted)),
		"data":    accepted,
		"failed":  rejected,
	})
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
		return
	}

	q := r.URL.Query()
	filter := domain.ListFilter{
		EntityName:       q.Get("company_name"),
		ReferenceCode:    q.Get("pn_name"),
		OriginalName:     q.Get("filename"),
		Search:           q.Get("search"),
		ProcessingStatus: q.Get("processing_status"),
		SimilarityFlag:   q.Get("quality_check"),
	}
	opts := domain.ListOptions{
		Page:      intQueryParam(q.Get("page")),
		PageSize:  intQueryParam(q.Get("limit")),
		SortKey:   q.Get("sort_by"),
		Direction: domain.SortDirection(q.Get("order")),
	}.Normalized()

	files, total, err := rt.query.List(r.Context(), filter, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	pages := total / int64(opts.PageSize)
	if total%int64(opts.PageSize) != 0 {
		pages++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    files,
		"pagination": map[string]any{
			"page":  opts.Page,
			"limit": opts.PageSize,
			"total": total,
			"pages": pages,
		},
	})
}

func (rt *Router) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
		return
	}

	stats, err := rt.query.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (rt *Router) dispatchFileByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/files/"), "/")
	segments := strings.Split(rest, "/")

	id, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid file id"})
		return
	}

	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		rt.getFile(w, r, id)
	case len(segments) == 1 && r.Method == http.MethodDelete:
		rt.deleteFile(w, r, id)
	case len(segments) == 2 && segments[1] == "view" && r.Method == http.MethodGet:
		rt.serveFile(w, r, id, "inline")
	case len(segments) == 2 && segments[1] == "download" && r.Method == http.MethodGet:
		rt.serveFile(w, r, id, "attachment")
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
	}
}

func (rt *Router) getFile(w http.ResponseWriter, r *http.Request, id int64) {
	detail, err := rt.query.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": detail})
}

func (rt *Router) deleteFile(w http.ResponseWriter, r *http.Request, id int64) {
	if err := rt.content.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "File deleted successfully"})
}

func (rt *Router) serveFile(w http.ResponseWriter, r *http.Request, id int64, disposition string) {
	file, body, err := rt.content.Serve(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	mimeType := domain.MimeTypeForName(file.OriginalName)
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename*=UTF-8''%s", disposition, url.PathEscape(file.OriginalName)))
	if disposition == "inline" && mimeType == "application/pdf" {
		// Allow browser preview from any embedding page.
		w.Header().Set("Content-Security-Policy", "frame-ancestors *")
	}
	_, _ = io.Copy(w, body)
}

func intQueryParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
