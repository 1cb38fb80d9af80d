package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/chaiyut/docintake/internal/core/domain"
)

func (rt *Router) assistantChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid json"})
		return
	}

	reply, err := rt.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAssistantReply(serviceName, reply.Provider)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": reply})
}

func (rt *Router) suspiciousFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
		return
	}

	files, err := rt.assistant.SuspiciousFiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []domain.UploadedFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    files,
		"count":   len(files),
	})
}
