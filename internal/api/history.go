package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/harborlens/harborlens/internal/auth"
	"github.com/harborlens/harborlens/internal/history"
	"github.com/harborlens/harborlens/internal/storage"
)

type historyEntryResponse struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	SQL        *string   `json:"sql"`
	Outcome    string    `json:"outcome"`
	Error      *string   `json:"error"`
	DurationMs int64     `json:"duration_ms"`
	RowCount   int       `json:"row_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func handleHistoryList(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "query history is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	filter := history.ListFilter{Outcome: r.URL.Query().Get("outcome")}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		filter.Limit = limit
	}

	entries, err := deps.History.List(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to list query history", true, map[string]any{"details": err.Error()})
		return
	}

	payload := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, historyEntryResponse{
			ID:         entry.ID,
			Question:   entry.Question,
			SQL:        entry.SQL,
			Outcome:    entry.Outcome,
			Error:      entry.Error,
			DurationMs: entry.DurationMs,
			RowCount:   entry.RowCount,
			CreatedAt:  entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": payload})
}

type historyExportRequest struct {
	Outcome string `json:"outcome"`
	Limit   int    `json:"limit"`
}

type historyExportResponse struct {
	Key         string `json:"key"`
	RecordCount int64  `json:"record_count"`
	SizeBytes   int64  `json:"size_bytes"`
}

// handleHistoryExport snapshots matching history entries into a parquet
// object. The export key embeds the request time, so repeated exports never
// overwrite each other.
func handleHistoryExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil || deps.Exports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPORT_NOT_CONFIGURED", "history export is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request historyExportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid export request body", false, map[string]any{"details": err.Error()})
		return
	}

	entries, err := deps.History.List(r.Context(), history.ListFilter{Outcome: request.Outcome, Limit: request.Limit})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to list query history", true, map[string]any{"details": err.Error()})
		return
	}
	if len(entries) == 0 {
		writeError(r.Context(), w, http.StatusNotFound, "NO_HISTORY_ENTRIES", "no history entries matched the export filter", false, nil)
		return
	}

	encoded, err := history.EncodeEntriesToParquet(entries)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_ENCODING_FAILED", "failed to encode history export", false, map[string]any{"details": err.Error()})
		return
	}

	exportedAt := time.Now().UTC()
	key, err := storage.BuildExportPath(deps.ExportPrefix, exportedAt, exportedAt.UnixMilli())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_PATH_INVALID", "failed to build export path", false, map[string]any{"details": err.Error()})
		return
	}

	info, err := deps.Exports.Put(r.Context(), key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EXPORT_UPLOAD_FAILED", "failed to upload history export", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, historyExportResponse{
		Key:         key,
		RecordCount: encoded.RecordCount,
		SizeBytes:   info.Size,
	})
}
