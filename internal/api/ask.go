package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/harborlens/harborlens/internal/auth"
	"github.com/harborlens/harborlens/internal/pipeline"
)

type askRequest struct {
	Question    string `json:"question"`
	ReturnTable *bool  `json:"return_table"`
	Limit       int    `json:"limit"`
}

// askRecordsResponse mirrors the plain response but re-keys each row into a
// column-to-value map, which spreadsheet-style clients consume directly.
type askRecordsResponse struct {
	SQL     *string          `json:"sql"`
	Answer  string           `json:"answer"`
	Error   *string          `json:"error"`
	Count   int              `json:"count"`
	Records []map[string]any `json:"records"`
}

// handleAsk serves both question endpoints. The plain variant honors the
// request's return_table flag, defaulting to true; the records variant always
// requests the table so there are rows to re-key.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request, asRecords bool) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsk); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	returnTable := true
	if !asRecords && request.ReturnTable != nil {
		returnTable = *request.ReturnTable
	}

	response := deps.Pipeline.Process(r.Context(), pipeline.Request{
		Question:    request.Question,
		ReturnTable: returnTable,
		Limit:       request.Limit,
	})
	if asRecords {
		writeJSON(w, http.StatusOK, buildRecordsResponse(response))
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func buildRecordsResponse(response pipeline.Response) askRecordsResponse {
	records := make([]map[string]any, 0, len(response.Rows))
	for _, row := range response.Rows {
		record := make(map[string]any, len(response.Columns))
		for i, column := range response.Columns {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}
	return askRecordsResponse{
		SQL:     response.SQL,
		Answer:  response.Answer,
		Error:   response.Error,
		Count:   len(records),
		Records: records,
	}
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
