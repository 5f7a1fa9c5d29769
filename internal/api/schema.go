package api

import (
	"net/http"

	"github.com/harborlens/harborlens/internal/auth"
)

type schemaResponse struct {
	Dialect string `json:"dialect"`
	Schema  string `json:"schema"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema provider is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsk); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	schema, err := deps.Schema.DescribeSchema(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to describe warehouse schema", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Dialect: deps.Schema.DialectName(),
		Schema:  schema,
	})
}
