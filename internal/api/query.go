package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/pipeline"
)

// MaxQuestionLen bounds the request body; questions are short prose,
// anything larger is rejected before a model call is made.
const MaxQuestionLen = 1024

type queryRequest struct {
	Question      string `json:"question"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type queryResponse struct {
	Question   string   `json:"question"`
	SQL        string   `json:"sql"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMs int64    `json:"duration_ms"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Runner == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}

	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if len(question) > MaxQuestionLen {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_TOO_LONG", "question exceeds the maximum length", false, map[string]any{"max_length": MaxQuestionLen})
		return
	}

	outcome := deps.Runner.Run(r.Context(), pipeline.Request{
		Question:      question,
		CaseSensitive: request.CaseSensitive,
	})
	if !outcome.Success() {
		status, code, retryable := errorStatus(outcome.Err.Kind)
		writeError(r.Context(), w, status, code, outcome.Err.Message, retryable, nil)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:   outcome.Question,
		SQL:        outcome.SQL,
		Columns:    outcome.Result.Columns,
		Rows:       outcome.Result.Rows,
		RowCount:   len(outcome.Result.Rows),
		DurationMs: outcome.Result.Duration.Milliseconds(),
	})
}

// errorStatus maps the pipeline taxonomy onto HTTP. Rejections of the
// generated SQL are client errors: the caller can rephrase the question.
func errorStatus(kind pipeline.Kind) (int, string, bool) {
	switch kind {
	case pipeline.KindModelUnavailable:
		return http.StatusBadGateway, "MODEL_UNAVAILABLE", true
	case pipeline.KindNoSQLFound:
		return http.StatusBadRequest, "NO_SQL_FOUND", false
	case pipeline.KindMultipleStatements:
		return http.StatusBadRequest, "MULTIPLE_STATEMENTS_FOUND", false
	case pipeline.KindUnsafeStatement:
		return http.StatusBadRequest, "UNSAFE_STATEMENT", false
	case pipeline.KindUnknownSchemaReference:
		return http.StatusBadRequest, "UNKNOWN_SCHEMA_REFERENCE", false
	case pipeline.KindResourceLimitExceeded:
		return http.StatusServiceUnavailable, "RESOURCE_LIMIT_EXCEEDED", true
	default:
		return http.StatusInternalServerError, "EXECUTION_ERROR", false
	}
}
