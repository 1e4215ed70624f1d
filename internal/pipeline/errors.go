package pipeline

import "fmt"

// Kind is the stable error taxonomy surfaced to callers. Every failure
// of a pipeline run maps to exactly one kind.
type Kind string

const (
	KindModelUnavailable       Kind = "model_unavailable"
	KindNoSQLFound             Kind = "no_sql_found"
	KindMultipleStatements     Kind = "multiple_statements_found"
	KindUnsafeStatement        Kind = "unsafe_statement"
	KindUnknownSchemaReference Kind = "unknown_schema_reference"
	KindExecutionError         Kind = "execution_error"
	KindResourceLimitExceeded  Kind = "resource_limit_exceeded"
)

// Error is a terminal pipeline failure. Message is safe to show to end
// users; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s at stage %s: %s: %v", e.Kind, e.Stage, e.Message, e.cause)
	}
	return fmt.Sprintf("%s at stage %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, stage Stage, message string, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message, cause: cause}
}
