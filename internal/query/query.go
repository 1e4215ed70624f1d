// Package query defines the execution boundary. An Engine accepts only
// validated statements and materializes rows eagerly; callers never see
// an open cursor.
package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/askdb/askdb/internal/sqlguard"
)

// Result holds a fully materialized result set. Row values are
// normalized to the three canonical kinds: nil, int64, or string.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, stmt sqlguard.Statement) (Result, error)
}

// ErrRowLimit marks a result set that exceeded the configured row cap.
var ErrRowLimit = errors.New("result exceeds the configured row limit")

// ExecError wraps an engine-level failure. Detail carries the engine's
// message for logs; callers surface only a generic category.
type ExecError struct {
	Detail error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Detail)
}

func (e *ExecError) Unwrap() error { return e.Detail }

// NormalizeValue maps an engine-native value onto the canonical kinds.
func NormalizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case int64:
		return typed
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case bool:
		if typed {
			return int64(1)
		}
		return int64(0)
	case []byte:
		return string(typed)
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

// NormalizeRow converts a scanned row in place.
func NormalizeRow(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		normalized[i] = NormalizeValue(value)
	}
	return normalized
}
