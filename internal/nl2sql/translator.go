// Package nl2sql turns a natural-language question into a candidate SQL
// statement: it builds the model prompt, calls the hosted language model,
// and extracts a single statement from the raw response. Nothing produced
// here is trusted; the sqlguard package decides what may execute.
package nl2sql

import (
	"context"
	"time"
)

type Response struct {
	RawText string
	Latency time.Duration
}

type Translator interface {
	Translate(ctx context.Context, prompt string) (Response, error)
}
