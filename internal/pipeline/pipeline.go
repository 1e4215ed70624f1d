// Package pipeline sequences translation, validation, and execution as
// a fixed-order state machine. Stages run strictly in order; any
// failure is terminal for the request and mapped onto the error
// taxonomy. The two suspension points are the model call and the
// database call, both bounded by their own timeouts.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
)

type Stage string

const (
	StageReceived   Stage = "received"
	StagePrompted   Stage = "prompted"
	StageTranslated Stage = "translated"
	StageExtracted  Stage = "extracted"
	StageValidated  Stage = "validated"
	StageExecuted   Stage = "executed"
	StageNormalized Stage = "normalized"
	StageDone       Stage = "done"
)

type Request struct {
	Question      string
	CaseSensitive bool
}

// Outcome is the single value returned to callers: either the echoed
// question with the generated SQL and rows, or a terminal Error.
type Outcome struct {
	Question string
	SQL      string
	Result   *query.Result
	Err      *Error
}

func (o Outcome) Success() bool { return o.Err == nil }

type Pipeline struct {
	Schema     schema.Descriptor
	Translator nl2sql.Translator
	Engine     query.Engine
	Logger     *slog.Logger
}

// Run executes one full pipeline pass for a question. Each run is
// independent; the only shared state is the read-only schema descriptor.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	requestID := uuid.NewString()
	observability.ObservePipelineRun()

	run := &runState{pipeline: p, ctx: ctx, requestID: requestID, started: time.Now()}
	run.enter(StageReceived)

	prompt := nl2sql.BuildPrompt(req.Question, req.CaseSensitive, p.Schema)
	run.enter(StagePrompted)

	response, err := p.Translator.Translate(ctx, prompt)
	if err != nil {
		observability.ObserveModelCall("error", 0)
		return run.fail(req, newError(KindModelUnavailable, StagePrompted,
			"the language model is currently unavailable", err))
	}
	observability.ObserveModelCall("ok", response.Latency)
	run.enter(StageTranslated)

	candidate, err := nl2sql.Extract(response)
	if err != nil {
		return run.fail(req, extractionError(err))
	}
	run.enter(StageExtracted)

	stmt, err := sqlguard.Validate(candidate, p.Schema)
	if err != nil {
		// The offending text is logged for audit; it is never executed.
		run.log(slog.LevelWarn, "statement rejected",
			slog.String("sql", candidate.SQL),
			slog.Any("error", err),
		)
		observability.IncrementRejectedStatements()
		return run.fail(req, validationError(err))
	}
	run.enter(StageValidated)

	result, err := p.Engine.Execute(ctx, stmt)
	if err != nil {
		return run.fail(req, executionError(err))
	}
	run.enter(StageExecuted)

	// Rows arrive already normalized to the canonical value kinds; an
	// empty row set is a successful answer, not a failure.
	run.enter(StageNormalized)

	run.enter(StageDone)
	observability.ObservePipelineOutcome("ok")
	run.log(slog.LevelInfo, "pipeline completed",
		slog.String("sql", stmt.SQL()),
		slog.Int("rows", len(result.Rows)),
		slog.String("duration", time.Since(run.started).String()),
	)
	return Outcome{Question: req.Question, SQL: stmt.SQL(), Result: &result}
}

func extractionError(err error) *Error {
	switch {
	case errors.Is(err, nl2sql.ErrMultipleStatements):
		return newError(KindMultipleStatements, StageTranslated,
			"the model response contained more than one statement", err)
	default:
		return newError(KindNoSQLFound, StageTranslated,
			"could not find a SQL statement in the model response", err)
	}
}

func validationError(err error) *Error {
	var unknownErr *sqlguard.UnknownRefError
	if errors.As(err, &unknownErr) {
		return newError(KindUnknownSchemaReference, StageExtracted,
			"the generated SQL references an unknown table or column", err)
	}
	return newError(KindUnsafeStatement, StageExtracted,
		"the generated SQL was rejected by the safety policy", err)
}

func executionError(err error) *Error {
	switch {
	case errors.Is(err, query.ErrRowLimit) || errors.Is(err, context.DeadlineExceeded):
		return newError(KindResourceLimitExceeded, StageValidated,
			"the query exceeded the configured resource limits", err)
	default:
		return newError(KindExecutionError, StageValidated,
			"the query could not be executed", err)
	}
}

type runState struct {
	pipeline  *Pipeline
	ctx       context.Context
	requestID string
	started   time.Time
	stageFrom time.Time
}

func (r *runState) enter(stage Stage) {
	now := time.Now()
	if !r.stageFrom.IsZero() {
		observability.ObserveStageDuration(string(stage), now.Sub(r.stageFrom))
	}
	r.stageFrom = now
	r.log(slog.LevelDebug, "stage transition", slog.String("stage", string(stage)))
}

func (r *runState) fail(req Request, failure *Error) Outcome {
	observability.ObservePipelineOutcome(string(failure.Kind))
	r.log(slog.LevelWarn, "pipeline failed",
		slog.String("stage", string(failure.Stage)),
		slog.String("kind", string(failure.Kind)),
		slog.Any("error", failure),
	)
	return Outcome{Question: req.Question, Err: failure}
}

func (r *runState) log(level slog.Level, msg string, attrs ...any) {
	if r.pipeline.Logger == nil {
		return
	}
	base := []any{
		slog.String("request_id", r.requestID),
		slog.String("trace_id", observability.TraceIDFromContext(r.ctx)),
	}
	r.pipeline.Logger.Log(r.ctx, level, msg, append(base, attrs...)...)
}
