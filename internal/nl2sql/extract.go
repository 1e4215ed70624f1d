package nl2sql

import (
	"errors"
	"strings"
)

type StatementKind string

const (
	StatementSelect StatementKind = "select"
	StatementOther  StatementKind = "other"
)

// Candidate is an untrusted statement pulled out of a model response.
// It carries no safety guarantee; only sqlguard.Validate can promote it.
type Candidate struct {
	SQL  string
	Kind StatementKind
}

var (
	ErrNoSQL              = errors.New("no SQL statement found in model response")
	ErrMultipleStatements = errors.New("model response contains multiple statements")
)

// Extract isolates a single SQL statement from raw model text. It looks
// for the ```sql fenced block the prompt asks for; without a fence the
// whole trimmed response is accepted only when it leads with a read
// keyword, so prose answers fail instead of being executed. A response
// carrying more than one fenced statement is rejected outright. Interior
// semicolons are deliberately left in the candidate: statement stacking
// is the validator's rejection, and it must see the full text.
func Extract(response Response) (Candidate, error) {
	text := strings.TrimSpace(response.RawText)
	if text == "" {
		return Candidate{}, ErrNoSQL
	}

	blocks := fencedBlocks(text)
	var candidate string
	switch len(blocks) {
	case 0:
		if !leadsWithReadKeyword(text) {
			return Candidate{}, ErrNoSQL
		}
		candidate = text
	case 1:
		candidate = blocks[0]
	default:
		return Candidate{}, ErrMultipleStatements
	}

	candidate = stripTrailingSemicolons(candidate)
	if candidate == "" {
		return Candidate{}, ErrNoSQL
	}

	kind := StatementOther
	if leadsWithReadKeyword(candidate) {
		kind = StatementSelect
	}
	return Candidate{SQL: candidate, Kind: kind}, nil
}

func fencedBlocks(text string) []string {
	var blocks []string
	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			return blocks
		}
		rest = rest[start+3:]
		rest = strings.TrimPrefix(rest, "sql")
		end := strings.Index(rest, "```")
		if end < 0 {
			if block := strings.TrimSpace(rest); block != "" {
				blocks = append(blocks, block)
			}
			return blocks
		}
		if block := strings.TrimSpace(rest[:end]); block != "" {
			blocks = append(blocks, block)
		}
		rest = rest[end+3:]
	}
}

func leadsWithReadKeyword(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	return strings.EqualFold(fields[0], "select")
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
