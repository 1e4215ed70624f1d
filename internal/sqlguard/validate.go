// Package sqlguard is the safety gate between model output and the
// database. Validation is an allow-list: a statement passes only when
// every token of it is provably a safe read against the known schema.
// The Statement type has no exported constructor, so the executor can
// only ever receive SQL that went through Validate.
package sqlguard

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/schema"
)

// MaxStatementLen bounds generated SQL; anything longer is rejected
// before any further inspection.
const MaxStatementLen = 4096

// Statement is SQL that passed every safety check. Constructible only
// inside this package.
type Statement struct {
	sql string
}

func (s Statement) SQL() string { return s.sql }

type UnsafeError struct {
	Reason string
}

func (e *UnsafeError) Error() string {
	return fmt.Sprintf("unsafe statement: %s", e.Reason)
}

type UnknownRefError struct {
	Ident string
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("unknown schema reference: %q", e.Ident)
}

// forbidden may not appear anywhere in the text, not only at the lead
// position, blocking keyword smuggling inside subqueries or expressions.
var forbidden = wordSet(
	"insert", "update", "delete", "drop", "alter", "create", "replace",
	"truncate", "attach", "detach", "pragma", "vacuum", "reindex",
	"exec", "execute", "grant", "revoke", "merge", "into", "values",
	"union", "intersect", "except", "with", "explain", "analyze",
	"begin", "commit", "rollback", "savepoint", "release", "transaction",
)

// allowed is the SELECT-only grammar subset: clause keywords, operators
// spelled as words, and a small set of aggregate and scalar functions.
var allowed = wordSet(
	"select", "distinct", "all", "from", "where", "and", "or", "not",
	"in", "like", "glob", "between", "is", "null", "as", "on", "using",
	"join", "inner", "left", "outer", "cross", "order", "by", "asc",
	"desc", "limit", "offset", "group", "having", "case", "when", "then",
	"else", "end", "exists", "escape", "collate", "nocase", "cast",
	"count", "sum", "avg", "min", "max", "lower", "upper", "length",
	"substr", "trim", "ltrim", "rtrim", "coalesce", "ifnull", "nullif",
	"abs", "round", "integer", "text",
)

// Validate inspects a candidate statement and either promotes it to a
// Statement or rejects it. All checks must pass; the first failure wins.
func Validate(candidate nl2sql.Candidate, desc schema.Descriptor) (Statement, error) {
	text := strings.TrimSpace(candidate.SQL)
	if text == "" {
		return Statement{}, &UnsafeError{Reason: "empty statement"}
	}
	if len(text) > MaxStatementLen {
		return Statement{}, &UnsafeError{Reason: fmt.Sprintf("statement exceeds %d bytes", MaxStatementLen)}
	}
	for _, seq := range []string{"--", "/*", "*/", "#"} {
		if strings.Contains(text, seq) {
			return Statement{}, &UnsafeError{Reason: fmt.Sprintf("comment sequence %q is not permitted", seq)}
		}
	}
	if candidate.Kind != nl2sql.StatementSelect {
		return Statement{}, &UnsafeError{Reason: "only SELECT statements are allowed"}
	}

	// One trailing terminator is tolerated; any other semicolon is a
	// statement-stacking attempt.
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	if strings.ContainsRune(text, ';') {
		return Statement{}, &UnsafeError{Reason: "multiple statements are not allowed"}
	}

	tokens, err := scan(text)
	if err != nil {
		return Statement{}, err
	}

	for _, tok := range tokens {
		if tok.kind == tokenWord && forbidden[strings.ToLower(tok.text)] {
			return Statement{}, &UnsafeError{Reason: fmt.Sprintf("keyword %q is not permitted", strings.ToLower(tok.text))}
		}
	}

	if err := checkSchemaReferences(tokens, desc); err != nil {
		return Statement{}, err
	}

	return Statement{sql: text}, nil
}

// checkSchemaReferences resolves every identifier: tables after FROM or
// JOIN must exist in the descriptor, and every remaining bare identifier
// must be an allow-listed SQL word, a referenced table or alias, or a
// column of a referenced table.
func checkSchemaReferences(tokens []token, desc schema.Descriptor) error {
	tables := map[string]schema.Table{}
	aliases := map[string]bool{}
	isTableRef := make([]bool, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenWord || !isTableIntroducer(tok.text) {
			continue
		}
		j := i + 1
		for j < len(tokens) {
			// Subqueries introduce their own FROM clause, handled
			// when the scan reaches it.
			if tokens[j].kind == tokenPunct && tokens[j].text == "(" {
				break
			}
			if !isIdentifier(tokens[j]) {
				break
			}
			table, ok := desc.Table(tokens[j].text)
			if !ok {
				return &UnknownRefError{Ident: tokens[j].text}
			}
			tables[strings.ToLower(table.Name)] = table
			isTableRef[j] = true
			j++

			// Optional "AS alias" or bare alias.
			if j < len(tokens) && tokens[j].kind == tokenWord && strings.EqualFold(tokens[j].text, "as") {
				j++
			}
			if j < len(tokens) && isIdentifier(tokens[j]) && !isAllowedWord(tokens[j]) {
				aliases[strings.ToLower(tokens[j].text)] = true
				isTableRef[j] = true
				j++
			}
			// Comma continues a FROM list.
			if j < len(tokens) && tokens[j].kind == tokenPunct && tokens[j].text == "," {
				j++
				continue
			}
			break
		}
	}

	columnOK := func(name string) bool {
		for _, table := range tables {
			if _, ok := table.Column(name); ok {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if isTableRef[i] {
			continue
		}
		if tok.kind != tokenWord && tok.kind != tokenQuoted {
			continue
		}
		if tok.kind == tokenWord && allowed[strings.ToLower(tok.text)] {
			continue
		}

		name := strings.ToLower(tok.text)
		// Qualified reference: qualifier must be a known table or alias,
		// the column must belong to a referenced table.
		if i+2 < len(tokens) && tokens[i+1].kind == tokenPunct && tokens[i+1].text == "." {
			if _, ok := tables[name]; !ok && !aliases[name] {
				return &UnknownRefError{Ident: tok.text}
			}
			target := tokens[i+2]
			if target.kind == tokenPunct && target.text == "*" {
				i += 2
				continue
			}
			if target.kind != tokenWord && target.kind != tokenQuoted {
				return &UnknownRefError{Ident: tok.text + "."}
			}
			if !columnOK(target.text) {
				return &UnknownRefError{Ident: target.text}
			}
			i += 2
			continue
		}

		if _, ok := tables[name]; ok || aliases[name] || columnOK(tok.text) {
			continue
		}
		return &UnknownRefError{Ident: tok.text}
	}

	return nil
}

func isTableIntroducer(word string) bool {
	return strings.EqualFold(word, "from") || strings.EqualFold(word, "join")
}

func isIdentifier(tok token) bool {
	return tok.kind == tokenWord || tok.kind == tokenQuoted
}

func isAllowedWord(tok token) bool {
	return tok.kind == tokenWord && allowed[strings.ToLower(tok.text)]
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}
