package sqlguard

import "fmt"

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenQuoted
	tokenString
	tokenNumber
	tokenPunct
)

type token struct {
	kind tokenKind
	text string
}

// scan splits statement text into tokens. The scanner itself enforces
// part of the allow-list: only single-quoted literals, double-quoted
// identifiers, words, numbers, and a fixed punctuation set are
// recognized; any other byte fails the statement.
func scan(text string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			literal, next, ok := scanQuoted(text, i, '\'')
			if !ok {
				return nil, &UnsafeError{Reason: "unterminated string literal"}
			}
			tokens = append(tokens, token{kind: tokenString, text: literal})
			i = next
		case c == '"':
			ident, next, ok := scanQuoted(text, i, '"')
			if !ok {
				return nil, &UnsafeError{Reason: "unterminated quoted identifier"}
			}
			if ident == "" {
				return nil, &UnsafeError{Reason: "empty quoted identifier"}
			}
			tokens = append(tokens, token{kind: tokenQuoted, text: ident})
			i = next
		case isWordStart(c):
			start := i
			for i < len(text) && isWordByte(text[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: text[start:i]})
		case c >= '0' && c <= '9':
			start := i
			for i < len(text) && isNumberByte(text[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text[start:i]})
		case isAllowedPunct(c):
			tokens = append(tokens, token{kind: tokenPunct, text: string(c)})
			i++
		default:
			return nil, &UnsafeError{Reason: fmt.Sprintf("character %q is not permitted", string(c))}
		}
	}
	return tokens, nil
}

// scanQuoted consumes a quoted run starting at start, honoring doubled
// quote escapes. Returns the unquoted content and the index past the
// closing quote.
func scanQuoted(text string, start int, quote byte) (string, int, bool) {
	var content []byte
	i := start + 1
	for i < len(text) {
		if text[i] != quote {
			content = append(content, text[i])
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == quote {
			content = append(content, quote)
			i += 2
			continue
		}
		return string(content), i + 1, true
	}
	return "", 0, false
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E'
}

func isAllowedPunct(c byte) bool {
	switch c {
	case '(', ')', ',', '*', '=', '<', '>', '!', '+', '-', '/', '%', '.', '|':
		return true
	default:
		return false
	}
}
