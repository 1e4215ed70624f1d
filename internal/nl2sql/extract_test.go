package nl2sql

import (
	"errors"
	"testing"
)

func TestExtractFencedBlock(t *testing.T) {
	candidate, err := Extract(Response{RawText: "Here you go:\n```sql\nSELECT * FROM customers;\n```\nHope that helps!"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if candidate.SQL != "SELECT * FROM customers" {
		t.Fatalf("SQL = %q", candidate.SQL)
	}
	if candidate.Kind != StatementSelect {
		t.Fatalf("Kind = %q", candidate.Kind)
	}
}

func TestExtractBareFence(t *testing.T) {
	candidate, err := Extract(Response{RawText: "```\nSELECT name FROM customers\n```"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if candidate.SQL != "SELECT name FROM customers" {
		t.Fatalf("SQL = %q", candidate.SQL)
	}
}

func TestExtractFallbackRequiresReadKeyword(t *testing.T) {
	candidate, err := Extract(Response{RawText: "SELECT * FROM customers WHERE location = 'Mumbai';"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if candidate.SQL != "SELECT * FROM customers WHERE location = 'Mumbai'" {
		t.Fatalf("SQL = %q", candidate.SQL)
	}

	_, err = Extract(Response{RawText: "I am sorry, I cannot answer that."})
	if !errors.Is(err, ErrNoSQL) {
		t.Fatalf("err = %v, want ErrNoSQL", err)
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	_, err := Extract(Response{RawText: "   \n  "})
	if !errors.Is(err, ErrNoSQL) {
		t.Fatalf("err = %v, want ErrNoSQL", err)
	}
}

func TestExtractMultipleFencedBlocks(t *testing.T) {
	raw := "```sql\nSELECT 1\n```\nor alternatively\n```sql\nSELECT 2\n```"
	_, err := Extract(Response{RawText: raw})
	if !errors.Is(err, ErrMultipleStatements) {
		t.Fatalf("err = %v, want ErrMultipleStatements", err)
	}
}

func TestExtractKeepsInteriorSemicolonForValidator(t *testing.T) {
	candidate, err := Extract(Response{RawText: "SELECT * FROM customers; DROP TABLE customers;"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if candidate.SQL != "SELECT * FROM customers; DROP TABLE customers" {
		t.Fatalf("SQL = %q", candidate.SQL)
	}
}

func TestExtractClassifiesNonSelectAsOther(t *testing.T) {
	candidate, err := Extract(Response{RawText: "```sql\nDELETE FROM customers\n```"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if candidate.Kind != StatementOther {
		t.Fatalf("Kind = %q, want %q", candidate.Kind, StatementOther)
	}
}
