package sqlguard

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/schema"
)

// Zero false negatives: no statement containing a data-modifying keyword
// may ever validate, regardless of where the keyword is placed or how it
// is cased.
func TestPropertyWriteKeywordsNeverValidate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	writeKeywords := []string{
		"insert", "update", "delete", "drop", "alter", "pragma", "attach", "exec", "create", "truncate",
	}
	templates := []string{
		"SELECT * FROM customers WHERE %s = 1",
		"SELECT * FROM customers WHERE customer_id = (%s FROM customers)",
		"SELECT (%s) FROM customers",
		"SELECT * FROM customers ORDER BY %s",
		"SELECT * FROM customers LIMIT 1 %s",
	}

	properties.Property("statements containing write keywords are rejected", prop.ForAll(
		func(keywordIdx, templateIdx int, upper bool) bool {
			keyword := writeKeywords[keywordIdx%len(writeKeywords)]
			if upper {
				keyword = strings.ToUpper(keyword)
			}
			sql := strings.Replace(templates[templateIdx%len(templates)], "%s", keyword, 1)
			_, err := Validate(nl2sql.Candidate{SQL: sql, Kind: nl2sql.StatementSelect}, schema.Customers())
			return err != nil
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.Property("stacked statements are rejected wherever the break falls", prop.ForAll(
		func(padding int) bool {
			sql := "SELECT * FROM customers" + strings.Repeat(" ", padding%5) + "; DROP TABLE customers"
			_, err := Validate(nl2sql.Candidate{SQL: sql, Kind: nl2sql.StatementSelect}, schema.Customers())
			return err != nil
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
