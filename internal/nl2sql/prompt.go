package nl2sql

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

// BuildPrompt renders the model prompt for a question. Pure and
// deterministic: the schema text, the single-statement rule, and the
// fenced-block convention the extractor relies on are all fixed here.
func BuildPrompt(question string, caseSensitive bool, desc schema.Descriptor) string {
	matching := "case-insensitive (wrap text comparisons as LOWER(column) = LOWER('value'))"
	if caseSensitive {
		matching = "case-sensitive (compare text columns with the exact = operator)"
	}

	var b strings.Builder
	b.WriteString("You convert natural language questions into a single SQLite SELECT query.\n\n")
	b.WriteString("Database schema:\n")
	b.WriteString(desc.Render())
	b.WriteString("\nRules:\n")
	b.WriteString("- Return exactly one SQL statement inside a ```sql fenced block. No explanation outside the block.\n")
	b.WriteString("- Only SELECT queries are allowed. Never write or modify data.\n")
	b.WriteString("- Use only the tables and columns listed above. Do not invent columns.\n")
	b.WriteString(fmt.Sprintf("- Text matching must be %s.\n", matching))
	b.WriteString("- Never include semicolons inside the statement.\n")
	b.WriteString("- \"customer\" and \"customers\" both refer to the customers table; \"from location X\" means WHERE location matches X; \"male\"/\"female\" map to the gender column.\n")
	b.WriteString("\nExamples:\n")
	b.WriteString("- \"show me all female customers from mumbai\" -> SELECT * FROM customers WHERE LOWER(gender) = LOWER('Female') AND LOWER(location) = LOWER('Mumbai')\n")
	b.WriteString("- \"find customers in mumbai or london\" -> SELECT * FROM customers WHERE location IN ('Mumbai', 'London')\n")
	b.WriteString("- \"how many customers are there\" -> SELECT COUNT(*) FROM customers\n")
	b.WriteString("\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	return b.String()
}
