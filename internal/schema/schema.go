// Package schema holds the static description of the queryable tables.
// The descriptor is built once at startup, shared read-only across
// requests, and is the single source of truth for both prompt
// construction and SQL validation.
package schema

import "strings"

type Type string

const (
	TypeInteger Type = "integer"
	TypeText    Type = "text"
)

type Column struct {
	Name string
	Type Type
}

type Table struct {
	Name    string
	Columns []Column
}

func (t Table) Column(name string) (Column, bool) {
	for _, column := range t.Columns {
		if strings.EqualFold(column.Name, name) {
			return column, true
		}
	}
	return Column{}, false
}

type Descriptor struct {
	Tables []Table
}

func (d Descriptor) Table(name string) (Table, bool) {
	for _, table := range d.Tables {
		if strings.EqualFold(table.Name, name) {
			return table, true
		}
	}
	return Table{}, false
}

func (d Descriptor) Empty() bool {
	return len(d.Tables) == 0
}

// Render produces the schema text embedded into model prompts. The
// output is deterministic so prompt construction stays a pure function.
func (d Descriptor) Render() string {
	var b strings.Builder
	for i, table := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Table: ")
		b.WriteString(table.Name)
		b.WriteString("\nColumns:\n")
		for _, column := range table.Columns {
			b.WriteString("  - ")
			b.WriteString(column.Name)
			b.WriteString(" (")
			b.WriteString(strings.ToUpper(string(column.Type)))
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// Customers is the fixed production descriptor. Changing the queryable
// schema means restarting with a new descriptor, not a runtime API.
func Customers() Descriptor {
	return Descriptor{
		Tables: []Table{
			{
				Name: "customers",
				Columns: []Column{
					{Name: "customer_id", Type: TypeInteger},
					{Name: "name", Type: TypeText},
					{Name: "gender", Type: TypeText},
					{Name: "location", Type: TypeText},
				},
			},
		},
	}
}
