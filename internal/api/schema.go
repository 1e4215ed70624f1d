package api

import (
	"net/http"

	"github.com/askdb/askdb/internal/schema"
)

type schemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type schemaTable struct {
	Name    string         `json:"name"`
	Columns []schemaColumn `json:"columns"`
}

type schemaResponse struct {
	Tables []schemaTable `json:"tables"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema.Empty() {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema descriptor is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, renderSchema(deps.Schema))
}

func renderSchema(desc schema.Descriptor) schemaResponse {
	response := schemaResponse{Tables: make([]schemaTable, 0, len(desc.Tables))}
	for _, table := range desc.Tables {
		rendered := schemaTable{Name: table.Name, Columns: make([]schemaColumn, 0, len(table.Columns))}
		for _, column := range table.Columns {
			rendered.Columns = append(rendered.Columns, schemaColumn{Name: column.Name, Type: string(column.Type)})
		}
		response.Tables = append(response.Tables, rendered)
	}
	return response
}
