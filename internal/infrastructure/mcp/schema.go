package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

// DeprecatedField records a tool or field that has been deprecated.
type DeprecatedField struct {
	Tool      string `json:"tool"`
	Field     string `json:"field"`
	Since     string `json:"since"`
	RemovedIn string `json:"removed_in"`
	Migration string `json:"migration"`
}

func deprecatedFields() []DeprecatedField {
	return []DeprecatedField{}
}

type schemaResponse struct {
	SchemaVersion string            `json:"schema_version"`
	ServerVersion string            `json:"server_version"`
	Deprecated    []DeprecatedField `json:"deprecated"`
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource("specstack://schema").
		Name("specstack://schema").
		Description("MCP tool schema version and deprecation info").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			resp := schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Deprecated:    deprecatedFields(),
			}
			data, err := json.Marshal(resp)
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      "specstack://schema",
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
