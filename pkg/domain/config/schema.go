package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"org_templates": {
			"type": "object",
			"properties": {
				"source": {"type": "string", "pattern": "^$|^[^/\\s]+/[^/\\s]+$"},
				"template_path": {"type": "string"}
			}
		},
		"issue_tracking": {
			"type": "object",
			"properties": {
				"cache_closed_days": {"type": "integer", "minimum": 0}
			}
		},
		"tracker": {
			"type": "object",
			"properties": {
				"provider": {"type": "string", "minLength": 1}
			}
		},
		"docs": {
			"type": "object",
			"properties": {
				"path": {"type": "string", "minLength": 1}
			}
		}
	}
}`

var configSchemaLoader = gojsonschema.NewStringLoader(configSchema)

// SchemaError lists the configuration values the schema rejected.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Violations, "; "))
}

// Validate checks a merged configuration against the config schema.
// Violations come back as a *SchemaError naming each offending field.
func Validate(cfg *Config) error {
	result, err := gojsonschema.Validate(configSchemaLoader, gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{}
	for _, violation := range result.Errors() {
		schemaErr.Violations = append(schemaErr.Violations, fmt.Sprintf("%s: %s", violation.Field(), violation.Description()))
	}
	return schemaErr
}
