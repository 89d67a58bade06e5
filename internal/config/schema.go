// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

// settingsSchema describes the settings object of a deactivate entry or a
// dependency.
type settingsSchema struct {
	Force    bool   `json:"force,omitempty" jsonschema:"description=Deactivate even where the plugin is required"`
	Path     string `json:"path,omitempty" jsonschema:"description=Directory fragment under the site root holding the plugin"`
	Priority int    `json:"priority,omitempty" jsonschema:"minimum=0,description=Load checkpoint: 0 must-use 1 plugins 2 theme"`
}

// activateSchema describes the settings object of an activate entry.
type activateSchema struct {
	Force    bool                      `json:"force,omitempty" jsonschema:"description=Keep active even if a site administrator deactivates it"`
	Path     string                    `json:"path,omitempty" jsonschema:"description=Directory fragment under the site root holding the plugin"`
	Priority int                       `json:"priority,omitempty" jsonschema:"minimum=0,description=Load checkpoint: 0 must-use 1 plugins 2 theme"`
	Require  map[string]settingsSchema `json:"require,omitempty" jsonschema:"description=Plugins that must be active before this one"`
}

// documentSchema describes a plugins.json document.
type documentSchema struct {
	Schema     string                    `json:"$schema,omitempty"`
	Activate   map[string]activateSchema `json:"activate,omitempty" jsonschema:"description=Plugins to activate keyed by slug"`
	Deactivate map[string]settingsSchema `json:"deactivate,omitempty" jsonschema:"description=Plugins to deactivate keyed by slug"`
}

// SchemaID is the $id of the configuration document schema.
const SchemaID = "https://plugindictator.dev/schemas/plugins.schema.json"

// GenerateSchema generates the JSON Schema for configuration documents.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&documentSchema{})

	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Plugin Dictator Configuration"
	schema.Description = "Schema for plugins.json configuration documents"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	schemaData, err := jschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return c.Compile("schema.json")
})

// ValidateSchema validates a configuration document against the schema.
// Loading does not require schema-valid documents; this is a stricter check
// used by the validate command and by loaders built with WithStrictSchema.
func ValidateSchema(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return oops.Code("SCHEMA_INVALID").Errorf("document is empty")
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("SCHEMA_INVALID").Wrapf(err, "invalid JSON")
	}

	sch, err := compiledSchema()
	if err != nil {
		return oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}

	if err := sch.Validate(doc); err != nil {
		return oops.Code("SCHEMA_INVALID").Wrapf(err, "schema validation failed")
	}
	return nil
}

// FormatSchemaError formats a schema validation error for display.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "schema validation failed: "); i >= 0 {
		msg = msg[i+len("schema validation failed: "):]
	}
	return msg
}
