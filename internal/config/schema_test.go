// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package config_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugindictator/dictator/internal/config"
	"github.com/plugindictator/dictator/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := config.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
	assert.Equal(t, "Plugin Dictator Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "activate")
	assert.Contains(t, props, "deactivate")
}

func TestValidateSchema_Valid(t *testing.T) {
	docs := []string{
		`{}`,
		`{"$schema":"https://plugindictator.dev/schemas/plugins.schema.json"}`,
		`{"activate":{"a/a.php":{"force":true,"priority":0,"require":{"dep/dep.php":{"path":"vendor"}}}}}`,
		`{"deactivate":{"b/b.php":{"force":false}}}`,
	}
	for _, doc := range docs {
		assert.NoError(t, config.ValidateSchema([]byte(doc)), doc)
	}
}

func TestValidateSchema_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "  "},
		{"malformed", `{"activate":`},
		{"unknown top-level key", `{"enable":{}}`},
		{"force not boolean", `{"activate":{"a/a.php":{"force":"yes"}}}`},
		{"negative priority", `{"activate":{"a/a.php":{"priority":-1}}}`},
		{"unknown setting", `{"activate":{"a/a.php":{"forced":true}}}`},
		{"require under deactivate", `{"deactivate":{"a/a.php":{"require":{}}}}`},
		{"nested require", `{"activate":{"a/a.php":{"require":{"b/b.php":{"require":{}}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateSchema([]byte(tt.doc))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "SCHEMA_INVALID")
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, config.FormatSchemaError(nil))

	err := config.ValidateSchema([]byte(`{"activate":{"a/a.php":{"force":"yes"}}}`))
	require.Error(t, err)
	msg := config.FormatSchemaError(err)
	assert.NotEmpty(t, msg)
	assert.False(t, strings.HasPrefix(msg, "schema validation failed"))
}
