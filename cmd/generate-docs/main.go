// Copyright 2025 Andrew Khoury
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// generate-docs generates documentation from config structs using reflection
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/drew/jobreport/internal/config"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Required    bool
	Default     string
	Description string
	ValidValues []string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Fields      []FieldDoc
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs [output-dir]")
		fmt.Println("Generates documentation from config structs:")
		fmt.Println("  - config.example.toml")
		fmt.Println("  - config.schema.json")
		fmt.Println("  - docs/configuration.md")
		return
	}

	out := "."
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	if err := generate(out, buildDocumentation()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(out string, docs []SectionDoc) error {
	steps := []struct {
		path string
		fn   func([]SectionDoc) ([]byte, error)
	}{
		{"config.example.toml", exampleTOML},
		{"config.schema.json", jsonSchema},
		{filepath.Join("docs", "configuration.md"), markdownDocs},
	}
	for _, step := range steps {
		data, err := step.fn(docs)
		if err != nil {
			return fmt.Errorf("generating %s: %w", step.path, err)
		}
		path := filepath.Join(out, step.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("✓ Generated %s\n", step.path)
	}
	return nil
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	return []SectionDoc{
		extractSection("server", "HTTP listener and access control", defaults.Server),
		extractSection("results", "Location of the result archives and how they are reloaded", defaults.Results),
		extractSection("cache", "Rendered slide deck cache", defaults.Cache),
		extractSection("log", "Logging", defaults.Log),
	}
}

// extractSection uses reflection to extract field documentation from struct tags
func extractSection(name, description string, defaults any) SectionDoc {
	section := SectionDoc{
		Name:        name,
		Description: description,
		Fields:      []FieldDoc{},
	}

	t := reflect.TypeOf(defaults)
	v := reflect.ValueOf(defaults)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		docTag := field.Tag.Get("doc")
		tomlTag := field.Tag.Get("toml")
		if docTag == "" || tomlTag == "" {
			continue
		}

		fieldDoc := FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Required:    field.Tag.Get("required") == "true",
			Description: docTag,
			Default:     getDefaultValue(v.Field(i), field.Type),
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			fieldDoc.ValidValues = strings.Split(enumTag, ",")
		}

		section.Fields = append(section.Fields, fieldDoc)
	}

	return section
}

// getFieldType returns a string representation of the field type
func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + getFieldType(t.Elem())
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue returns the TOML representation of the default value
func getDefaultValue(v reflect.Value, t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case reflect.Slice:
		items := make([]string, v.Len())
		for i := range items {
			items[i] = fmt.Sprintf("%q", v.Index(i).String())
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ""
	}
}

func exampleTOML(docs []SectionDoc) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# jobreport Configuration Reference
# =============================================================================
# This is a comprehensive example showing ALL available configuration options.
# Copy sections you need to your own config.toml.
#
# Quick Start:
#   [results]
#   dir = "/var/lib/jobreport/results"
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# [%s] - %s\n", section.Name, section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n\n")
		sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))

		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			if field.Required {
				sb.WriteString("# Required: yes\n")
			} else {
				sb.WriteString(fmt.Sprintf("# Default: %s\n", field.Default))
			}
			if len(field.ValidValues) > 0 {
				sb.WriteString(fmt.Sprintf("# Valid values: %s\n", strings.Join(field.ValidValues, ", ")))
			}

			value := field.Default
			if field.Type == "string" && value != "" {
				value = fmt.Sprintf("%q", value)
			}
			if value == "" {
				sb.WriteString(fmt.Sprintf("# %s = \n", field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s = %s\n", field.Name, value))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

func jsonSchema(docs []SectionDoc) ([]byte, error) {
	properties := make(map[string]any)
	var required []string

	for _, section := range docs {
		fields := make(map[string]any)
		var sectionRequired []string
		for _, field := range section.Fields {
			fieldSchema := map[string]any{"description": field.Description}
			switch field.Type {
			case "string":
				fieldSchema["type"] = "string"
			case "int":
				fieldSchema["type"] = "integer"
			case "bool":
				fieldSchema["type"] = "boolean"
			case "[]string":
				fieldSchema["type"] = "array"
				fieldSchema["items"] = map[string]any{"type": "string"}
			}
			if len(field.ValidValues) > 0 {
				fieldSchema["enum"] = field.ValidValues
			}
			if field.Required {
				sectionRequired = append(sectionRequired, field.Name)
			}
			fields[field.Name] = fieldSchema
		}

		sectionSchema := map[string]any{
			"type":                 "object",
			"description":          section.Description,
			"properties":           fields,
			"additionalProperties": false,
		}
		if len(sectionRequired) > 0 {
			sectionSchema["required"] = sectionRequired
			required = append(required, section.Name)
		}
		properties[section.Name] = sectionSchema
	}

	schema := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "jobreport Configuration",
		"description":          "Configuration schema for the jobreport server",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return json.MarshalIndent(schema, "", "  ")
}

func markdownDocs(docs []SectionDoc) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("# Configuration\n\n")
	sb.WriteString("jobreport reads `config.toml` from the working directory, or the file given with `--config`. ")
	sb.WriteString("Unknown keys are rejected. Run `jobreport validate` to check a file.\n\n")

	for _, section := range docs {
		sb.WriteString("### `[" + section.Name + "]`\n\n")
		sb.WriteString(section.Description + "\n\n")

		sb.WriteString("| Field | Type | Required | Default | Description |\n")
		sb.WriteString("|-------|------|----------|---------|-------------|\n")

		for _, field := range section.Fields {
			required := "No"
			if field.Required {
				required = "**Yes**"
			}
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			desc := field.Description
			if len(field.ValidValues) > 0 {
				desc += fmt.Sprintf(" (valid: `%s`)", strings.Join(field.ValidValues, "`, `"))
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | `%s` | %s |\n",
				field.Name, field.Type, required, defaultVal, desc))
		}

		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
