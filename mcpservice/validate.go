package mcpservice

import (
	"encoding/json"
	"fmt"

	"github.com/widgethq/widgetmcp/mcp"
)

// validateArguments checks raw tool arguments against the tool's input
// schema and returns every field-level violation found. It runs before the
// tool function is invoked; an empty result means the arguments may be
// decoded and executed.
func validateArguments(schema mcp.ToolInputSchema, raw json.RawMessage) []FieldError {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return []FieldError{{Field: "(arguments)", Message: "must be a JSON object"}}
		}
	}

	var errs []FieldError

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			errs = append(errs, FieldError{Field: name, Message: "required field is missing"})
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			if !schema.AdditionalProperties {
				errs = append(errs, FieldError{Field: name, Message: "unknown field"})
			}
			continue
		}
		errs = append(errs, checkValue(name, prop, value)...)
	}

	return errs
}

func checkValue(field string, prop mcp.SchemaProperty, value any) []FieldError {
	if value == nil {
		return []FieldError{{Field: field, Message: "must not be null"}}
	}

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return []FieldError{{Field: field, Message: "must be a string"}}
		}
		if prop.MinLength != nil && uint64(len(s)) < *prop.MinLength {
			return []FieldError{{Field: field, Message: fmt.Sprintf("must be at least %d characters", *prop.MinLength)}}
		}
		if len(prop.Enum) > 0 && !enumContains(prop.Enum, s) {
			return []FieldError{{Field: field, Message: "must be one of the allowed values"}}
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return []FieldError{{Field: field, Message: "must be a number"}}
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return []FieldError{{Field: field, Message: "must be an integer"}}
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return []FieldError{{Field: field, Message: "must be a boolean"}}
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return []FieldError{{Field: field, Message: "must be an array"}}
		}
		if prop.Items != nil {
			var errs []FieldError
			for i, item := range items {
				errs = append(errs, checkValue(fmt.Sprintf("%s[%d]", field, i), *prop.Items, item)...)
			}
			return errs
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return []FieldError{{Field: field, Message: "must be an object"}}
		}
		var errs []FieldError
		for _, name := range prop.Required {
			if _, ok := obj[name]; !ok {
				errs = append(errs, FieldError{Field: field + "." + name, Message: "required field is missing"})
			}
		}
		for name, v := range obj {
			if sub, ok := prop.Properties[name]; ok {
				errs = append(errs, checkValue(field+"."+name, sub, v)...)
			}
		}
		return errs
	}

	return nil
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
