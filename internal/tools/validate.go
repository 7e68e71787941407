package tools

import (
	"fmt"
	"math"
)

// validateArgs checks args against a JSON-schema parameters object:
// required fields must be present and declared properties must match
// their primitive type. Undeclared arguments pass through — the schema
// is a contract for the model, not an allowlist.
func validateArgs(args map[string]any, schema map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	if required, ok := schema["required"].([]string); ok {
		for _, field := range required {
			if _, exists := args[field]; !exists {
				return fmt.Errorf("missing required field %q", field)
			}
		}
	} else if required, ok := schema["required"].([]any); ok {
		for _, f := range required {
			field, _ := f.(string)
			if _, exists := args[field]; field != "" && !exists {
				return fmt.Errorf("missing required field %q", field)
			}
		}
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}

	for key, value := range args {
		propDef, ok := properties[key].(map[string]any)
		if !ok {
			continue
		}
		expected, ok := propDef["type"].(string)
		if !ok || expected == "" {
			continue
		}
		if err := validateType(value, expected); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	case "null":
		if value == nil {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		// JSON numbers decode as float64; whole values count as integers.
		return math.Trunc(v) == v
	}
	return false
}
