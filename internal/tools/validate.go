package tools

import (
	"encoding/json"
	"fmt"
	"math"
)

// paramSchema is the subset of JSON Schema the tool definitions use
type paramSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type propertySchema struct {
	Type string `json:"type"`
}

// validateArgs checks args against a tool's parameter schema before
// dispatch: required fields must be present and primitive types must match.
// Fields the schema does not know pass through untouched.
func validateArgs(schema, args json.RawMessage) error {
	var spec paramSchema
	if err := json.Unmarshal(schema, &spec); err != nil {
		return fmt.Errorf("invalid parameter schema: %w", err)
	}

	parsed := map[string]interface{}{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for _, name := range spec.Required {
		if _, ok := parsed[name]; !ok {
			return fmt.Errorf("missing required field: %s", name)
		}
	}

	for name, value := range parsed {
		prop, ok := spec.Properties[name]
		if !ok {
			continue
		}
		if err := checkType(name, prop.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name, want string, value interface{}) error {
	switch want {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s must be a string", name)
		}
	case "integer":
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("field %s must be an integer", name)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field %s must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %s must be a boolean", name)
		}
	}
	return nil
}
