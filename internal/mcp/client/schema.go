package client

import "encoding/json"

// schemaMap normalizes a tool input schema, which may arrive as a decoded
// map or as a typed schema value, into a plain map.
func schemaMap(v any) map[string]any {
	switch s := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return s
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return nil
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil
		}
		return m
	}
}
