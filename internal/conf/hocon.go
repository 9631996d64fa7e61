package conf

import (
	"fmt"
	"strings"

	"github.com/gurkankaymak/hocon"
)

// parseHOCONDocument parses a nested-block document such as
//
//	google {
//	  compute {
//	    imageAliases { rhel6 = "...", ubuntu = "..." }
//	    pollingTimeoutSeconds = 300
//	  }
//	}
//
// into the same section tree parseDocument returns for TOML.
func parseHOCONDocument(data string) (map[string]any, error) {
	if strings.TrimSpace(data) == "" {
		return map[string]any{}, nil
	}

	parsed, err := hocon.ParseString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HOCON: %w", err)
	}

	root, ok := parsed.GetRoot().(hocon.Object)
	if !ok {
		return nil, fmt.Errorf("failed to parse HOCON: root is not an object")
	}
	return fromHOCONObject(root), nil
}

func fromHOCONObject(obj hocon.Object) map[string]any {
	doc := make(map[string]any, len(obj))
	for key, value := range obj {
		if v, ok := fromHOCONValue(value); ok {
			doc[key] = v
		}
	}
	return doc
}

// fromHOCONValue converts value to the types the TOML decoder produces.
// Values without a TOML counterpart are kept as their string form.
func fromHOCONValue(value hocon.Value) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case hocon.Object:
		return fromHOCONObject(v), true
	case hocon.Array:
		items := make([]any, 0, len(v))
		for _, item := range v {
			if converted, ok := fromHOCONValue(item); ok {
				items = append(items, converted)
			}
		}
		return items, true
	case hocon.String:
		return string(v), true
	case hocon.Int:
		return int64(v), true
	case hocon.Float64:
		return float64(v), true
	case hocon.Boolean:
		return bool(v), true
	default:
		return value.String(), true
	}
}
