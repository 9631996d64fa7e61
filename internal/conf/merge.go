package conf

// Merge returns a new section tree with overlay applied on top of base.
//
// Sections present in both trees are merged key by key, recursively. Any other
// value in overlay (scalars, arrays, or a section replacing a scalar) replaces
// the value in base. Keys present only in base are kept. Neither argument is
// modified.
func Merge(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = clone(v)
	}
	for k, v := range overlay {
		overlaySection, ok := v.(map[string]any)
		if !ok {
			merged[k] = clone(v)
			continue
		}
		if baseSection, ok := merged[k].(map[string]any); ok {
			merged[k] = Merge(baseSection, overlaySection)
			continue
		}
		merged[k] = clone(overlaySection)
	}
	return merged
}

// clone deep-copies sections and arrays so merged trees never share storage
// with their inputs.
func clone(v any) any {
	switch v := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, e := range v {
			c[k] = clone(e)
		}
		return c
	case []map[string]any:
		c := make([]map[string]any, len(v))
		for i, e := range v {
			c[i] = clone(e).(map[string]any)
		}
		return c
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = clone(e)
		}
		return c
	default:
		return v
	}
}
