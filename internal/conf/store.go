package conf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// PathSeparator separates section names from each other and from the leaf
// key in a configuration path.
const PathSeparator = "."

var (
	// ErrMissingKey is returned when a path is not present in the Config.
	ErrMissingKey = errors.New("missing configuration key")
	// ErrTypeMismatch is returned when the value at a path cannot be
	// converted to the requested type.
	ErrTypeMismatch = errors.New("configuration type mismatch")
)

// Config represents the immutable merged configuration. The zero value is an
// empty configuration.
type Config struct {
	root map[string]any
}

// Path joins path elements with PathSeparator.
func Path(elem ...string) string {
	return strings.Join(elem, PathSeparator)
}

// HasPath reports whether path resolves to a value or a section.
func (c *Config) HasPath(path string) bool {
	_, err := c.lookup(path)
	return err == nil
}

// GetString returns the raw text of the scalar at path.
func (c *Config) GetString(path string) (string, error) {
	v, err := c.lookup(path)
	if err != nil {
		return "", err
	}
	return scalarString(path, v)
}

// GetInt returns the integer at path. Strings holding a base-10 integer
// literal are accepted.
func (c *Config) GetInt(path string) (int, error) {
	v, err := c.lookup(path)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return 0, fmt.Errorf("%w: %s: %d overflows int", ErrTypeMismatch, path, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrTypeMismatch, path, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s: %T is not an integer", ErrTypeMismatch, path, v)
	}
}

// GetDuration returns the integer at path multiplied by unit.
func (c *Config) GetDuration(path string, unit time.Duration) (time.Duration, error) {
	n, err := c.GetInt(path)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * unit, nil
}

// GetStringMap returns a copy of the section at path with every entry
// rendered as text. Nested sections are a type mismatch.
func (c *Config) GetStringMap(path string) (map[string]string, error) {
	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	section, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a section", ErrTypeMismatch, path)
	}
	out := make(map[string]string, len(section))
	for k, e := range section {
		s, err := scalarString(Path(path, k), e)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// Keys returns the paths of all leaf values, sorted.
func (c *Config) Keys() []string {
	var keys []string
	var walk func(prefix string, section map[string]any)
	walk = func(prefix string, section map[string]any) {
		for k, v := range section {
			p := k
			if prefix != "" {
				p = Path(prefix, k)
			}
			if sub, ok := v.(map[string]any); ok {
				walk(p, sub)
				continue
			}
			keys = append(keys, p)
		}
	}
	walk("", c.root)
	sort.Strings(keys)
	return keys
}

func (c *Config) lookup(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMissingKey)
	}
	var current any = c.root
	for _, elem := range strings.Split(path, PathSeparator) {
		section, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, path)
		}
		current, ok = section[elem]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, path)
		}
	}
	return current, nil
}

func scalarString(path string, v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any, []map[string]any:
		return "", fmt.Errorf("%w: %s is not a scalar", ErrTypeMismatch, path)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err)
	}
	return s, nil
}
