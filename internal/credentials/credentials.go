// Package credentials extracts Google credentials from a caller supplied
// configuration and validates them against Google before they are used.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aharelick/director-google-plugin/internal/metadata"
)

// ErrMissingCredentialProperty is returned when a required credentials
// property is absent from the caller configuration.
var ErrMissingCredentialProperty = errors.New("missing credentials property")

// Source identifies where the key material of Credentials comes from.
type Source string

const (
	SourceInline  Source = "inline"
	SourceFile    Source = "file"
	SourceDefault Source = "application-default"
)

// Credentials are the unvalidated credentials of a caller.
type Credentials struct {
	ProjectID string
	// JSONKey is either inline service account JSON, the path of a file
	// holding it, or empty for Application Default Credentials.
	JSONKey string
}

// FromConfig extracts Credentials from a caller configuration keyed by the
// credentials property config keys.
func FromConfig(config map[string]string) (Credentials, error) {
	var creds Credentials
	for _, p := range metadata.Google().Credentials.Properties {
		value := strings.TrimSpace(config[p.ConfigKey])
		if p.Required && value == "" {
			return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentialProperty, p.ConfigKey)
		}
		switch p.ConfigKey {
		case metadata.ProjectIDProperty.ConfigKey:
			creds.ProjectID = value
		case metadata.JSONKeyProperty.ConfigKey:
			creds.JSONKey = value
		}
	}
	return creds, nil
}

// Source reports where the key material comes from.
func (c Credentials) Source() Source {
	switch {
	case c.JSONKey == "":
		return SourceDefault
	case strings.HasPrefix(c.JSONKey, "{"):
		return SourceInline
	default:
		return SourceFile
	}
}

// KeyMaterial returns the service account JSON. It is nil for
// Application Default Credentials.
func (c Credentials) KeyMaterial() ([]byte, error) {
	switch c.Source() {
	case SourceInline:
		return []byte(c.JSONKey), nil
	case SourceFile:
		// #nosec G304
		data, err := os.ReadFile(c.JSONKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON key: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

// String never includes key material.
func (c Credentials) String() string {
	return fmt.Sprintf("project=%s source=%s", c.ProjectID, c.Source())
}
