// Package metadata describes the cloud provider exposed by the plugin and the
// configuration properties it accepts.
package metadata

import (
	"errors"
	"fmt"

	"github.com/aharelick/director-google-plugin/internal/l10n"
)

// ErrUnknownProvider is returned for provider ids that are not registered.
var ErrUnknownProvider = errors.New("unknown cloud provider")

// Widget hints how a host renders a property.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetPassword Widget = "password"
	WidgetFile     Widget = "file"
)

// ConfigurationProperty describes a single configuration key.
type ConfigurationProperty struct {
	ConfigKey    string
	Name         string
	Label        string
	Description  string
	Required     bool
	DefaultValue string
	Sensitive    bool
	Widget       Widget
}

// LocalizedLabel returns the property label translated by l.
func (p ConfigurationProperty) LocalizedLabel(l *l10n.Localizer) string {
	return l.TC(p.ConfigKey, p.Label)
}

// LocalizedDescription returns the property description translated by l.
func (p ConfigurationProperty) LocalizedDescription(l *l10n.Localizer) string {
	if p.Description == "" {
		return ""
	}
	return l.TC(p.ConfigKey, p.Description)
}

// CredentialsProviderMetadata describes the properties needed to
// authenticate against the cloud provider.
type CredentialsProviderMetadata struct {
	Properties []ConfigurationProperty
}

// CloudProviderMetadata describes a cloud provider.
type CloudProviderMetadata struct {
	ID                 string
	Name               string
	Description        string
	ProviderProperties []ConfigurationProperty
	Credentials        CredentialsProviderMetadata
}

// Property returns the provider or credentials property with configKey.
func (m CloudProviderMetadata) Property(configKey string) (ConfigurationProperty, bool) {
	for _, p := range m.ProviderProperties {
		if p.ConfigKey == configKey {
			return p, true
		}
	}
	for _, p := range m.Credentials.Properties {
		if p.ConfigKey == configKey {
			return p, true
		}
	}
	return ConfigurationProperty{}, false
}

func (m CloudProviderMetadata) clone() CloudProviderMetadata {
	c := m
	c.ProviderProperties = append([]ConfigurationProperty{}, m.ProviderProperties...)
	c.Credentials.Properties = append([]ConfigurationProperty{}, m.Credentials.Properties...)
	return c
}

// Registry holds the metadata of every provider the plugin can create.
type Registry struct {
	providers []CloudProviderMetadata
}

// NewRegistry returns a Registry holding the given providers.
func NewRegistry(providers ...CloudProviderMetadata) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.providers = append(r.providers, p.clone())
	}
	return r
}

// CloudProviderMetadata returns a copy of all registered provider metadata.
func (r *Registry) CloudProviderMetadata() []CloudProviderMetadata {
	out := make([]CloudProviderMetadata, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.clone())
	}
	return out
}

// MetadataFor returns the metadata of the provider with id.
func (r *Registry) MetadataFor(id string) (CloudProviderMetadata, error) {
	for _, p := range r.providers {
		if p.ID == id {
			return p.clone(), nil
		}
	}
	return CloudProviderMetadata{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
}
