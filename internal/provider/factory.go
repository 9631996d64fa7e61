package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/aharelick/director-google-plugin/internal/conf"
	"github.com/aharelick/director-google-plugin/internal/credentials"
	"github.com/aharelick/director-google-plugin/internal/l10n"
	"github.com/aharelick/director-google-plugin/internal/metadata"
)

// Factory creates validated GoogleCloudProvider instances.
type Factory struct {
	registry  *metadata.Registry
	config    *conf.Config
	validator credentials.Validator
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithValidator sets the credentials validator (useful for testing).
func WithValidator(v credentials.Validator) FactoryOption {
	return func(f *Factory) {
		f.validator = v
	}
}

// NewFactory creates a Factory that seeds providers with config.
func NewFactory(registry *metadata.Registry, config *conf.Config, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry:  registry,
		config:    config,
		validator: credentials.NewGoogleValidator(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCloudProvider validates the credentials in callerConfig and returns a
// new provider. Every call validates again and returns a distinct instance.
func (f *Factory) CreateCloudProvider(ctx context.Context, id string, callerConfig map[string]string, locale language.Tag) (*GoogleCloudProvider, error) {
	md, err := f.registry.MetadataFor(id)
	if err != nil {
		return nil, err
	}

	creds, err := credentials.FromConfig(callerConfig)
	if err != nil {
		return nil, err
	}

	ts, err := f.validator.Validate(ctx, creds)
	if err == nil && ts == nil {
		err = errors.New("validator returned no token source")
	}
	if err != nil && !errors.Is(err, credentials.ErrValidationFailed) {
		err = &credentials.ValidationError{ProjectID: creds.ProjectID, Step: "validate", Err: err}
	}
	if err != nil {
		slog.Debug("credentials rejected", "provider", id, "project", creds.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to create %s provider: %w", id, err)
	}

	p := newGoogleCloudProvider(md, creds, ts, f.config, l10n.For(locale))
	slog.Debug("created cloud provider", "provider", id, "project", creds.ProjectID, "instance", p.InstanceID())
	return p, nil
}
