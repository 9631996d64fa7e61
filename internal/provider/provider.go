// Package provider implements the Google Cloud Platform cloud provider and
// the factory that hands out validated instances of it.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"

	"github.com/aharelick/director-google-plugin/internal/conf"
	"github.com/aharelick/director-google-plugin/internal/credentials"
	"github.com/aharelick/director-google-plugin/internal/l10n"
	"github.com/aharelick/director-google-plugin/internal/metadata"
)

// ErrUnknownImageAlias is returned when an image is neither a configured
// alias nor an image URL.
var ErrUnknownImageAlias = errors.New("unknown image alias")

// GoogleCloudProvider is an authenticated handle to Google Cloud Platform.
// Instances are owned by the caller that created them.
type GoogleCloudProvider struct {
	instanceID  uuid.UUID
	metadata    metadata.CloudProviderMetadata
	credentials credentials.Credentials
	tokenSource oauth2.TokenSource
	config      *conf.Config
	localizer   *l10n.Localizer
}

func newGoogleCloudProvider(md metadata.CloudProviderMetadata, creds credentials.Credentials, ts oauth2.TokenSource, config *conf.Config, localizer *l10n.Localizer) *GoogleCloudProvider {
	return &GoogleCloudProvider{
		instanceID:  uuid.New(),
		metadata:    md,
		credentials: creds,
		tokenSource: ts,
		config:      config,
		localizer:   localizer,
	}
}

// ID returns the provider id.
func (p *GoogleCloudProvider) ID() string {
	return p.metadata.ID
}

// InstanceID uniquely identifies this provider instance.
func (p *GoogleCloudProvider) InstanceID() uuid.UUID {
	return p.instanceID
}

// ProjectID returns the validated project.
func (p *GoogleCloudProvider) ProjectID() string {
	return p.credentials.ProjectID
}

// Metadata returns the provider metadata.
func (p *GoogleCloudProvider) Metadata() metadata.CloudProviderMetadata {
	return p.metadata
}

// Config returns the merged plugin configuration.
func (p *GoogleCloudProvider) Config() *conf.Config {
	return p.config
}

// Localizer returns the localizer for the locale the provider was created with.
func (p *GoogleCloudProvider) Localizer() *l10n.Localizer {
	return p.localizer
}

// TokenSource returns the token source of the validated credentials.
func (p *GoogleCloudProvider) TokenSource() oauth2.TokenSource {
	return p.tokenSource
}

// ComputeService returns a Compute Engine client authenticated with the
// provider credentials.
func (p *GoogleCloudProvider) ComputeService(ctx context.Context, opts ...option.ClientOption) (*compute.Service, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(p.tokenSource)}, opts...)
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	return svc, nil
}

// ImageAliases returns the configured image alias table.
func (p *GoogleCloudProvider) ImageAliases() (map[string]string, error) {
	return p.config.GetStringMap(conf.ImageAliasesSection)
}

// ResolveImage returns the image URL for an alias. Image URLs are returned
// unchanged.
func (p *GoogleCloudProvider) ResolveImage(image string) (string, error) {
	aliases, err := p.ImageAliases()
	if err != nil && !errors.Is(err, conf.ErrMissingKey) {
		return "", err
	}
	if url, ok := aliases[image]; ok {
		return url, nil
	}
	if strings.HasPrefix(image, "https://") || strings.Contains(image, "/global/images/") {
		return image, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownImageAlias, p.localizer.T("image alias %q is not configured", image))
}
