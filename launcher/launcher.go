// Package launcher is the entry point of the Google Cloud Platform plugin.
//
// A host creates a Launcher, initializes it once with its configuration
// directory, and then reads provider metadata or creates providers:
//
//	l := launcher.New()
//	if err := l.Initialize(configDir, nil); err != nil {
//	    return err
//	}
//	p, err := l.CreateCloudProvider(ctx, launcher.GoogleProviderID, map[string]string{
//	    "projectId": "my-project",
//	    "jsonKey":   "/etc/director/google.json",
//	}, language.English)
//
// Initialize is not meant to race with itself; callers run it during start-up.
// After it returns, every other method is safe for concurrent use.
package launcher

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/aharelick/director-google-plugin/internal/conf"
	"github.com/aharelick/director-google-plugin/internal/credentials"
	"github.com/aharelick/director-google-plugin/internal/metadata"
	"github.com/aharelick/director-google-plugin/internal/provider"
)

var (
	// ErrNotInitialized is returned by every method called before Initialize
	// succeeded.
	ErrNotInitialized = errors.New("launcher is not initialized")
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("launcher is already initialized")
)

// Errors of the packages behind the Launcher, for use with errors.Is.
var (
	ErrUnknownProvider           = metadata.ErrUnknownProvider
	ErrMissingCredentialProperty = credentials.ErrMissingCredentialProperty
	ErrCredentialValidation      = credentials.ErrValidationFailed
	ErrMissingKey                = conf.ErrMissingKey
	ErrTypeMismatch              = conf.ErrTypeMismatch
)

// GoogleProviderID is the id of the only provider of the plugin.
const GoogleProviderID = metadata.GoogleProviderID

type (
	CloudProvider               = provider.GoogleCloudProvider
	CloudProviderMetadata       = metadata.CloudProviderMetadata
	ConfigurationProperty       = metadata.ConfigurationProperty
	CredentialsProviderMetadata = metadata.CredentialsProviderMetadata
	Config                      = conf.Config
	ConfigParseError            = conf.ParseError
	CredentialValidationError   = credentials.ValidationError
)

// LocalizationContext carries host settings passed to Initialize.
type LocalizationContext struct {
	// Locale is used by CreateCloudProvider when the caller passes
	// language.Und.
	Locale language.Tag
}

// Launcher owns the merged configuration and creates providers.
type Launcher struct {
	registry    *metadata.Registry
	factoryOpts []provider.FactoryOption
	state       atomic.Pointer[state]
}

type state struct {
	config  *conf.Config
	factory *provider.Factory
	locale  language.Tag
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithValidator sets the validator used for provider credentials (useful for
// testing).
func WithValidator(v credentials.Validator) Option {
	return func(l *Launcher) {
		l.factoryOpts = append(l.factoryOpts, provider.WithValidator(v))
	}
}

// New returns an uninitialized Launcher.
func New(opts ...Option) *Launcher {
	l := &Launcher{registry: metadata.DefaultRegistry()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize loads the configuration in configDir on top of the embedded
// defaults. lctx may be nil. On failure the Launcher stays uninitialized and
// Initialize may be called again.
func (l *Launcher) Initialize(configDir string, lctx *LocalizationContext) error {
	if l.state.Load() != nil {
		return ErrAlreadyInitialized
	}

	config, err := conf.NewConfigSource(configDir).Read()
	if err != nil {
		return err
	}

	st := &state{
		config:  config,
		factory: provider.NewFactory(l.registry, config, l.factoryOpts...),
		locale:  language.Und,
	}
	if lctx != nil {
		st.locale = lctx.Locale
	}
	if !l.state.CompareAndSwap(nil, st) {
		return ErrAlreadyInitialized
	}

	slog.Debug("launcher initialized", "configDir", configDir)
	return nil
}

func (l *Launcher) current() (*state, error) {
	st := l.state.Load()
	if st == nil {
		return nil, ErrNotInitialized
	}
	return st, nil
}

// Config returns the merged configuration.
func (l *Launcher) Config() (*conf.Config, error) {
	st, err := l.current()
	if err != nil {
		return nil, err
	}
	return st.config, nil
}

// CloudProviderMetadata returns the metadata of every provider.
func (l *Launcher) CloudProviderMetadata() ([]metadata.CloudProviderMetadata, error) {
	if _, err := l.current(); err != nil {
		return nil, err
	}
	return l.registry.CloudProviderMetadata(), nil
}

// MetadataFor returns the metadata of the provider with id.
func (l *Launcher) MetadataFor(id string) (metadata.CloudProviderMetadata, error) {
	if _, err := l.current(); err != nil {
		return metadata.CloudProviderMetadata{}, err
	}
	return l.registry.MetadataFor(id)
}

// CreateCloudProvider validates the credentials in config against Google and
// returns a new provider. It blocks on the validation round trip.
func (l *Launcher) CreateCloudProvider(ctx context.Context, id string, config map[string]string, locale language.Tag) (*provider.GoogleCloudProvider, error) {
	st, err := l.current()
	if err != nil {
		return nil, err
	}
	if locale == language.Und {
		locale = st.locale
	}
	return st.factory.CreateCloudProvider(ctx, id, config, locale)
}
