package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// ErrValidationFailed matches every *ValidationError.
var ErrValidationFailed = errors.New("credential validation failed")

// ValidationError reports credentials rejected by Google, or that could not
// be checked at all.
type ValidationError struct {
	ProjectID string
	Step      string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("credential validation failed for project %q: %s: %v", e.ProjectID, e.Step, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Validator checks credentials against the identity service and returns a
// token source for the validated credentials.
type Validator interface {
	Validate(ctx context.Context, creds Credentials) (oauth2.TokenSource, error)
}

// GoogleValidator validates credentials by fetching an access token and
// reading the project through the Compute Engine API.
type GoogleValidator struct {
	scopes      []string
	endpoint    string
	findDefault func(ctx context.Context, scopes ...string) (*google.Credentials, error)
}

// ValidatorOption configures a GoogleValidator.
type ValidatorOption func(*GoogleValidator)

// WithScopes sets the OAuth2 scopes requested for the token.
func WithScopes(scopes ...string) ValidatorOption {
	return func(v *GoogleValidator) {
		v.scopes = scopes
	}
}

// WithEndpoint sets the Compute Engine API endpoint (useful for testing).
func WithEndpoint(endpoint string) ValidatorOption {
	return func(v *GoogleValidator) {
		v.endpoint = endpoint
	}
}

// WithDefaultCredentialsFinder replaces the lookup of Application Default
// Credentials (useful for testing).
func WithDefaultCredentialsFinder(find func(ctx context.Context, scopes ...string) (*google.Credentials, error)) ValidatorOption {
	return func(v *GoogleValidator) {
		v.findDefault = find
	}
}

// NewGoogleValidator creates a GoogleValidator with optional configuration.
func NewGoogleValidator(opts ...ValidatorOption) *GoogleValidator {
	v := &GoogleValidator{
		scopes:      []string{compute.ComputeScope},
		findDefault: google.FindDefaultCredentials,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate resolves creds, fetches a token and reads the project. Nothing is
// retried.
func (v *GoogleValidator) Validate(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	slog.Debug("validating credentials", "project", creds.ProjectID, "source", creds.Source())

	gc, err := v.resolveCredentials(ctx, creds, v.scopes...)
	if err != nil {
		return nil, &ValidationError{ProjectID: creds.ProjectID, Step: "resolve credentials", Err: err}
	}

	ts := oauth2.ReuseTokenSource(nil, gc.TokenSource)
	if _, err := ts.Token(); err != nil {
		return nil, &ValidationError{ProjectID: creds.ProjectID, Step: "fetch access token", Err: err}
	}

	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if v.endpoint != "" {
		opts = append(opts, option.WithEndpoint(v.endpoint))
	}
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, &ValidationError{ProjectID: creds.ProjectID, Step: "create compute client", Err: err}
	}
	if _, err := svc.Projects.Get(creds.ProjectID).Context(ctx).Do(); err != nil {
		return nil, &ValidationError{ProjectID: creds.ProjectID, Step: "get project", Err: err}
	}

	slog.Debug("validated credentials", "project", creds.ProjectID)
	return ts, nil
}

func (v *GoogleValidator) resolveCredentials(ctx context.Context, creds Credentials, scopes ...string) (*google.Credentials, error) {
	if creds.Source() == SourceDefault {
		return v.findDefault(ctx, scopes...)
	}
	data, err := creds.KeyMaterial()
	if err != nil {
		return nil, err
	}
	return google.CredentialsFromJSON(ctx, data, scopes...)
}
