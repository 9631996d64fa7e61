package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"

	"github.com/aharelick/director-google-plugin/internal/conf"
	"github.com/aharelick/director-google-plugin/internal/credentials"
	"github.com/aharelick/director-google-plugin/internal/l10n"
	"github.com/aharelick/director-google-plugin/internal/metadata"
)

func newTestProvider(t *testing.T, document string) *GoogleCloudProvider {
	t.Helper()
	config, err := conf.Parse(document)
	if err != nil {
		t.Fatal(err)
	}

	interval := initialPollingInterval
	initialPollingInterval = time.Millisecond
	t.Cleanup(func() { initialPollingInterval = interval })

	return newGoogleCloudProvider(
		metadata.Google(),
		credentials.Credentials{ProjectID: "my-project"},
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
		config,
		l10n.For(language.English),
	)
}

const providerFixture = `
[google.compute]
pollingTimeoutSeconds = 60
maxPollingIntervalSeconds = 1

[google.compute.imageAliases]
centos6 = "https://www.googleapis.com/compute/v1/projects/centos-cloud/global/images/centos-6-v20180611"
"ubuntu-14.04" = "https://www.googleapis.com/compute/v1/projects/ubuntu-os-cloud/global/images/ubuntu-1404-trusty-v20150128"
`

func TestGoogleCloudProvider_ResolveImage(t *testing.T) {
	p := newTestProvider(t, providerFixture)

	tests := []struct {
		image   string
		want    string
		wantErr error
	}{
		{image: "centos6", want: "https://www.googleapis.com/compute/v1/projects/centos-cloud/global/images/centos-6-v20180611"},
		{image: "ubuntu-14.04", want: "https://www.googleapis.com/compute/v1/projects/ubuntu-os-cloud/global/images/ubuntu-1404-trusty-v20150128"},
		{image: "https://example.com/image", want: "https://example.com/image"},
		{image: "projects/debian-cloud/global/images/debian-9", want: "projects/debian-cloud/global/images/debian-9"},
		{image: "rhel6", wantErr: ErrUnknownImageAlias},
	}

	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			got, err := p.ResolveImage(tt.image)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveImage() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoogleCloudProvider_ResolveImageWithoutAliases(t *testing.T) {
	p := newTestProvider(t, "")

	if _, err := p.ResolveImage("centos6"); !errors.Is(err, ErrUnknownImageAlias) {
		t.Errorf("expected ErrUnknownImageAlias, got %v", err)
	}
}

func TestGoogleCloudProvider_PollingBackOffValidation(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{name: "missing timeout", document: "[google.compute]\nmaxPollingIntervalSeconds = 8\n"},
		{name: "zero timeout", document: "[google.compute]\npollingTimeoutSeconds = 0\nmaxPollingIntervalSeconds = 8\n"},
		{name: "zero interval", document: "[google.compute]\npollingTimeoutSeconds = 10\nmaxPollingIntervalSeconds = 0\n"},
		{name: "negative interval", document: "[google.compute]\npollingTimeoutSeconds = 10\nmaxPollingIntervalSeconds = -1\n"},
		{name: "non-integer interval", document: "[google.compute]\npollingTimeoutSeconds = 10\nmaxPollingIntervalSeconds = \"soon\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.document)
			if _, err := p.PollingBackOff(context.Background()); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestGoogleCloudProvider_PollingBackOffIntervals(t *testing.T) {
	p := newTestProvider(t, providerFixture)

	b, err := p.PollingBackOff(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Intervals are randomized by up to 50% around a value capped at 1s.
	for i := 0; i < 20; i++ {
		next := b.NextBackOff()
		if next <= 0 || next > 1500*time.Millisecond {
			t.Fatalf("poll %d: NextBackOff() = %v, want within (0, 1.5s]", i, next)
		}
	}
}

func operationSequence(ops ...*compute.Operation) (OperationGetter, *int) {
	calls := 0
	return func(context.Context) (*compute.Operation, error) {
		op := ops[min(calls, len(ops)-1)]
		calls++
		return op, nil
	}, &calls
}

func TestGoogleCloudProvider_WaitForOperation(t *testing.T) {
	p := newTestProvider(t, providerFixture)

	get, calls := operationSequence(
		&compute.Operation{Name: "op-1", Status: "PENDING"},
		&compute.Operation{Name: "op-1", Status: "RUNNING"},
		&compute.Operation{Name: "op-1", Status: "DONE"},
	)

	op, err := p.WaitForOperation(context.Background(), get)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Status != "DONE" {
		t.Errorf("Status = %q, want DONE", op.Status)
	}
	if *calls != 3 {
		t.Errorf("expected 3 polls, got %d", *calls)
	}
}

func TestGoogleCloudProvider_WaitForOperationFailed(t *testing.T) {
	p := newTestProvider(t, providerFixture)

	get, calls := operationSequence(&compute.Operation{
		Name:   "op-2",
		Status: "DONE",
		Error: &compute.OperationError{Errors: []*compute.OperationErrorErrors{
			{Code: "QUOTA_EXCEEDED", Message: "Quota 'CPUS' exceeded."},
		}},
	})

	_, err := p.WaitForOperation(context.Background(), get)
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OperationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"QUOTA_EXCEEDED: Quota 'CPUS' exceeded."}, opErr.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
	if *calls != 1 {
		t.Errorf("expected a single poll, got %d", *calls)
	}
}

func TestGoogleCloudProvider_WaitForOperationGetError(t *testing.T) {
	p := newTestProvider(t, providerFixture)
	getErr := errors.New("googleapi: Error 404: not found")

	calls := 0
	_, err := p.WaitForOperation(context.Background(), func(context.Context) (*compute.Operation, error) {
		calls++
		return nil, getErr
	})
	if !errors.Is(err, getErr) {
		t.Fatalf("expected get error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected get errors not to be retried, got %d calls", calls)
	}
}

func TestGoogleCloudProvider_WaitForOperationEmpty(t *testing.T) {
	p := newTestProvider(t, providerFixture)

	calls := 0
	op, err := p.WaitForOperation(context.Background(), func(context.Context) (*compute.Operation, error) {
		calls++
		return nil, nil
	})
	if err == nil || err.Error() != "empty operation" {
		t.Fatalf("expected empty operation error, got %v", err)
	}
	if op != nil {
		t.Errorf("expected no operation, got %v", op)
	}
	if calls != 1 {
		t.Errorf("expected empty operations not to be retried, got %d calls", calls)
	}
}

func TestGoogleCloudProvider_WaitForOperationCanceled(t *testing.T) {
	p := newTestProvider(t, providerFixture)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	_, err := p.WaitForOperation(ctx, func(context.Context) (*compute.Operation, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return &compute.Operation{Name: "op-3", Status: "RUNNING"}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGoogleCloudProvider_ZoneOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compute/v1/projects/my-project/zones/us-central1-a/operations/op-9" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"op-9","status":"DONE"}`))
	}))
	defer server.Close()

	p := newTestProvider(t, providerFixture)
	svc, err := p.ComputeService(context.Background(), option.WithEndpoint(server.URL+"/compute/v1/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := p.WaitForOperation(context.Background(), p.ZoneOperation(svc, "us-central1-a", "op-9"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Name != "op-9" || op.Status != "DONE" {
		t.Errorf("unexpected operation %+v", op)
	}
}
