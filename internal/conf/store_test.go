package conf

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const storeFixture = `
name = "plugin"
enabled = true
ratio = 0.5
port = 8080
portText = " 9090 "
notANumber = "ninety"
zones = ["a", "b"]

[google.compute]
pollingTimeoutSeconds = 300

[google.compute.imageAliases]
centos6 = "centos-6"
rhel6 = "rhel-6"
`

func mustParse(t *testing.T, data string) *Config {
	t.Helper()
	config, err := Parse(data)
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return config
}

func TestConfig_GetString(t *testing.T) {
	config := mustParse(t, storeFixture)

	tests := []struct {
		path    string
		want    string
		wantErr error
	}{
		{path: "name", want: "plugin"},
		{path: "enabled", want: "true"},
		{path: "ratio", want: "0.5"},
		{path: "port", want: "8080"},
		{path: "google.compute.imageAliases.rhel6", want: "rhel-6"},
		{path: "google.compute.imageAliases.ubuntu", wantErr: ErrMissingKey},
		{path: "google.compute.pollingTimeoutSeconds.value", wantErr: ErrMissingKey},
		{path: "", wantErr: ErrMissingKey},
		{path: "google.compute", wantErr: ErrTypeMismatch},
		{path: "zones", wantErr: ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := config.GetString(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetString(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetString(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfig_GetInt(t *testing.T) {
	config := mustParse(t, storeFixture)

	tests := []struct {
		path    string
		want    int
		wantErr error
	}{
		{path: "port", want: 8080},
		{path: "portText", want: 9090},
		{path: "google.compute.pollingTimeoutSeconds", want: 300},
		{path: "notANumber", wantErr: ErrTypeMismatch},
		{path: "ratio", wantErr: ErrTypeMismatch},
		{path: "enabled", wantErr: ErrTypeMismatch},
		{path: "google.compute", wantErr: ErrTypeMismatch},
		{path: "missing", wantErr: ErrMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := config.GetInt(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetInt(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetInt(%q) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfig_GetIntRange(t *testing.T) {
	type rangeTest struct {
		name    string
		value   int64
		want    int
		wantErr error
	}
	tests := []rangeTest{
		{name: "max int", value: int64(math.MaxInt), want: math.MaxInt},
		{name: "min int", value: int64(math.MinInt), want: math.MinInt},
	}
	// int is narrower than int64 on 32-bit platforms.
	if limit := int64(math.MaxInt); limit < math.MaxInt64 {
		tests = append(tests,
			rangeTest{name: "above max int", value: limit + 1, wantErr: ErrTypeMismatch},
			rangeTest{name: "below min int", value: -limit - 2, wantErr: ErrTypeMismatch},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{root: map[string]any{"value": tt.value}}
			got, err := config.GetInt("value")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetInt() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfig_GetDuration(t *testing.T) {
	config := mustParse(t, storeFixture)

	got, err := config.GetDuration("google.compute.pollingTimeoutSeconds", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5*time.Minute {
		t.Errorf("GetDuration() = %v, want 5m", got)
	}
}

func TestConfig_GetStringMap(t *testing.T) {
	config := mustParse(t, storeFixture)

	aliases, err := config.GetStringMap("google.compute.imageAliases")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"centos6": "centos-6", "rhel6": "rhel-6"}
	if diff := cmp.Diff(want, aliases); diff != "" {
		t.Errorf("GetStringMap() mismatch (-want +got):\n%s", diff)
	}

	// The returned map is a copy.
	aliases["centos6"] = "changed"
	if got, _ := config.GetString("google.compute.imageAliases.centos6"); got != "centos-6" {
		t.Errorf("config modified through GetStringMap result: %q", got)
	}

	if _, err := config.GetStringMap("google"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for nested sections, got %v", err)
	}
	if _, err := config.GetStringMap("name"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for scalar, got %v", err)
	}
}

func TestConfig_Keys(t *testing.T) {
	config := mustParse(t, `
b = 1
[a.c]
d = "x"
`)
	want := []string{"a.c.d", "b"}
	if diff := cmp.Diff(want, config.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if !config.HasPath("a.c") || config.HasPath("a.x") {
		t.Errorf("HasPath() mismatch")
	}
}

func TestConfig_ZeroValue(t *testing.T) {
	var config Config
	if _, err := config.GetString("anything"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
	if keys := config.Keys(); len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}
