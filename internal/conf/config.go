package conf

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigFileName is the name of the override file looked up in the
	// configuration directory.
	ConfigFileName = "google.toml"
	// HOCONFileName is the name of the nested-block override file. It is
	// applied before ConfigFileName.
	HOCONFileName = "google.conf"
	// DropInDirName is the name of the drop-in directory next to ConfigFileName.
	DropInDirName = ConfigFileName + ".d"
)

// Well-known keys of the base configuration.
const (
	ImageAliasesSection          = "google.compute.imageAliases"
	ComputePollingTimeoutKey     = "google.compute.pollingTimeoutSeconds"
	ComputeMaxPollingIntervalKey = "google.compute.maxPollingIntervalSeconds"
)

// defaultConfig contains the embedded base configuration file.
// It is compiled into the binary and is always the first layer; the override
// file and drop-in files are merged on top of it.
//
//go:embed default.toml
var defaultConfig string

// ParseError reports a configuration document that could not be parsed.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigSource orchestrates loading configuration from multiple sources.
// See the Read method.
type ConfigSource struct {
	HOCONPath string
	Path      string
	DropInDir string
}

// NewConfigSource returns the ConfigSource for the override file and drop-in
// directory inside dir.
func NewConfigSource(dir string) *ConfigSource {
	return &ConfigSource{
		HOCONPath: filepath.Join(dir, HOCONFileName),
		Path:      filepath.Join(dir, ConfigFileName),
		DropInDir: filepath.Join(dir, DropInDirName),
	}
}

// Read loads and returns the complete Config by merging all layers:
// 1. Embedded defaults
// 2. HOCON override file
// 3. TOML override file
// 4. Drop-in files
func (cs *ConfigSource) Read() (*Config, error) {
	// Start with embedded defaults
	resolved, err := parseDocument(defaultConfig)
	if err != nil {
		slog.Error("failed to parse embedded defaults", "error", err)
		return nil, &ParseError{Source: "embedded defaults", Err: err}
	}

	// Load override files
	for _, override := range []struct {
		path  string
		parse func(string) (map[string]any, error)
	}{
		{cs.HOCONPath, parseHOCONDocument},
		{cs.Path, parseDocument},
	} {
		if override.path == "" {
			continue
		}
		doc, err := readOverride(override.path, override.parse)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			resolved = Merge(resolved, doc)
			slog.Debug("merged override configuration", "path", override.path)
		}
	}

	// Load drop-in files
	dropIns, err := cs.parseDropInFiles()
	if err != nil {
		slog.Error("failed to load drop-in files", "error", err, "dir", cs.DropInDir)
		return nil, err
	}

	// Apply each drop-in file in order
	for _, dropIn := range dropIns {
		resolved = Merge(resolved, dropIn)
	}

	return &Config{root: resolved}, nil
}

// readOverride parses the file at path. A missing file yields a nil document.
func readOverride(path string, parse func(string) (map[string]any, error)) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		slog.Debug("no override configuration", "path", path)
		return nil, nil
	}

	doc, err := parse(string(data))
	if err != nil {
		// Existing but malformed file should result in failure (let's not hide
		// problems from the users).
		return nil, &ParseError{Source: path, Err: err}
	}
	return doc, nil
}

// Default returns the Config built from the embedded defaults only.
func Default() (*Config, error) {
	doc, err := parseDocument(defaultConfig)
	if err != nil {
		return nil, &ParseError{Source: "embedded defaults", Err: err}
	}
	return &Config{root: doc}, nil
}

// Parse builds a Config from a single TOML document.
func Parse(data string) (*Config, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, &ParseError{Source: "document", Err: err}
	}
	return &Config{root: doc}, nil
}

// parseDocument parses a TOML string into a section tree.
func parseDocument(data string) (map[string]any, error) {
	doc := map[string]any{}

	if err := toml.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return doc, nil
}

// findDropInFiles finds and returns sorted paths to drop-in configuration files.
// Returns nil if the drop-in directory doesn't exist (not an error).
func (cs *ConfigSource) findDropInFiles() ([]string, error) {
	if _, err := os.Stat(cs.DropInDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(cs.DropInDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read drop-in directory %s: %w", cs.DropInDir, err)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".toml") {
			filenames = append(filenames, filepath.Join(cs.DropInDir, entry.Name()))
		}
	}

	sort.Strings(filenames)

	return filenames, nil
}

// parseDropInFiles loads .toml files.
func (cs *ConfigSource) parseDropInFiles() ([]map[string]any, error) {
	paths, err := cs.findDropInFiles()
	if err != nil {
		return nil, err
	}

	var docs []map[string]any
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		doc, err := parseDocument(string(data))
		if err != nil {
			return nil, &ParseError{Source: path, Err: err}
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
