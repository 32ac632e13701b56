// Package config contains the loader and strongly typed model for the sync
// job configuration. It should be imported only by the cli layer and tests;
// inner components receive an already-built Config via their constructors.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Valid values for the issue state filter.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// maxBatchSize caps upsert batches at the source API page size.
const maxBatchSize = 100

// Config holds every runtime option a sync run needs. Keep it flat and
// simple; prefer primitive types over embedded structs.
type Config struct {
	// WeaviateURL is the target store endpoint, e.g. "https://my-cluster.weaviate.cloud".
	WeaviateURL string `yaml:"weaviateUrl"`
	// WeaviateAPIKey authenticates against the target store. Empty means
	// anonymous access (local instances).
	WeaviateAPIKey string `yaml:"weaviateApiKey"`
	// GitHubToken authenticates against the GitHub API.
	GitHubToken string `yaml:"githubToken"`
	// Owner is the repository owner to fetch issues from.
	Owner string `yaml:"owner"`
	// Repo is the repository name to fetch issues from.
	Repo string `yaml:"repo"`
	// ClassName is the Weaviate class the issues are stored under.
	ClassName string `yaml:"className"`
	// Vectorizer is the module name bound to every named vector.
	Vectorizer string `yaml:"vectorizer"`
	// BatchSize is the number of objects submitted per batch call.
	BatchSize int `yaml:"batchSize"`
	// State filters fetched issues: open, closed or all.
	State string `yaml:"state"`
	// IncludeComments controls whether issue comments are fetched and
	// folded into the stored record.
	IncludeComments bool `yaml:"includeComments"`
	// RunTimeout bounds the whole run; zero means no limit.
	RunTimeout Duration `yaml:"runTimeout"`
}

// Duration is a time.Duration that decodes from Go duration strings in
// YAML config files ("5m", "1h30m").
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns a Config populated with the documented defaults. Required
// fields (credentials, repository coordinates) are left empty and caught by
// Validate.
func Default() Config {
	return Config{
		ClassName:       "GitHubIssue",
		Vectorizer:      "text2vec-weaviate",
		BatchSize:       100,
		State:           StateAll,
		IncludeComments: true,
	}
}

// MergeFile overlays values from a YAML config file onto c. Fields absent
// from the file keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

// Repository returns the owner/name slug of the configured repository.
func (c Config) Repository() string {
	return c.Owner + "/" + c.Repo
}

// Validate checks the configuration before any network call is made. It
// reports every problem at once so a misconfigured workflow can be fixed in
// one pass.
func (c Config) Validate() error {
	cerr := &ConfigError{}

	if strings.TrimSpace(c.GitHubToken) == "" {
		cerr.Missing = append(cerr.Missing, "github token")
	}
	if strings.TrimSpace(c.WeaviateURL) == "" {
		cerr.Missing = append(cerr.Missing, "weaviate url")
	}
	if strings.TrimSpace(c.Owner) == "" {
		cerr.Missing = append(cerr.Missing, "repository owner")
	}
	if strings.TrimSpace(c.Repo) == "" {
		cerr.Missing = append(cerr.Missing, "repository name")
	}
	if strings.TrimSpace(c.ClassName) == "" {
		cerr.Missing = append(cerr.Missing, "class name")
	}

	if c.BatchSize <= 0 {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("batch size must be positive, got %d", c.BatchSize))
	} else if c.BatchSize > maxBatchSize {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("batch size must be at most %d, got %d", maxBatchSize, c.BatchSize))
	}
	switch c.State {
	case StateOpen, StateClosed, StateAll:
	default:
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("state must be open, closed or all, got %q", c.State))
	}
	if c.RunTimeout < 0 {
		cerr.Invalid = append(cerr.Invalid, "run timeout must not be negative")
	}

	if len(cerr.Missing) == 0 && len(cerr.Invalid) == 0 {
		return nil
	}
	sort.Strings(cerr.Missing)
	return cerr
}

// ConfigError describes an invalid configuration. It is always fatal and is
// produced before any network call.
type ConfigError struct {
	// Missing lists required options that were not provided.
	Missing []string
	// Invalid lists options that were provided with unusable values.
	Invalid []string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid configuration"
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required inputs: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, strings.Join(e.Invalid, "; "))
	}
	if len(parts) == 0 {
		return "invalid configuration"
	}
	return strings.Join(parts, "; ")
}

// SplitRepository splits an owner/name slug such as the GITHUB_REPOSITORY
// variable provided by Actions runners.
func SplitRepository(slug string) (owner, name string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(slug), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
