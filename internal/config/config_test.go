package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.WeaviateURL = "https://cluster.weaviate.cloud"
	cfg.GitHubToken = "ghp_test"
	cfg.Owner = "octo"
	cfg.Repo = "widgets"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.ClassName != "GitHubIssue" {
		t.Fatalf("class name default: got %q", cfg.ClassName)
	}
	if cfg.Vectorizer != "text2vec-weaviate" {
		t.Fatalf("vectorizer default: got %q", cfg.Vectorizer)
	}
	if cfg.BatchSize != 100 {
		t.Fatalf("batch size default: got %d", cfg.BatchSize)
	}
	if cfg.State != StateAll {
		t.Fatalf("state default: got %q", cfg.State)
	}
	if !cfg.IncludeComments {
		t.Fatal("comments should be included by default")
	}
	if cfg.RunTimeout != 0 {
		t.Fatalf("run timeout default: got %s", cfg.RunTimeout)
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsAllMissingInputsAtOnce(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	want := []string{"github token", "repository name", "repository owner", "weaviate url"}
	if len(cerr.Missing) != len(want) {
		t.Fatalf("missing inputs: want=%d got=%v", len(want), cerr.Missing)
	}
	for i, name := range want {
		if cerr.Missing[i] != name {
			t.Fatalf("missing[%d]: want=%q got=%q", i, name, cerr.Missing[i])
		}
	}
	if len(cerr.Invalid) != 0 {
		t.Fatalf("unexpected invalid entries: %v", cerr.Invalid)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, want: "batch size must be positive"},
		{name: "negative batch size", mutate: func(c *Config) { c.BatchSize = -5 }, want: "batch size must be positive"},
		{name: "oversized batch", mutate: func(c *Config) { c.BatchSize = 250 }, want: "batch size must be at most 100"},
		{name: "unknown state", mutate: func(c *Config) { c.State = "merged" }, want: "state must be open, closed or all"},
		{name: "negative timeout", mutate: func(c *Config) { c.RunTimeout = Duration(-time.Second) }, want: "run timeout must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateWhitespaceOnlyValuesAreMissing(t *testing.T) {
	cfg := validConfig()
	cfg.GitHubToken = "   "
	err := cfg.Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if len(cerr.Missing) != 1 || cerr.Missing[0] != "github token" {
		t.Fatalf("missing inputs: got %v", cerr.Missing)
	}
}

func TestMergeFileOverlaysOnlyPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issuesync.yaml")
	data := `
weaviateUrl: https://cluster.weaviate.cloud
owner: octo
repo: widgets
batchSize: 50
state: open
includeComments: false
runTimeout: 5m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg := Default()
	cfg.GitHubToken = "ghp_preexisting"
	if err := cfg.MergeFile(path); err != nil {
		t.Fatalf("MergeFile: %v", err)
	}

	if cfg.GitHubToken != "ghp_preexisting" {
		t.Fatalf("absent field was overwritten: %q", cfg.GitHubToken)
	}
	if cfg.WeaviateURL != "https://cluster.weaviate.cloud" || cfg.Owner != "octo" || cfg.Repo != "widgets" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.BatchSize != 50 || cfg.State != StateOpen || cfg.IncludeComments {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.RunTimeout != Duration(5*time.Minute) {
		t.Fatalf("run timeout: got %s", cfg.RunTimeout)
	}
	if cfg.ClassName != "GitHubIssue" {
		t.Fatalf("default lost on merge: %q", cfg.ClassName)
	}
}

func TestMergeFileMissingFile(t *testing.T) {
	cfg := Default()
	if err := cfg.MergeFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestMergeFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issuesync.yaml")
	if err := os.WriteFile(path, []byte("runTimeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	cfg := Default()
	err := cfg.MergeFile(path)
	if err == nil {
		t.Fatal("expected error for an unparsable duration")
	}
	if !strings.Contains(err.Error(), "parse duration") {
		t.Fatalf("error %q does not mention the duration", err)
	}
}

func TestMergeFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("state: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	cfg := Default()
	if err := cfg.MergeFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRepositorySlug(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Repository(); got != "octo/widgets" {
		t.Fatalf("Repository(): got %q", got)
	}
}

func TestSplitRepository(t *testing.T) {
	cases := []struct {
		in    string
		owner string
		name  string
		ok    bool
	}{
		{in: "octo/widgets", owner: "octo", name: "widgets", ok: true},
		{in: " octo/widgets ", owner: "octo", name: "widgets", ok: true},
		{in: "octo/group/widgets", owner: "octo", name: "group/widgets", ok: true},
		{in: "octo", ok: false},
		{in: "/widgets", ok: false},
		{in: "octo/", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range cases {
		owner, name, ok := SplitRepository(tc.in)
		if ok != tc.ok {
			t.Fatalf("SplitRepository(%q): ok want=%v got=%v", tc.in, tc.ok, ok)
		}
		if ok && (owner != tc.owner || name != tc.name) {
			t.Fatalf("SplitRepository(%q): got %q/%q", tc.in, owner, name)
		}
	}
}
