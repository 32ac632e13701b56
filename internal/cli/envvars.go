package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// inputsEnv defines run defaults sourced from the INPUT_* variables a
// GitHub Actions runner injects for action inputs, plus the standard
// GITHUB_REPOSITORY fallback for the target repository.
type inputsEnv struct {
	// GitHubToken is the tracker credential from INPUT_GITHUB_TOKEN.
	GitHubToken string `env:"INPUT_GITHUB_TOKEN"`
	// WeaviateURL is the store endpoint from INPUT_WEAVIATE_URL.
	WeaviateURL string `env:"INPUT_WEAVIATE_URL"`
	// WeaviateAPIKey is the store credential from INPUT_WEAVIATE_API_KEY.
	WeaviateAPIKey string `env:"INPUT_WEAVIATE_API_KEY"`
	// Owner is the target repository owner from INPUT_TARGET_REPO_OWNER.
	Owner string `env:"INPUT_TARGET_REPO_OWNER"`
	// Repo is the target repository name from INPUT_TARGET_REPO_NAME.
	Repo string `env:"INPUT_TARGET_REPO_NAME"`
	// ClassName is the collection name from INPUT_CLASS_NAME.
	ClassName string `env:"INPUT_CLASS_NAME"`
	// Vectorizer is the vectorizer module from INPUT_VECTORIZER.
	Vectorizer string `env:"INPUT_VECTORIZER"`
	// BatchSize is the upsert batch size from INPUT_BATCH_SIZE.
	BatchSize int `env:"INPUT_BATCH_SIZE"`
	// State is the issue state filter from INPUT_STATE.
	State string `env:"INPUT_STATE"`
	// IncludeComments toggles comment fetching from INPUT_INCLUDE_COMMENTS.
	IncludeComments bool `env:"INPUT_INCLUDE_COMMENTS"`
	// RunTimeout is the overall run timeout from INPUT_RUN_TIMEOUT.
	RunTimeout string `env:"INPUT_RUN_TIMEOUT"`
	// Repository is the owner/repo slug from GITHUB_REPOSITORY, used when
	// no explicit target repository is configured.
	Repository string `env:"GITHUB_REPOSITORY"`
	// ConfigPath is an optional YAML config file from ISSUESYNC_CONFIG.
	ConfigPath string `env:"ISSUESYNC_CONFIG"`
}

// parseEnv fills target from the environment via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
