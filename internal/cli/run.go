package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gitvector/issuesync/internal/config"
	"github.com/gitvector/issuesync/internal/ghoutput"
	"github.com/gitvector/issuesync/internal/github"
	"github.com/gitvector/issuesync/internal/store"
	"github.com/gitvector/issuesync/internal/syncer"
)

// newRunCommand creates "run", which executes one full sync of the
// configured repository into the target collection.
func newRunCommand(opts *Options) *cobra.Command {
	defaults := config.Default()

	var (
		configPath      string
		weaviateURL     string
		weaviateAPIKey  string
		githubToken     string
		owner           string
		repo            string
		className       string
		vectorizer      string
		batchSize       int
		state           string
		includeComments bool
		timeout         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync GitHub issues into the Weaviate collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			// A .env file is a no-op when absent, safe in production.
			_ = godotenv.Load()

			envCfg := inputsEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return fmt.Errorf("parse environment: %w", err)
			}

			cfg := config.Default()
			if !cmd.Flags().Changed("config") && envCfg.ConfigPath != "" {
				configPath = envCfg.ConfigPath
			}
			if configPath != "" {
				if err := cfg.MergeFile(configPath); err != nil {
					return err
				}
			}

			applyString := func(flag string, envKey, envVal string, dst *string, flagVal string) {
				if cmd.Flags().Changed(flag) {
					*dst = flagVal
					return
				}
				if envPresent(envKey) {
					*dst = envVal
				}
			}
			applyString("weaviate-url", "INPUT_WEAVIATE_URL", envCfg.WeaviateURL, &cfg.WeaviateURL, weaviateURL)
			applyString("weaviate-api-key", "INPUT_WEAVIATE_API_KEY", envCfg.WeaviateAPIKey, &cfg.WeaviateAPIKey, weaviateAPIKey)
			applyString("github-token", "INPUT_GITHUB_TOKEN", envCfg.GitHubToken, &cfg.GitHubToken, githubToken)
			applyString("owner", "INPUT_TARGET_REPO_OWNER", envCfg.Owner, &cfg.Owner, owner)
			applyString("repo", "INPUT_TARGET_REPO_NAME", envCfg.Repo, &cfg.Repo, repo)
			applyString("class", "INPUT_CLASS_NAME", envCfg.ClassName, &cfg.ClassName, className)
			applyString("vectorizer", "INPUT_VECTORIZER", envCfg.Vectorizer, &cfg.Vectorizer, vectorizer)
			applyString("state", "INPUT_STATE", envCfg.State, &cfg.State, state)

			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = batchSize
			} else if envPresent("INPUT_BATCH_SIZE") {
				cfg.BatchSize = envCfg.BatchSize
			}
			if cmd.Flags().Changed("include-comments") {
				cfg.IncludeComments = includeComments
			} else if envPresent("INPUT_INCLUDE_COMMENTS") {
				cfg.IncludeComments = envCfg.IncludeComments
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RunTimeout = config.Duration(timeout)
			} else if envPresent("INPUT_RUN_TIMEOUT") {
				d, err := time.ParseDuration(strings.TrimSpace(envCfg.RunTimeout))
				if err != nil {
					return fmt.Errorf("parse INPUT_RUN_TIMEOUT: %w", err)
				}
				cfg.RunTimeout = config.Duration(d)
			}

			// Default the repository coordinates to the current repo the
			// Actions runner exposes.
			if cfg.Owner == "" || cfg.Repo == "" {
				if o, n, ok := config.SplitRepository(envCfg.Repository); ok {
					if cfg.Owner == "" {
						cfg.Owner = o
					}
					if cfg.Repo == "" {
						cfg.Repo = n
					}
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			source, err := github.NewClient(logger, cfg.GitHubToken, cfg.Repository())
			if err != nil {
				return err
			}
			client, err := store.Connect(store.Options{URL: cfg.WeaviateURL, APIKey: cfg.WeaviateAPIKey})
			if err != nil {
				return err
			}

			run := syncer.New(cfg, logger,
				syncer.NewGitHubSource(source),
				store.NewSchemaManager(client, logger, cfg.ClassName, cfg.Vectorizer),
				store.NewUpserter(client, logger, cfg.ClassName, cfg.BatchSize),
			)

			summary, runErr := run.Run(cmd.Context())
			printSummary(cmd, summary)
			if err := writeOutputs(summary); err != nil {
				logger.Warn("could not write action outputs", "error", err)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&weaviateURL, "weaviate-url", defaults.WeaviateURL, "Weaviate endpoint URL")
	cmd.Flags().StringVar(&weaviateAPIKey, "weaviate-api-key", defaults.WeaviateAPIKey, "Weaviate API key")
	cmd.Flags().StringVar(&githubToken, "github-token", defaults.GitHubToken, "GitHub API token")
	cmd.Flags().StringVar(&owner, "owner", defaults.Owner, "Repository owner to fetch issues from")
	cmd.Flags().StringVar(&repo, "repo", defaults.Repo, "Repository name to fetch issues from")
	cmd.Flags().StringVar(&className, "class", defaults.ClassName, "Target Weaviate class name")
	cmd.Flags().StringVar(&vectorizer, "vectorizer", defaults.Vectorizer, "Vectorizer module bound to the named vectors")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaults.BatchSize, "Number of objects per upsert batch")
	cmd.Flags().StringVar(&state, "state", defaults.State, "Issue state filter (open, closed, all)")
	cmd.Flags().BoolVar(&includeComments, "include-comments", defaults.IncludeComments, "Fetch issue comments and fold them into the record")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Duration(defaults.RunTimeout), "Overall run timeout (0 = no limit)")

	return cmd
}

// printSummary writes the human-readable run summary to the command output.
func printSummary(cmd *cobra.Command, sum syncer.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "repository: %s\n", sum.Repository)
	fmt.Fprintf(out, "issues fetched: %d\n", sum.Fetched)
	fmt.Fprintf(out, "issues stored: %d\n", sum.Stored)
	fmt.Fprintf(out, "issues failed: %d\n", len(sum.Failed))
	for _, f := range sum.Failed {
		fmt.Fprintf(out, "  %s\n", f)
	}
}

// writeOutputs publishes the summary as GitHub Actions step outputs.
func writeOutputs(sum syncer.Summary) error {
	values := map[string]string{
		"issues_fetched": strconv.Itoa(sum.Fetched),
		"issues_stored":  strconv.Itoa(sum.Stored),
		"issues_failed":  strconv.Itoa(len(sum.Failed)),
	}
	if len(sum.Failed) > 0 {
		ids := make([]string, 0, len(sum.Failed))
		for _, f := range sum.Failed {
			ids = append(ids, f.IssueID)
		}
		values["failed_issue_ids"] = strings.Join(ids, "\n")
	}
	return ghoutput.Write(values)
}
