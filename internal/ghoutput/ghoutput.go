// Package ghoutput writes step outputs for GitHub Actions workflows.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Write appends outputs to the GITHUB_OUTPUT file when available. Outside of
// an Actions runner (no GITHUB_OUTPUT) it is a no-op. Multiline values use
// the heredoc form so failing-id lists survive intact.
func Write(values map[string]string) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT"))
	if path == "" {
		return nil
	}
	if len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values[key]
		if strings.ContainsAny(value, "\r\n") {
			if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}

const delimiter = "ISSUESYNC_EOF"
