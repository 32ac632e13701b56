// Package store integrates with the Weaviate target store: connection setup,
// schema pre-flight and batched, idempotent object upserts.
package store

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
)

// Options configures the store connection.
type Options struct {
	// URL is the Weaviate endpoint, with or without a scheme.
	URL string
	// APIKey authenticates against the instance; empty means anonymous.
	APIKey string
	// HTTPClient overrides the transport, used by tests.
	HTTPClient *http.Client
}

// Connect builds a Weaviate client from the given options. No network call
// is made here; reachability is verified by the schema pre-flight.
func Connect(opts Options) (*weaviate.Client, error) {
	scheme, host, err := splitEndpoint(opts.URL)
	if err != nil {
		return nil, err
	}

	cfg := weaviate.Config{
		Scheme:           scheme,
		Host:             host,
		ConnectionClient: opts.HTTPClient,
	}
	if opts.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: opts.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}

// splitEndpoint normalizes an endpoint URL into scheme and host. A bare
// host defaults to https, matching managed Weaviate deployments.
func splitEndpoint(endpoint string) (scheme, host string, err error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", "", fmt.Errorf("store endpoint is empty")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("parse store endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("store endpoint %q has no host", endpoint)
	}
	return u.Scheme, u.Host, nil
}
