package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Named vectors defined on the collection. Each projects a subset of the
// textual properties so searches can be scoped to that subset.
const (
	VectorDefault    = "default"
	VectorTitle      = "title"
	VectorBody       = "body"
	VectorTitleBody  = "title_body"
	VectorComments   = "comments"
	VectorAllContent = "all_content"
)

// SchemaManager ensures the target class exists with the expected property
// and named-vector configuration before any upsert is attempted.
type SchemaManager struct {
	client     *weaviate.Client
	logger     *slog.Logger
	class      string
	vectorizer string
}

// NewSchemaManager returns a SchemaManager for the given class and
// vectorizer module.
func NewSchemaManager(client *weaviate.Client, logger *slog.Logger, class, vectorizer string) *SchemaManager {
	return &SchemaManager{client: client, logger: logger, class: class, vectorizer: vectorizer}
}

// EnsureSchema creates the class when it does not exist. An existing class
// is assumed compatible; schema drift across versions is out of scope. Any
// failure here is fatal to the run, since fetched data could not be stored.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	exists, err := m.client.Schema().ClassExistenceChecker().WithClassName(m.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("check class %q: %w", m.class, err)
	}
	if exists {
		m.logger.Info("class already exists, assuming compatible schema", "class", m.class)
		return nil
	}

	m.logger.Info("creating class", "class", m.class, "vectorizer", m.vectorizer)
	if err := m.client.Schema().ClassCreator().WithClass(m.classDefinition()).Do(ctx); err != nil {
		// A concurrent creator may have won the race; that is not a failure.
		if strings.Contains(err.Error(), "already exists") {
			m.logger.Info("class was created concurrently", "class", m.class)
			return nil
		}
		return fmt.Errorf("create class %q: %w", m.class, err)
	}
	return nil
}

// classDefinition builds the full class with its property set and the six
// named vectors, each bound to the configured vectorizer. The default
// vector draws from title, body and comments_text only: the composite
// fields repeat that same text and feeding them in as well would weight
// it twice, so they are covered by their own dedicated vectors instead.
func (m *SchemaManager) classDefinition() *models.Class {
	return &models.Class{
		Class:       m.class,
		Description: "GitHub issue vectorized for semantic search",
		Properties: []*models.Property{
			{Name: "issue_id", DataType: []string{"text"}, Description: "Stable issue key (owner/repo#number)"},
			{Name: "number", DataType: []string{"int"}, Description: "The issue number"},
			{Name: "title", DataType: []string{"text"}, Description: "The title of the GitHub issue"},
			{Name: "body", DataType: []string{"text"}, Description: "The body content of the GitHub issue"},
			{Name: "state", DataType: []string{"text"}, Description: "State of the issue (open or closed)"},
			{Name: "url", DataType: []string{"text"}, Description: "URL to the GitHub issue"},
			{Name: "repository", DataType: []string{"text"}, Description: "Full repository name (owner/repo)"},
			{Name: "author", DataType: []string{"text"}, Description: "Username of the author"},
			{Name: "labels", DataType: []string{"text[]"}, Description: "Labels attached to the issue"},
			{Name: "comment_count", DataType: []string{"int"}, Description: "Number of comments on the issue"},
			{Name: "created_at", DataType: []string{"date"}, Description: "When the issue was created"},
			{Name: "updated_at", DataType: []string{"date"}, Description: "When the issue was last updated"},
			{Name: "closed_at", DataType: []string{"date"}, Description: "When the issue was closed, if applicable"},
			{Name: "comments_text", DataType: []string{"text"}, Description: "Concatenated comment bodies in chronological order"},
			{Name: "title_body", DataType: []string{"text"}, Description: "Title and body combined, vectorization source"},
			{Name: "all_content", DataType: []string{"text"}, Description: "Title, body and comments combined, vectorization source"},
		},
		VectorConfig: map[string]models.VectorConfig{
			VectorDefault:    m.vectorConfig("title", "body", "comments_text"),
			VectorTitle:      m.vectorConfig("title"),
			VectorBody:       m.vectorConfig("body"),
			VectorTitleBody:  m.vectorConfig("title_body"),
			VectorComments:   m.vectorConfig("comments_text"),
			VectorAllContent: m.vectorConfig("all_content"),
		},
	}
}

// vectorConfig binds one named vector to its source properties.
func (m *SchemaManager) vectorConfig(properties ...string) models.VectorConfig {
	return models.VectorConfig{
		Vectorizer: map[string]any{
			m.vectorizer: map[string]any{
				"properties":         properties,
				"vectorizeClassName": false,
			},
		},
		VectorIndexType: "hnsw",
	}
}
