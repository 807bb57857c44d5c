package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Chunk is a vectorized partition of a document to be stored
type Chunk struct {
	DocumentID model.DocumentID
	SourceName string
	Link       string
	Index      int
	Text       string
	UpdatedAt  time.Time
	Vector     []float32
}

// SearchHit is a chunk returned from similarity search, best match first
type SearchHit struct {
	DocumentID model.DocumentID
	SourceName string
	Link       string
	Index      int
	Text       string
	UpdatedAt  time.Time
	Distance   float64
}

// VectorStore is the interface for chunk persistence and similarity search
type VectorStore interface {
	// EnsureClass creates the chunk class if it does not exist yet
	EnsureClass(ctx context.Context) error

	// PutChunks stores vectorized chunks in one batch
	PutChunks(ctx context.Context, chunks []*Chunk) error

	// Search returns the chunks closest to the given vector
	Search(ctx context.Context, vector []float32, limit int) ([]*SearchHit, error)

	// CountChunks returns the number of stored chunks for a document
	CountChunks(ctx context.Context, id model.DocumentID) (int, error)
}

// weaviateStore implements VectorStore using Weaviate
type weaviateStore struct {
	client    *weaviate.Client
	className string
}

// NewWeaviate creates a Weaviate-backed vector store for the given class
func NewWeaviate(host, scheme, className string) (VectorStore, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create weaviate client",
			goerr.V("host", host), goerr.V("scheme", scheme))
	}

	return &weaviateStore{
		client:    client,
		className: className,
	}, nil
}

func (s *weaviateStore) EnsureClass(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(s.className).Do(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to check class existence",
			goerr.V("class", s.className))
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      s.className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "docId", DataType: []string{"text"}},
			{Name: "sourceName", DataType: []string{"text"}},
			{Name: "link", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "updatedAt", DataType: []string{"date"}},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return goerr.Wrap(err, "failed to create class", goerr.V("class", s.className))
	}
	return nil
}

func (s *weaviateStore) PutChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class: s.className,
			Properties: map[string]any{
				"docId":      string(chunk.DocumentID),
				"sourceName": chunk.SourceName,
				"link":       chunk.Link,
				"chunkIndex": chunk.Index,
				"text":       chunk.Text,
				"updatedAt":  chunk.UpdatedAt.Format(time.RFC3339),
			},
			Vector: models.C11yVector(chunk.Vector),
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to store chunks", goerr.V("count", len(chunks)))
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return goerr.New("weaviate rejected chunk",
				goerr.V("message", r.Result.Errors.Error[0].Message))
		}
	}
	return nil
}

func (s *weaviateStore) Search(ctx context.Context, vector []float32, limit int) ([]*SearchHit, error) {
	gql := s.client.GraphQL()
	result, err := gql.Get().
		WithClassName(s.className).
		WithNearVector(gql.NearVectorArgBuilder().WithVector(vector)).
		WithLimit(limit).
		WithFields(
			graphql.Field{Name: "docId"},
			graphql.Field{Name: "sourceName"},
			graphql.Field{Name: "link"},
			graphql.Field{Name: "chunkIndex"},
			graphql.Field{Name: "text"},
			graphql.Field{Name: "updatedAt"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{
				{Name: "distance"},
			}},
		).
		Do(ctx)
	if err := graphqlError(result, err); err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks")
	}

	return decodeSearchHits(result, s.className)
}

func (s *weaviateStore) CountChunks(ctx context.Context, id model.DocumentID) (int, error) {
	where := filters.Where().
		WithPath([]string{"docId"}).
		WithOperator(filters.Equal).
		WithValueText(string(id))

	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithWhere(where).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{
			{Name: "count"},
		}}).
		Do(ctx)
	if err := graphqlError(result, err); err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks", goerr.V("doc_id", id))
	}

	return decodeCount(result, s.className)
}

// graphqlError merges a transport error and GraphQL-level errors
func graphqlError(result *models.GraphQLResponse, err error) error {
	if err != nil {
		return err
	}
	if result != nil && len(result.Errors) > 0 {
		messages := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			messages[i] = e.Message
		}
		return goerr.New("graphql errors", goerr.V("messages", messages))
	}
	return nil
}

func decodeSearchHits(result *models.GraphQLResponse, className string) ([]*SearchHit, error) {
	data, ok := result.Data["Get"]
	if !ok {
		return nil, goerr.New("Get key not found in result")
	}
	classes, ok := data.(map[string]any)
	if !ok {
		return nil, goerr.New("Get key has unexpected type")
	}
	items, ok := classes[className].([]any)
	if !ok {
		// no objects stored yet
		return nil, nil
	}

	var hits []*SearchHit
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, goerr.New("invalid element in search result")
		}

		hit := &SearchHit{
			DocumentID: model.DocumentID(stringProp(obj, "docId")),
			SourceName: stringProp(obj, "sourceName"),
			Link:       stringProp(obj, "link"),
			Text:       stringProp(obj, "text"),
		}
		if v, ok := obj["chunkIndex"].(float64); ok {
			hit.Index = int(v)
		}
		if v, ok := obj["updatedAt"].(string); ok && v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid updatedAt in search result",
					goerr.V("value", v))
			}
			hit.UpdatedAt = ts
		}
		if add, ok := obj["_additional"].(map[string]any); ok {
			if v, ok := add["distance"].(float64); ok {
				hit.Distance = v
			}
		}

		hits = append(hits, hit)
	}
	return hits, nil
}

func decodeCount(result *models.GraphQLResponse, className string) (int, error) {
	data, ok := result.Data["Aggregate"]
	if !ok {
		return 0, goerr.New("Aggregate key not found in result")
	}
	classes, ok := data.(map[string]any)
	if !ok {
		return 0, goerr.New("Aggregate key has unexpected type")
	}
	items, ok := classes[className].([]any)
	if !ok || len(items) == 0 {
		return 0, nil
	}
	obj, ok := items[0].(map[string]any)
	if !ok {
		return 0, goerr.New("invalid aggregate element")
	}
	meta, ok := obj["meta"].(map[string]any)
	if !ok {
		return 0, goerr.New("meta not found in aggregate result")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, goerr.New(fmt.Sprintf("unexpected count type: %T", meta["count"]))
	}
	return int(count), nil
}

func stringProp(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
