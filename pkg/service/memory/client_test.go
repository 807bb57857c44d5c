package memory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/service/memory"
)

// Mock Gemini
type mockGemini struct {
	mu           sync.Mutex
	answerText   string
	generateErr  error
	embedErr     error
	embedded     []string
	generateCall int
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCall++
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: m.answerText}},
				},
			},
		},
	}, nil
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbeddingBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockGemini) EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.embedded = append(m.embedded, texts...)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// Mock VectorStore
type mockStore struct {
	mu      sync.Mutex
	chunks  []*adapter.Chunk
	hits    []*adapter.SearchHit
	putErr  error
	findErr error
}

func (m *mockStore) EnsureClass(ctx context.Context) error {
	return nil
}

func (m *mockStore) PutChunks(ctx context.Context, chunks []*adapter.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockStore) Search(ctx context.Context, vector []float32, limit int) ([]*adapter.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.hits, nil
}

func (m *mockStore) CountChunks(ctx context.Context, id model.DocumentID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, chunk := range m.chunks {
		if chunk.DocumentID == id {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) stored() []*adapter.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*adapter.Chunk(nil), m.chunks...)
}

func setupClient(t *testing.T, gemini *mockGemini, store *mockStore) *memory.Client {
	t.Helper()
	client, err := memory.New(context.Background(), gemini, store)
	gt.NoError(t, err)
	return client
}

func TestImportWebPageBecomesReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><title>Sample</title><body>Rayleigh scattering makes the sky blue.</body></html>"))
	}))
	defer srv.Close()

	gemini := &mockGemini{}
	store := &mockStore{}
	client := setupClient(t, gemini, store)

	ctx := context.Background()
	id := model.DocumentID("doc-web")
	gt.NoError(t, client.ImportWebPage(ctx, srv.URL, id))

	// readiness is observed, not returned by the import call
	client.WaitImports()

	ready, err := client.IsDocumentReady(ctx, id)
	gt.NoError(t, err)
	gt.True(t, ready)

	chunks := store.stored()
	gt.Number(t, len(chunks)).GreaterOrEqual(1)
	gt.Value(t, chunks[0].DocumentID).Equal(id)
	gt.Value(t, chunks[0].SourceName).Equal("Sample")
	gt.Value(t, chunks[0].Link).Equal(srv.URL)
}

func TestImportWebPageInvalidURL(t *testing.T) {
	client := setupClient(t, &mockGemini{}, &mockStore{})

	err := client.ImportWebPage(context.Background(), "not a url", "doc-bad")
	gt.Error(t, err)
}

func TestImportDocumentMissingFile(t *testing.T) {
	client := setupClient(t, &mockGemini{}, &mockStore{})

	path := filepath.Join(t.TempDir(), "missing.pdf")
	err := client.ImportDocument(context.Background(), path, "doc-pdf")
	gt.Error(t, err)
}

func TestImportFailureObservedViaReadiness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := setupClient(t, &mockGemini{}, &mockStore{})

	ctx := context.Background()
	id := model.DocumentID("doc-broken")
	gt.NoError(t, client.ImportWebPage(ctx, srv.URL, id))
	client.WaitImports()

	ready, err := client.IsDocumentReady(ctx, id)
	gt.False(t, ready)
	gt.Error(t, err)

	doc, ok := client.Document(id)
	gt.True(t, ok)
	gt.Value(t, doc.Status).Equal(model.StatusFailed)
}

func TestImportIsIdempotentByIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<body>stable content here</body>"))
	}))
	defer srv.Close()

	gemini := &mockGemini{}
	store := &mockStore{}
	client := setupClient(t, gemini, store)

	ctx := context.Background()
	id := model.DocumentID("doc-once")
	gt.NoError(t, client.ImportWebPage(ctx, srv.URL, id))
	client.WaitImports()
	before := len(store.stored())

	gt.NoError(t, client.ImportWebPage(ctx, srv.URL, id))
	client.WaitImports()
	gt.Value(t, len(store.stored())).Equal(before)
}

func TestUnknownDocumentFallsBackToStore(t *testing.T) {
	store := &mockStore{
		chunks: []*adapter.Chunk{{DocumentID: "doc-earlier", Text: "from a previous run"}},
	}
	client := setupClient(t, &mockGemini{}, store)

	ctx := context.Background()
	ready, err := client.IsDocumentReady(ctx, "doc-earlier")
	gt.NoError(t, err)
	gt.True(t, ready)

	ready, err = client.IsDocumentReady(ctx, "doc-never-seen")
	gt.NoError(t, err)
	gt.False(t, ready)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	gemini := &mockGemini{}
	client := setupClient(t, gemini, &mockStore{})

	for _, question := range []string{"", "   ", "\n"} {
		_, err := client.Ask(context.Background(), question)
		gt.Error(t, err)
	}
	gt.Value(t, gemini.generateCall).Equal(0)
}

func TestAskAssemblesSources(t *testing.T) {
	updated := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	store := &mockStore{
		hits: []*adapter.SearchHit{
			{DocumentID: "doc-a", SourceName: "a.pdf", Link: "a.pdf", Index: 2, Text: "late chunk", UpdatedAt: updated, Distance: 0.1},
			{DocumentID: "doc-b", SourceName: "Page B", Link: "https://example.com/b", Index: 0, Text: "other doc", UpdatedAt: updated, Distance: 0.2},
			{DocumentID: "doc-a", SourceName: "a.pdf", Link: "a.pdf", Index: 0, Text: "early chunk", UpdatedAt: updated, Distance: 0.3},
		},
	}
	gemini := &mockGemini{answerText: "grounded answer"}
	client := setupClient(t, gemini, store)

	answer, err := client.Ask(context.Background(), "What is in the documents?")
	gt.NoError(t, err)
	gt.Value(t, answer.Result).Equal("grounded answer")

	// one source per document, ordered by best-ranked hit
	gt.Array(t, answer.RelevantSources).Length(2)
	gt.Value(t, answer.RelevantSources[0].DocumentID).Equal(model.DocumentID("doc-a"))
	gt.Value(t, answer.RelevantSources[1].DocumentID).Equal(model.DocumentID("doc-b"))

	// partitions sorted by chunk index; first partition drives LastUpdate
	partitions := answer.RelevantSources[0].Partitions
	gt.Array(t, partitions).Length(2)
	gt.Value(t, partitions[0].Index).Equal(0)
	gt.Value(t, partitions[1].Index).Equal(2)
	gt.Value(t, answer.RelevantSources[0].LastUpdate()).Equal("2025-05-10T09:00:00Z")
}

func TestAskWithNoHitsStillAnswers(t *testing.T) {
	gemini := &mockGemini{answerText: "nothing relevant stored"}
	client := setupClient(t, gemini, &mockStore{})

	answer, err := client.Ask(context.Background(), "anything?")
	gt.NoError(t, err)
	gt.Array(t, answer.RelevantSources).Length(0)
}

func TestAskPropagatesBackendFailure(t *testing.T) {
	gemini := &mockGemini{generateErr: goerr.New("model unavailable")}
	client := setupClient(t, gemini, &mockStore{})

	_, err := client.Ask(context.Background(), "a question")
	gt.Error(t, err)
}
