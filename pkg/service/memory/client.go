package memory

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

var (
	ErrDuplicateDocument = goerr.New("document identifier already submitted")
	ErrImportFailed      = goerr.New("document import failed")
	ErrEmptyQuery        = goerr.New("query is empty")
)

// Client is the memory engine: it ingests documents and web pages into the
// vector store and answers questions over them. Imports run in the
// background; completion is observed through IsDocumentReady.
type Client struct {
	gemini adapter.Gemini
	store  adapter.VectorStore

	chunkSize    int
	chunkOverlap int
	topK         int
	httpClient   *http.Client
	now          func() time.Time

	mu   sync.RWMutex
	docs map[model.DocumentID]*model.Document
	wg   sync.WaitGroup
}

type Option func(*Client)

func WithChunkSize(size int) Option {
	return func(c *Client) {
		c.chunkSize = size
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(c *Client) {
		c.chunkOverlap = overlap
	}
}

func WithTopK(k int) Option {
	return func(c *Client) {
		c.topK = k
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a memory client and ensures the storage class exists
func New(ctx context.Context, gemini adapter.Gemini, store adapter.VectorStore, opts ...Option) (*Client, error) {
	c := &Client{
		gemini:       gemini,
		store:        store,
		chunkSize:    1000,
		chunkOverlap: 100,
		topK:         3,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		docs:         make(map[model.DocumentID]*model.Document),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := store.EnsureClass(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to prepare vector store")
	}

	return c, nil
}

// ImportDocument submits a local file for ingestion. It returns once the
// submission is accepted; processing continues in the background.
// Re-importing an identifier that is already pending or ready is a no-op.
func (c *Client) ImportDocument(ctx context.Context, path string, id model.DocumentID) error {
	if _, err := os.Stat(path); err != nil {
		return goerr.Wrap(err, "document file is not readable", goerr.V("path", path))
	}

	return c.submit(ctx, &model.Document{
		ID:     id,
		Kind:   model.OriginFile,
		Origin: path,
		Name:   path,
	}, func(ctx context.Context) (*content, error) {
		return loadPDF(path)
	})
}

// ImportWebPage submits a web page for ingestion, same contract as
// ImportDocument.
func (c *Client) ImportWebPage(ctx context.Context, pageURL string, id model.DocumentID) error {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return goerr.New("invalid web page URL", goerr.V("url", pageURL))
	}

	return c.submit(ctx, &model.Document{
		ID:     id,
		Kind:   model.OriginURL,
		Origin: pageURL,
		Name:   pageURL,
	}, func(ctx context.Context) (*content, error) {
		return loadWebPage(ctx, c.httpClient, pageURL)
	})
}

type loadFunc func(ctx context.Context) (*content, error)

func (c *Client) submit(ctx context.Context, doc *model.Document, load loadFunc) error {
	c.mu.Lock()
	if existing, ok := c.docs[doc.ID]; ok {
		c.mu.Unlock()
		if existing.Status == model.StatusFailed {
			return goerr.Wrap(ErrImportFailed, "identifier already failed, not resubmitting",
				goerr.V("doc_id", doc.ID))
		}
		return nil
	}

	doc.Status = model.StatusPending
	doc.SubmittedAt = c.now()
	doc.UpdatedAt = doc.SubmittedAt
	c.docs[doc.ID] = doc
	c.mu.Unlock()

	// The import outlives the submission call; only its values are kept.
	bgCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.ingest(bgCtx, doc, load); err != nil {
			logging.From(bgCtx).Error("document import failed",
				"doc_id", doc.ID, "origin", doc.Origin, "error", err)
			c.setStatus(doc.ID, model.StatusFailed)
			return
		}
		c.setStatus(doc.ID, model.StatusReady)
	}()

	return nil
}

func (c *Client) ingest(ctx context.Context, doc *model.Document, load loadFunc) error {
	loaded, err := load(ctx)
	if err != nil {
		return err
	}

	if loaded.Name != "" {
		c.mu.Lock()
		doc.Name = loaded.Name
		c.mu.Unlock()
	}

	pieces := chunk(loaded.Text, c.chunkSize, c.chunkOverlap)
	if len(pieces) == 0 {
		return goerr.New("document has no text content", goerr.V("origin", doc.Origin))
	}

	vectors, err := c.gemini.EmbeddingBatch(ctx, pieces)
	if err != nil {
		return goerr.Wrap(err, "failed to embed document", goerr.V("doc_id", doc.ID))
	}

	updatedAt := c.now()
	chunks := make([]*adapter.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &adapter.Chunk{
			DocumentID: doc.ID,
			SourceName: loaded.Name,
			Link:       doc.Origin,
			Index:      i,
			Text:       piece,
			UpdatedAt:  updatedAt,
			Vector:     vectors[i],
		}
	}

	if err := c.store.PutChunks(ctx, chunks); err != nil {
		return goerr.Wrap(err, "failed to store document chunks", goerr.V("doc_id", doc.ID))
	}

	logging.From(ctx).Info("document ingested",
		"doc_id", doc.ID, "origin", doc.Origin, "chunks", len(chunks))
	return nil
}

func (c *Client) setStatus(id model.DocumentID, status model.IngestStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[id]; ok {
		doc.Status = status
		doc.UpdatedAt = c.now()
	}
}

// IsDocumentReady reports whether ingestion of the identifier completed.
// An identifier unknown to this run falls back to counting stored chunks,
// so collections populated by a previous run report ready. A failed import
// returns an error so callers stop waiting instead of polling out.
func (c *Client) IsDocumentReady(ctx context.Context, id model.DocumentID) (bool, error) {
	c.mu.RLock()
	doc, ok := c.docs[id]
	c.mu.RUnlock()

	if ok {
		switch doc.Status {
		case model.StatusReady:
			return true, nil
		case model.StatusFailed:
			return false, goerr.Wrap(ErrImportFailed, "import failed",
				goerr.V("doc_id", id), goerr.V("origin", doc.Origin))
		default:
			return false, nil
		}
	}

	count, err := c.store.CountChunks(ctx, id)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check stored chunks", goerr.V("doc_id", id))
	}
	return count > 0, nil
}

// Document returns the tracked document for an identifier, if any
func (c *Client) Document(id model.DocumentID) (*model.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	copied := *doc
	return &copied, true
}

// WaitImports blocks until all background imports settle. Intended for
// tests and orderly shutdown; readiness should be observed via polling.
func (c *Client) WaitImports() {
	c.wg.Wait()
}
