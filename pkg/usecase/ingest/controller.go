package ingest

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

var ErrNotReady = goerr.New("documents are not ready")

// Memory is the capability surface consumed from the memory engine
type Memory interface {
	ImportDocument(ctx context.Context, path string, id model.DocumentID) error
	ImportWebPage(ctx context.Context, url string, id model.DocumentID) error
	IsDocumentReady(ctx context.Context, id model.DocumentID) (bool, error)
}

// Source is a content origin to be submitted for ingestion
type Source struct {
	ID     model.DocumentID
	Kind   model.OriginKind
	Origin string
}

// Controller submits sources to the memory engine and waits for them to
// become ready
type Controller struct {
	memory      Memory
	attempts    int
	interval    time.Duration
	maxInterval time.Duration
}

// NewInput contains parameters for creating a Controller
type NewInput struct {
	Memory Memory

	// Readiness poll budget; zero values take the defaults
	// (10 attempts, 500ms base interval, 8s cap)
	Attempts    int
	Interval    time.Duration
	MaxInterval time.Duration
}

func New(input NewInput) *Controller {
	c := &Controller{
		memory:      input.Memory,
		attempts:    input.Attempts,
		interval:    input.Interval,
		maxInterval: input.MaxInterval,
	}
	if c.attempts <= 0 {
		c.attempts = 10
	}
	if c.interval <= 0 {
		c.interval = 500 * time.Millisecond
	}
	if c.maxInterval <= 0 {
		c.maxInterval = 8 * time.Second
	}
	return c
}

// Submit dispatches one source to the memory engine. A failing import is
// logged and returned as-is: the caller decides whether the session can
// proceed without the document. No retry.
func (c *Controller) Submit(ctx context.Context, src Source) error {
	var err error
	switch src.Kind {
	case model.OriginFile:
		err = c.memory.ImportDocument(ctx, src.Origin, src.ID)
	case model.OriginURL:
		err = c.memory.ImportWebPage(ctx, src.Origin, src.ID)
	default:
		err = goerr.New("unknown source kind", goerr.V("kind", src.Kind))
	}

	if err != nil {
		logging.From(ctx).Error("failed to submit source",
			"doc_id", src.ID, "origin", src.Origin, "error", err)
		return goerr.Wrap(err, "failed to submit source",
			goerr.V("doc_id", src.ID), goerr.V("origin", src.Origin))
	}

	logging.From(ctx).Info("source submitted", "doc_id", src.ID, "origin", src.Origin)
	return nil
}

// SubmitAll submits independent sources concurrently. The first failure
// cancels the remaining submissions and propagates.
func (c *Controller) SubmitAll(ctx context.Context, sources []Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			return c.Submit(ctx, src)
		})
	}
	return g.Wait()
}

// IsReady is a single snapshot: the AND over every identifier's readiness.
// A check error counts as not ready and is returned.
func (c *Controller) IsReady(ctx context.Context, ids []model.DocumentID) (bool, error) {
	for _, id := range ids {
		ready, err := c.memory.IsDocumentReady(ctx, id)
		if err != nil {
			return false, goerr.Wrap(err, "readiness check failed", goerr.V("doc_id", id))
		}
		if !ready {
			return false, nil
		}
	}
	return true, nil
}

// WaitReady polls IsReady with exponential backoff until all identifiers
// are ready, the attempt budget runs out, or the context is canceled.
func (c *Controller) WaitReady(ctx context.Context, ids []model.DocumentID) error {
	interval := c.interval

	for attempt := 1; attempt <= c.attempts; attempt++ {
		ready, err := c.IsReady(ctx, ids)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if attempt == c.attempts {
			break
		}

		logging.From(ctx).Debug("documents not ready, waiting",
			"attempt", attempt, "interval", interval)

		select {
		case <-ctx.Done():
			return goerr.Wrap(ctx.Err(), "readiness wait canceled")
		case <-time.After(interval):
		}

		interval *= 2
		if interval > c.maxInterval {
			interval = c.maxInterval
		}
	}

	return goerr.Wrap(ErrNotReady, "readiness wait exhausted",
		goerr.V("attempts", c.attempts))
}
