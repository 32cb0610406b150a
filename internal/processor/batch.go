package processor

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"stripdrop/pkg/imgutil"
)

type State int

const (
	StateIdle State = iota
	StateProcessing
)

// Coordinator runs one batch per drop gesture. It is safe for concurrent
// use, but only one batch runs at a time.
type Coordinator struct {
	client   *http.Client
	registry *TempRegistry
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	last  BatchResult
}

func NewCoordinator(client *http.Client, registry *TempRegistry, logger *slog.Logger) *Coordinator {
	if client == nil {
		client = &http.Client{}
	}
	if registry == nil {
		registry = NewTempRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{client: client, registry: registry, logger: logger}
}

func (c *Coordinator) Registry() *TempRegistry { return c.registry }

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the result of the most recent completed batch.
func (c *Coordinator) Last() BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.last
	last.Entries = append([]Entry(nil), c.last.Entries...)
	return last
}

// Process strips every item concurrently and returns once all of them have
// finished. Per-item failures are logged and counted, never returned. The
// only errors are pre-flight ones, in which case no item is touched.
func (c *Coordinator) Process(ctx context.Context, items []Item, s Settings, updates chan<- ProgressUpdate) (BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.begin(); err != nil {
		return BatchResult{}, err
	}
	defer c.finish()

	if len(items) == 0 {
		return BatchResult{}, ErrUnsupportedDrop
	}
	if s.SaveEnabled {
		if err := checkSaveDirectory(s.SaveDirectory); err != nil {
			c.logger.Warn("batch aborted", "error", err)
			return BatchResult{}, err
		}
	}

	c.mu.Lock()
	c.last = BatchResult{}
	c.mu.Unlock()

	result := BatchResult{ID: uuid.NewString(), Total: len(items)}
	logger := c.logger.With("batch", result.ID)
	logger.Info("batch started", "items", len(items), "save", s.SaveEnabled, "dir", s.SaveDirectory)
	send(updates, ProgressUpdate{TotalDelta: len(items)})

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)
	for _, it := range items {
		g.Go(func() error {
			entry, err := c.processItem(ctx, it, s)
			if err != nil {
				logger.Warn("item failed", "index", it.Index, "kind", it.Kind.String(), "error", err)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				send(updates, ProgressUpdate{ProcessedDelta: 1, ErrorDelta: 1})
				return nil
			}

			mu.Lock()
			result.Entries = append(result.Entries, entry)
			mu.Unlock()
			send(updates, ProgressUpdate{ProcessedDelta: 1, LeakDelta: entry.Leaks})
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch complete", "written", len(result.Entries), "failed", result.Failed)

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()
	return result, nil
}

func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateProcessing {
		return ErrBusy
	}
	c.state = StateProcessing
	return nil
}

func (c *Coordinator) finish() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Coordinator) processItem(ctx context.Context, it Item, s Settings) (Entry, error) {
	data, err := load(ctx, c.client, it)
	if err != nil {
		return Entry{}, decodeErr(it, err)
	}
	leaks, categories := leakReport(data, imgutil.Detect(data))
	dec, err := Decode(data)
	if err != nil {
		return Entry{}, decodeErr(it, err)
	}

	img, err := dec.Image()
	if err != nil {
		return Entry{}, decodeErr(it, err)
	}
	out, err := Resolve(dec, it, s, c.registry)
	if err != nil {
		return Entry{}, decodeErr(it, err)
	}
	if err := write(out, img, s.JPEGQuality); err != nil {
		return Entry{}, decodeErr(it, errors.Wrapf(err, "write %s", out.Path))
	}

	return Entry{
		Index:      it.Index,
		Kind:       it.Kind,
		Source:     it.Display(),
		Path:       out.Path,
		Format:     out.Format,
		Temporary:  out.Temporary,
		Mode:       dec.Mode,
		Width:      dec.Width,
		Height:     dec.Height,
		Leaks:      leaks,
		Categories: categories,
	}, nil
}

func checkSaveDirectory(dir string) error {
	if dir == "" {
		return ErrSaveDirectoryMissing
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Wrap(ErrSaveDirectoryMissing, dir)
	}
	return nil
}

func send(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates != nil {
		updates <- update
	}
}
