package storage

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultWriteTimeout = 5 * time.Second

// ErrWriterClosed is returned by Flush once the writer has stopped with
// records still pending.
var ErrWriterClosed = errors.New("storage writer closed")

// Writer persists records on a single background goroutine so that callers
// never block on storage. Only the latest value per record name is kept: a
// burst of updates results in one write of the final state.
type Writer struct {
	persister Persister
	logger    zerolog.Logger
	timeout   time.Duration

	lock     sync.Mutex
	pending  map[string]any
	order    []string
	inFlight bool
	idle     *sync.Cond
	closed   bool

	wake chan struct{}
	done chan struct{}
}

// WriterOption defines a function type to modify the Writer instance.
type WriterOption func(*Writer)

func WithWriterLogger(logger zerolog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithWriteTimeout(timeout time.Duration) WriterOption {
	return func(w *Writer) {
		w.timeout = timeout
	}
}

func NewWriter(persister Persister, options ...WriterOption) *Writer {
	w := &Writer{
		persister: persister,
		logger:    log.Logger,
		timeout:   defaultWriteTimeout,
		pending:   make(map[string]any),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.lock)
	for _, opt := range options {
		opt(w)
	}
	go w.run()
	return w
}

// Enqueue schedules v to be saved under name. A nil v deletes the record.
func (w *Writer) Enqueue(name string, v any) {
	w.lock.Lock()
	if w.closed {
		w.lock.Unlock()
		return
	}
	if _, queued := w.pending[name]; !queued {
		w.order = append(w.order, name)
	}
	w.pending[name] = v
	w.lock.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every record enqueued before the call has been written,
// or ctx is done. A closed writer drops what is still pending and returns
// ErrWriterClosed.
func (w *Writer) Flush(ctx context.Context) error {
	flushed := make(chan bool, 1)
	go func() {
		w.lock.Lock()
		for (len(w.pending) > 0 || w.inFlight) && !w.closed {
			w.idle.Wait()
		}
		drained := len(w.pending) == 0 && !w.inFlight
		w.lock.Unlock()
		flushed <- drained
	}()

	select {
	case drained := <-flushed:
		if !drained {
			return ErrWriterClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes outstanding writes and stops the background goroutine.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)

	w.lock.Lock()
	if !w.closed {
		w.closed = true
		close(w.done)
		w.idle.Broadcast()
	}
	w.lock.Unlock()
	return err
}

func (w *Writer) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}

		for {
			w.lock.Lock()
			if len(w.order) == 0 {
				w.idle.Broadcast()
				w.lock.Unlock()
				break
			}
			name := w.order[0]
			w.order = w.order[1:]
			value := w.pending[name]
			delete(w.pending, name)
			w.inFlight = true
			w.lock.Unlock()

			w.write(name, value)

			w.lock.Lock()
			w.inFlight = false
			w.idle.Broadcast()
			w.lock.Unlock()
		}
	}
}

func (w *Writer) write(name string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	if value == nil {
		err = w.persister.Delete(ctx, name)
	} else {
		err = w.persister.Save(ctx, name, value)
	}
	if err != nil {
		w.logger.Err(err).Str("record", name).Msg("Failed to persist record")
	}
}
