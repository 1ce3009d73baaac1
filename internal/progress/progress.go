package progress

import (
	"sync"
	"time"

	"pdfshelf/internal/store"
)

// EventKind identifies a scan progress notification. The set is closed;
// consumers are expected to switch exhaustively over it.
type EventKind int

const (
	// EventFound reports a PDF path discovered by the directory scanner.
	EventFound EventKind = iota
	// EventProcessing reports a path entering the extraction pipeline.
	EventProcessing
	// EventExtracted reports a freshly extracted metadata record.
	EventExtracted
	// EventDuplicateDetected reports identical content found at a new
	// path; the original path is superseded.
	EventDuplicateDetected
	// EventError reports a per-item failure; the item is excluded from
	// the final result list.
	EventError
	// EventComplete is the terminal event of a scan, carrying the full
	// metadata list and elapsed wall-clock duration.
	EventComplete
)

// Event is a single progress notification. Only the fields relevant to
// its Kind are populated; everything it carries is an owned snapshot,
// safe to retain after the producer has moved on.
type Event struct {
	Kind EventKind

	// Path is set for Found, Processing, Extracted and Error.
	Path string

	// Hash and Metadata are set for Extracted.
	Hash     string
	Metadata *store.PdfMetadata

	// OriginalPath and NewPath are set for DuplicateDetected.
	OriginalPath string
	NewPath      string

	// Message is set for Error.
	Message string

	// Results and Duration are set for Complete.
	Results  []store.PdfMetadata
	Duration time.Duration
}

// String returns the kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventFound:
		return "found"
	case EventProcessing:
		return "processing"
	case EventExtracted:
		return "extracted"
	case EventDuplicateDetected:
		return "duplicate"
	case EventError:
		return "error"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Channel is an unbounded multi-producer, single-consumer event queue.
// Send never blocks, regardless of consumer speed: the queue grows
// instead, trading memory for guaranteed forward progress of scan
// workers. Events are delivered FIFO per producer; interleaving across
// concurrent producers is unspecified.
type Channel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

// NewChannel creates an empty, open progress channel.
func NewChannel() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues an event. It is safe for concurrent use and never
// blocks. Sending on a closed channel drops the event; that only
// happens when a producer outlives the scan that owns it.
func (c *Channel) Send(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.queue = append(c.queue, e)
	c.cond.Signal()
}

// Next blocks until an event is available or the channel is closed and
// drained. The second return value is false once no more events will
// ever arrive.
func (c *Channel) Next() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}

	if len(c.queue) == 0 {
		return Event{}, false
	}

	e := c.queue[0]
	c.queue = c.queue[1:]
	return e, true
}

// TryNext returns the next event without blocking. The second return
// value is false when the queue is currently empty.
func (c *Channel) TryNext() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return Event{}, false
	}
	e := c.queue[0]
	c.queue = c.queue[1:]
	return e, true
}

// Close marks the channel as finished. Pending events remain readable;
// Next returns false once they are drained. Closing twice is a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cond.Broadcast()
}

// Len returns the number of queued, undelivered events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
