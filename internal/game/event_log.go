package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize       = 1024                   // Circular buffer size
	MaxEventsPerSec       = 2000                   // Global rate limit
	MaxEventsPerSession   = 50                     // Per-session rate limit per second
	BatchFlushSize        = 64                     // Events per batch write
	BatchFlushInterval    = 100 * time.Millisecond // How often to flush
	SessionLimiterCleanup = 5 * time.Minute        // Cleanup interval for session limiters
)

// EventLog is a bounded, rate-limited JSONL event log shared by every
// session. Emit never blocks the tick; when the buffer is full the oldest
// events are dropped.
type EventLog struct {
	bufMu     sync.Mutex
	buffer    [EventBufferSize]Event
	writeHead uint64
	readHead  uint64

	globalLimiter   *rate.Limiter
	sessionLimiters sync.Map // map[string]*sessionLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

type sessionLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer. An empty path keeps events in memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	return nil
}

// Stop flushes pending events and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event. Returns false if rate limited or not running.
func (el *EventLog) Emit(event Event) bool {
	if el == nil || !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if event.SessionID != "" && !el.sessionLimiter(event.SessionID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.bufMu.Lock()
	el.writeHead++
	if el.writeHead-el.readHead > EventBufferSize {
		el.readHead++
		atomic.AddUint64(&el.droppedCount, 1)
	}
	event.Sequence = el.writeHead
	el.buffer[el.writeHead%EventBufferSize] = event
	el.bufMu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds and emits an event in one call.
func (el *EventLog) EmitSimple(eventType EventType, at time.Time, tickNum uint64, sessionID string, payload interface{}) bool {
	if el == nil {
		return false
	}
	return el.Emit(NewEvent(eventType, at, tickNum, sessionID, payload))
}

func (el *EventLog) sessionLimiter(sessionID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.sessionLimiters.Load(sessionID); ok {
		e := entry.(*sessionLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &sessionLimiterEntry{
		limiter: rate.NewLimiter(MaxEventsPerSession, MaxEventsPerSession/5),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.sessionLimiters.LoadOrStore(sessionID, entry)
	return actual.(*sessionLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(SessionLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupSessionLimiters()
		}
	}
}

func (el *EventLog) cleanupSessionLimiters() {
	cutoff := time.Now().Add(-SessionLimiterCleanup).UnixNano()
	el.sessionLimiters.Range(func(key, value interface{}) bool {
		if value.(*sessionLimiterEntry).lastUsed.Load() < cutoff {
			el.sessionLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch drains up to BatchFlushSize events from the ring.
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

// flushBatch appends events as newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(append(data, '\n'))
	}
}

// Recent returns up to n of the newest buffered events that have not yet
// been flushed, oldest first.
func (el *EventLog) Recent(n int) []Event {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	pending := int(el.writeHead - el.readHead)
	if n > pending {
		n = pending
	}
	out := make([]Event, 0, n)
	for seq := el.writeHead - uint64(n) + 1; seq <= el.writeHead && n > 0; seq++ {
		out = append(out, el.buffer[seq%EventBufferSize])
	}
	return out
}

// GetStats returns counters for monitoring.
func (el *EventLog) GetStats() map[string]interface{} {
	el.bufMu.Lock()
	pending := el.writeHead - el.readHead
	el.bufMu.Unlock()

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
