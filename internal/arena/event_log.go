package arena

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	eventBufferSize    = 1024
	maxEventsPerSec    = 1000
	batchFlushSize     = 64
	batchFlushInterval = 250 * time.Millisecond
)

// EventLog is a bounded, rate-limited, append-only audit trail of
// round-lifecycle events (joins, deaths, round start/over). It never blocks
// the tick goroutine: emit only claims a slot in a fixed circular buffer and
// returns; a separate goroutine batches and flushes to disk.
type EventLog struct {
	buffer    [eventBufferSize]LogEvent
	writeHead uint64
	readHead  uint64

	limiter *rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

// NewEventLog creates an event log that has not yet started writing to disk.
func NewEventLog() *EventLog {
	return &EventLog{
		limiter:  rate.NewLimiter(maxEventsPerSec, maxEventsPerSec/10),
		stopChan: make(chan struct{}),
	}
}

// Start begins the async writer goroutine. If filePath is empty, events are
// still buffered and counted but never flushed to disk.
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
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop gracefully flushes and shuts down the event log.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
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

// emit records an event, dropping it under sustained overload rather than
// blocking the caller (an Engine method holding e.mu, on either the tick
// goroutine or the transport goroutine).
func (el *EventLog) emit(eventType EventType, tickNum int64, playerID string, payload interface{}) {
	if !el.running.Load() {
		return
	}
	if !el.limiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return
	}

	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)
	if head-tail >= eventBufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	event := newLogEvent(eventType, tickNum, playerID, payload)
	event.Sequence = head
	el.buffer[(head-1)%eventBufferSize] = event
	atomic.AddUint64(&el.totalCount, 1)
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	batch := make([]LogEvent, 0, batchFlushSize)
	for {
		select {
		case <-el.stopChan:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) collectBatch(batch []LogEvent) []LogEvent {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < batchFlushSize; i++ {
		batch = append(batch, el.buffer[i%eventBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

func (el *EventLog) flushBatch(batch []LogEvent) {
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
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// Stats reports counters useful for monitoring the log's health.
func (el *EventLog) Stats() (total, dropped uint64) {
	return atomic.LoadUint64(&el.totalCount), atomic.LoadUint64(&el.droppedCount)
}
