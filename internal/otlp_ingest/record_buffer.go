package otlp_ingest

import (
	"fmt"
	"sync"

	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

const WriteQueueSize = 30

// RecordBuffer batches ingested records before they hit the log file, so a
// chatty exporter does not pay one file write per record.
type RecordBuffer interface {
	WriteToBuffer(records []logstore.Record)
	Flush() error
}

type RecordBufferImpl struct {
	writeQueue []logstore.Record
	appender   *logstore.Appender
	logger     *zap.Logger
	mu         sync.Mutex
}

func NewRecordBufferImpl(
	appender *logstore.Appender,
	logger *zap.Logger,
) *RecordBufferImpl {
	return &RecordBufferImpl{
		writeQueue: []logstore.Record{},
		appender:   appender,
		logger:     logger,
	}
}

func (rb *RecordBufferImpl) WriteToBuffer(records []logstore.Record) {
	rb.mu.Lock()
	rb.writeQueue = append(rb.writeQueue, records...)
	queued := len(rb.writeQueue)
	rb.mu.Unlock()
	if queued > WriteQueueSize {
		go func() {
			err := rb.Flush()
			if err != nil {
				rb.logger.Error("Failed to flush ingested log records", zap.Error(err))
			}
		}()
	}
}

// Flush appends everything queued to the log file. The queue is cleared even
// when a write fails; ingest is lossy on disk errors rather than unbounded
// in memory.
func (rb *RecordBufferImpl) Flush() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	queue := rb.writeQueue
	rb.writeQueue = []logstore.Record{}
	for i, record := range queue {
		if err := rb.appender.Append(record); err != nil {
			return fmt.Errorf("error appending ingested record %d of %d: %w", i+1, len(queue), err)
		}
	}
	return nil
}
