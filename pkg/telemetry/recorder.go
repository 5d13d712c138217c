package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// QueryRecord captures one retrieval pipeline invocation for offline
// analysis: what was asked, what was found and whether the fallback ran.
type QueryRecord struct {
	ID           string    `parquet:"id"`
	Timestamp    time.Time `parquet:"timestamp"`
	Question     string    `parquet:"question"`
	People       string    `parquet:"people"` // comma-joined canonical names
	Events       string    `parquet:"events"`
	ArchiveQuery string    `parquet:"archive_query"`
	HitCount     int       `parquet:"hit_count"`
	FinalState   string    `parquet:"final_state"` // DONE or INSUFFICIENT
	FallbackUsed bool      `parquet:"fallback_used"`
	DurationMS   int64     `parquet:"duration_ms"`
}

// Recorder buffers query records and writes them to Parquet files.
type Recorder struct {
	outputDir string
	batchSize int

	mu     sync.Mutex
	buffer []QueryRecord
	closed bool
}

// NewRecorder creates a query recorder writing under outputDir.
func NewRecorder(outputDir string) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Recorder{
		outputDir: outputDir,
		batchSize: 50,
		buffer:    make([]QueryRecord, 0, 50),
	}, nil
}

// Record buffers one record, flushing when the batch fills. The zero ID and
// timestamp are filled in.
func (r *Recorder) Record(rec QueryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("telemetry recorder closed")
	}
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.batchSize {
		return r.flush()
	}
	return nil
}

// Flush writes buffered records to disk.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// Close flushes and rejects further records.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.flush()
	r.closed = true
	return err
}

// flush writes the buffer to a new Parquet file. Caller must hold the lock.
func (r *Recorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("queries_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)
	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("write query telemetry: %w", err)
	}
	r.buffer = r.buffer[:0]
	return nil
}

// JoinNames renders a canonical name list for a QueryRecord field.
func JoinNames(names []string) string {
	return strings.Join(names, ",")
}
