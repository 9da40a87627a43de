// Package bench records per-task timing and writes the benchmark files
// declared by the workflow tasks.
package bench

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Record is the timing record of one finished task.
type Record struct {
	Task string
	// Wall is the elapsed wall-clock time.
	Wall time.Duration
	// CPU is the user+system CPU time of the delegated process, zero when no
	// external process was involved.
	CPU time.Duration
	// MaxRSSKB is the peak resident set size in kilobytes, -1 when unknown.
	MaxRSSKB int64
}

// Recorder collects records from concurrently running tasks.
type Recorder struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewRecorder creates a new recorder.
func NewRecorder() *Recorder {
	return &Recorder{records: make(map[string]Record)}
}

// Add stores the record of a finished task.
func (r *Recorder) Add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Task] = rec
}

// Get returns the record of a task.
func (r *Recorder) Get(task string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[task]

	return rec, ok
}

func hms(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute

	return fmt.Sprintf("%d:%02d:%02d", h, m, d/time.Second)
}

// Write writes the record as a two-line tab-separated table.
func (rec Record) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "s\th:m:s\tcpu_s\tmax_rss_kb\n%.4f\t%s\t%.4f\t%d\n",
		rec.Wall.Seconds(), hms(rec.Wall), rec.CPU.Seconds(), rec.MaxRSSKB)

	return errors.Wrap(err, "unable to write benchmark record")
}

// WriteFile writes the record to path, creating the file.
func (rec Record) WriteFile(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create benchmark file %s", path)
	}

	err = rec.Write(fh)
	if cerr := fh.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "unable to close benchmark file %s", path)
	}

	return err
}
