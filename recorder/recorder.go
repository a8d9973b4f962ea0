// Package recorder layers interval recording on top of the single-threaded
// histogram core. A Recorder guards one active histogram with a mutex, swaps
// it for a fresh one on every tick of its flush loop, and hands the detached
// interval to a caller-provided sink. Optionally each interval is also
// snapshotted, encoded, to a file.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	hdrhistogram "github.com/floatdrop/hdrhistogram-go"
)

// An IntervalSink receives each detached interval histogram. It runs on the
// flush goroutine; intervals are delivered in order and never concurrently.
type IntervalSink func(*hdrhistogram.Histogram)

// A Recorder accepts observations from any number of goroutines and
// periodically flushes them as per-interval histograms.
type Recorder struct {
	logger logrus.FieldLogger
	config Config
	fs     afero.Fs
	sink   IntervalSink

	mu     sync.Mutex
	active *hdrhistogram.Histogram

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Recorder from cfg overlaid on the defaults and starts its
// flush loop. Stop must be called to end the loop and deliver the final
// interval. Snapshots, if configured, are written to fs.
func New(logger logrus.FieldLogger, fs afero.Fs, cfg Config, sink IntervalSink) (*Recorder, error) {
	config := NewConfig().Apply(cfg)
	if config.FlushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive, got %s", config.FlushInterval)
	}
	if sink == nil {
		return nil, fmt.Errorf("an interval sink is required")
	}

	active, err := hdrhistogram.NewFromConfig(config.Histogram)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		logger: logger,
		config: config,
		fs:     fs,
		sink:   sink,
		active: active,
		stop:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.loop()
	return r, nil
}

// Record counts a single occurrence of v in the current interval.
func (r *Recorder) Record(v int64) error {
	return r.RecordN(v, 1)
}

// RecordN counts n occurrences of v in the current interval.
func (r *Recorder) RecordN(v, n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active.RecordN(v, n)
}

// RecordDuration counts d at nanosecond granularity.
func (r *Recorder) RecordDuration(d time.Duration) error {
	return r.RecordN(d.Nanoseconds(), 1)
}

// Stop ends the flush loop, delivering one final interval before returning.
// It is safe to call from multiple goroutines; recording after Stop still
// works but is only observable through the next manual Swap.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
}

// Swap detaches the current interval histogram, installing a fresh one in
// its place.
func (r *Recorder) Swap() *hdrhistogram.Histogram {
	fresh, err := hdrhistogram.NewFromConfig(r.config.Histogram)
	if err != nil {
		// NewFromConfig already validated these parameters in New.
		panic(err)
	}

	r.mu.Lock()
	detached := r.active
	r.active = fresh
	r.mu.Unlock()
	return detached
}

func (r *Recorder) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-r.stop:
			r.flush()
			return
		}
	}
}

func (r *Recorder) flush() {
	interval := r.Swap()
	r.logger.WithField("observations", interval.TotalCount()).Debug("Flushing interval histogram")

	if r.config.SnapshotPath.Valid {
		if err := r.snapshot(interval); err != nil {
			r.logger.WithError(err).Error("Couldn't snapshot interval histogram")
		}
	}
	r.sink(interval)
}

func (r *Recorder) snapshot(h *hdrhistogram.Histogram) error {
	f, err := r.fs.Create(r.config.SnapshotPath.String)
	if err != nil {
		return err
	}
	if err := h.Encode(f); err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}
	return f.Close()
}
