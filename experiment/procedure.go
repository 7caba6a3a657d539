package experiment

import (
	"sync"

	"golang.org/x/time/rate"
)

// Procedure is one scripted measurement sequence.  Startup acquires
// and configures hardware, Execute does the work, emitting records
// along the way, and Shutdown releases hardware.  Shutdown runs even
// when Execute fails or is aborted.
type Procedure interface {
	Startup() error
	Execute(e *Emitter) error
	Shutdown() error
}

// Emitter is handed to a running procedure to push data out and to
// learn when it should stop early
type Emitter struct {
	results *Results
	limiter *rate.Limiter
	stop    chan struct{}

	mu         sync.Mutex
	progress   float64
	onProgress func(float64)
}

// NewEmitter creates an emitter writing records to results.  Progress
// updates are throttled to progressHz per second; records are never
// throttled.
func NewEmitter(results *Results, progressHz float64) *Emitter {
	return &Emitter{
		results: results,
		limiter: rate.NewLimiter(rate.Limit(progressHz), 1),
		stop:    make(chan struct{}),
	}
}

// Record writes one data record to the results file
func (e *Emitter) Record(data map[string]float64) error {
	return e.results.Write(data)
}

// Progress reports completion in percent.  Updates beyond the rate
// limit are dropped, so a tight loop can call this every iteration.
func (e *Emitter) Progress(pct float64) {
	if !e.limiter.Allow() {
		return
	}
	e.mu.Lock()
	e.progress = pct
	cb := e.onProgress
	e.mu.Unlock()
	if cb != nil {
		cb(pct)
	}
}

// LastProgress returns the most recent accepted progress value
func (e *Emitter) LastProgress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// OnProgress registers a callback invoked on each accepted progress
// update
func (e *Emitter) OnProgress(cb func(float64)) {
	e.mu.Lock()
	e.onProgress = cb
	e.mu.Unlock()
}

// ShouldStop returns true once the run has been aborted.  Well behaved
// procedures poll this inside their measurement loop.
func (e *Emitter) ShouldStop() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// StopC exposes the abort channel for procedures that want to select
// on it alongside timers
func (e *Emitter) StopC() <-chan struct{} {
	return e.stop
}
