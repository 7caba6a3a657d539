package experiment

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestResultsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	r := NewResults(&buf, "warmup", map[string]string{"setpoint": "300"},
		[]string{"t", "temperature"})
	records := []map[string]float64{
		{"t": 0, "temperature": 295.1},
		{"t": 1, "temperature": 296.3},
		{"t": 2, "temperature": 297.8},
	}
	for _, rec := range records {
		if err := r.Write(rec); err != nil {
			t.Fatal("write failed:", err)
		}
	}
	parsed, err := ParseResults(&buf)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if parsed.Name != "warmup" {
		t.Errorf("expected name warmup, got %q", parsed.Name)
	}
	if parsed.Parameters["setpoint"] != "300" {
		t.Errorf("parameter lost: %v", parsed.Parameters)
	}
	if diff := cmp.Diff(records, parsed.Records); diff != "" {
		t.Errorf("records do not round trip (-want +got):\n%s", diff)
	}
}

func TestResultsHeaderFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewResults(&buf, "sweep", map[string]string{"ch": "1"}, []string{"x"})
	if err := r.Write(map[string]float64{"x": 1}); err != nil {
		t.Fatal("write failed:", err)
	}
	got := buf.String()
	for _, want := range []string{"# Procedure: sweep", "# Parameter ch: 1", "x\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("header missing %q in:\n%s", want, got)
		}
	}
}

// countProcedure emits n records then returns
type countProcedure struct {
	n        int
	started  bool
	shutdown bool
	fail     error
}

func (p *countProcedure) Startup() error {
	p.started = true
	return nil
}

func (p *countProcedure) Execute(e *Emitter) error {
	if p.fail != nil {
		return p.fail
	}
	for i := 0; i < p.n; i++ {
		if e.ShouldStop() {
			return nil
		}
		if err := e.Record(map[string]float64{"i": float64(i)}); err != nil {
			return err
		}
	}
	return nil
}

func (p *countProcedure) Shutdown() error {
	p.shutdown = true
	return nil
}

func TestWorkerRunsToCompletion(t *testing.T) {
	var buf bytes.Buffer
	res := NewResults(&buf, "count", nil, []string{"i"})
	proc := &countProcedure{n: 5}
	w := NewWorker(proc, NewEmitter(res, 10))
	w.Start()
	if err := w.Wait(); err != nil {
		t.Fatal("run failed:", err)
	}
	if w.Status() != Finished {
		t.Errorf("expected finished, got %s", w.Status())
	}
	if !proc.started || !proc.shutdown {
		t.Error("lifecycle hooks not all called")
	}
	parsed, err := ParseResults(&buf)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if len(parsed.Records) != 5 {
		t.Errorf("expected 5 records, got %d", len(parsed.Records))
	}
}

func TestWorkerFailurePropagates(t *testing.T) {
	boom := errors.New("sensor unplugged")
	proc := &countProcedure{fail: boom}
	res := NewResults(&bytes.Buffer{}, "count", nil, []string{"i"})
	w := NewWorker(proc, NewEmitter(res, 10))
	w.Start()
	if err := w.Wait(); !errors.Is(err, boom) {
		t.Errorf("expected execute error, got %v", err)
	}
	if w.Status() != Failed {
		t.Errorf("expected failed, got %s", w.Status())
	}
	if !proc.shutdown {
		t.Error("shutdown must run even when execute fails")
	}
}

// blockingProcedure waits for abort
type blockingProcedure struct{}

func (blockingProcedure) Startup() error { return nil }

func (blockingProcedure) Execute(e *Emitter) error {
	select {
	case <-e.StopC():
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("was never aborted")
	}
}

func (blockingProcedure) Shutdown() error { return nil }

func TestWorkerAbort(t *testing.T) {
	res := NewResults(&bytes.Buffer{}, "block", nil, []string{"i"})
	w := NewWorker(blockingProcedure{}, NewEmitter(res, 10))
	w.Start()
	w.Abort()
	w.Abort() // idempotent
	if err := w.Wait(); err != nil {
		t.Fatal("aborted run errored:", err)
	}
	if w.Status() != Aborted {
		t.Errorf("expected aborted, got %s", w.Status())
	}
}

func TestEmitterThrottlesProgress(t *testing.T) {
	res := NewResults(&bytes.Buffer{}, "p", nil, []string{"i"})
	e := NewEmitter(res, 1) // 1 Hz, burst 1
	var calls int
	e.OnProgress(func(float64) { calls++ })
	for i := 0; i < 100; i++ {
		e.Progress(float64(i))
	}
	if calls != 1 {
		t.Errorf("expected 1 accepted update at 1 Hz, got %d", calls)
	}
	if e.LastProgress() != 0 {
		t.Errorf("expected last accepted progress 0, got %g", e.LastProgress())
	}
}
