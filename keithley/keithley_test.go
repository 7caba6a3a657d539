package keithley

import (
	"bytes"
	"strings"
	"testing"
)

// loopRW records writes and serves canned responses to reads.
type loopRW struct {
	wrote bytes.Buffer
	serve bytes.Buffer
}

func (l *loopRW) Write(p []byte) (int, error) { return l.wrote.Write(p) }
func (l *loopRW) Read(p []byte) (int, error)  { return l.serve.Read(p) }

func TestCurrentSource224Reading(t *testing.T) {
	rw := &loopRW{}
	k, err := NewCurrentSource224(rw, 15)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.serve.WriteString("NDCI+1.2345E-03,V+1.0E+01,W+5.000E-01\n")
	i, err := k.Current()
	if err != nil {
		t.Fatal("reading failed:", err)
	}
	if i != 1.2345e-3 {
		t.Errorf("expected 1.2345 mA, got %g", i)
	}
	rw.serve.WriteString("NDCI+1.2345E-03,V+1.0E+01,W+5.000E-01\n")
	w, err := k.Dwell()
	if err != nil {
		t.Fatal("reading failed:", err)
	}
	if w != 0.5 {
		t.Errorf("expected 0.5 s dwell, got %g", w)
	}
}

func TestCurrentSource224SetCurrentWireFormat(t *testing.T) {
	rw := &loopRW{}
	k, err := NewCurrentSource224(rw, 15)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.wrote.Reset()
	if err := k.SetCurrent(0.05); err != nil {
		t.Fatal("set current failed:", err)
	}
	if got := rw.wrote.String(); got != "I0.05X\n" {
		t.Errorf("expected I0.05X, wrote %q", got)
	}
}

func TestCurrentSource224Validation(t *testing.T) {
	k, err := NewCurrentSource224(&loopRW{}, 15)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	if err := k.SetCurrent(0.2); err == nil {
		t.Error("200 mA should be rejected")
	}
	if err := k.SetVoltageLimit(110); err == nil {
		t.Error("110 V compliance should be rejected")
	}
	if err := k.SetDwell(0.01); err == nil {
		t.Error("10 ms dwell should be rejected")
	}
	if err := k.SetRange(3); err == nil {
		t.Error("range 3 should be rejected")
	}
	if err := k.SetSRQMask(32); err == nil {
		t.Error("SRQ mask 32 should be rejected")
	}
}

func TestCurrentSource224SRQMaskWireFormat(t *testing.T) {
	rw := &loopRW{}
	k, err := NewCurrentSource224(rw, 15)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.wrote.Reset()
	if err := k.SetSRQMask(5); err != nil {
		t.Fatal("set SRQ mask failed:", err)
	}
	if got := rw.wrote.String(); got != "M5X\n" {
		t.Errorf("expected M5X, wrote %q", got)
	}
}

func TestSMU236MeasureParsesBareReading(t *testing.T) {
	rw := &loopRW{}
	k, err := NewSMU236(rw, 16)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	if !strings.Contains(rw.wrote.String(), "G4,2,0X\n") {
		t.Errorf("output format not configured: %q", rw.wrote.String())
	}
	rw.serve.WriteString("-1.2345E-09\n")
	v, err := k.Measure()
	if err != nil {
		t.Fatal("measure failed:", err)
	}
	if v != -1.2345e-9 {
		t.Errorf("expected -1.2345 nA, got %g", v)
	}
}

func TestSMU236Validation(t *testing.T) {
	k, err := NewSMU236(&loopRW{}, 16)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	if err := k.SetSourceFunction(2); err == nil {
		t.Error("source function 2 should be rejected")
	}
	if err := k.SetFilter(6); err == nil {
		t.Error("filter exponent 6 should be rejected")
	}
	if err := k.SetIntegrationTime(4); err == nil {
		t.Error("integration code 4 should be rejected")
	}
}
