package signalrecovery

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

func TestLockInXY(t *testing.T) {
	rw := &loopRW{}
	l, err := NewLockIn(rw, 12)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.serve.WriteString("1.234E-06,-5.678E-07\n")
	x, y, err := l.XY()
	if err != nil {
		t.Fatal("XY failed:", err)
	}
	if x != 1.234e-6 {
		t.Errorf("expected x 1.234 uV, got %g", x)
	}
	if y != -5.678e-7 {
		t.Errorf("expected y -0.5678 uV, got %g", y)
	}
}

func TestLockInSetDACWireFormat(t *testing.T) {
	rw := &loopRW{}
	l, err := NewLockIn(rw, 12)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.wrote.Reset()
	if err := l.SetDAC(2, -1.5); err != nil {
		t.Fatal("set DAC failed:", err)
	}
	if got := rw.wrote.String(); !strings.HasPrefix(got, "DAC. 2 -1.5\n") {
		t.Errorf("unexpected wire format %q", got)
	}
}

func TestLockInADC3(t *testing.T) {
	rw := &loopRW{}
	l, err := NewLockIn(rw, 12)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	rw.serve.WriteString("123456\n")
	counts, err := l.ADC3()
	if err != nil {
		t.Fatal("ADC3 failed:", err)
	}
	if counts != 123456 {
		t.Errorf("expected 123456 counts, got %g", counts)
	}
	rw.serve.WriteString("500\n")
	ms, err := l.ADC3Time()
	if err != nil {
		t.Fatal("ADC3TIME failed:", err)
	}
	if ms != 500 {
		t.Errorf("expected 500 ms, got %d", ms)
	}
	rw.wrote.Reset()
	if err := l.SetADC3Time(100); err != nil {
		t.Fatal("set integration time failed:", err)
	}
	if got := rw.wrote.String(); !strings.HasPrefix(got, "ADC3TIME 100\n") {
		t.Errorf("unexpected wire format %q", got)
	}
}

func TestLockInValidation(t *testing.T) {
	l, err := NewLockIn(&loopRW{}, 12)
	if err != nil {
		t.Fatal("could not create driver:", err)
	}
	if err := l.SetDAC(5, 0); err == nil {
		t.Error("DAC channel 5 should be rejected")
	}
	if err := l.SetDAC(1, 13); err == nil {
		t.Error("13 V should be rejected")
	}
	if err := l.SetSensitivityIndex(0); err == nil {
		t.Error("sensitivity index 0 should be rejected")
	}
	if err := l.SetTimeConstantIndex(30); err == nil {
		t.Error("time constant index 30 should be rejected")
	}
	if err := l.SetOscillatorFrequency(3e5); err == nil {
		t.Error("300 kHz should be rejected")
	}
	if _, err := l.ADC(4); err == nil {
		t.Error("ADC channel 4 should be rejected")
	}
	if err := l.SetADC3Time(5); err == nil {
		t.Error("5 ms integration time should be rejected")
	}
}
