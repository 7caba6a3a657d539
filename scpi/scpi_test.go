package scpi_test

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mcdo0486/gomeasure/comm"
	"github.com/mcdo0486/gomeasure/scpi"
)

// fakeInstrument answers a small SCPI dialect over TCP, newline terminated.
func fakeInstrument(t *testing.T) string {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal("could not listen:", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				rd := bufio.NewReader(c)
				devErr := ""
				for {
					line, err := rd.ReadString('\n')
					if err != nil {
						return
					}
					line = strings.TrimSpace(line)
					var resp []string
					for _, cmd := range strings.Split(line, ";") {
						cmd = strings.TrimSpace(strings.TrimPrefix(cmd, ":"))
						switch {
						case cmd == "*CLS":
							devErr = ""
						case cmd == "*IDN?":
							resp = append(resp, "ACME,MODEL1,0,1.0")
						case cmd == "READ?":
							resp = append(resp, "2.5E-1")
						case cmd == "COUNt?":
							resp = append(resp, "42")
						case cmd == "ALL?":
							resp = append(resp, "1.0,2.0,3.5")
						case cmd == "SYSTem:ERRor?":
							if devErr == "" {
								resp = append(resp, `+0,"No error"`)
							} else {
								resp = append(resp, devErr)
							}
						case strings.Contains(cmd, "?"):
							devErr = `-113,"Undefined header"`
						}
					}
					if len(resp) > 0 {
						c.Write([]byte(strings.Join(resp, ";") + "\n"))
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func newSCPI(t *testing.T, handshaking bool) *scpi.SCPI {
	addr := fakeInstrument(t)
	pool := comm.NewPool(1, time.Second, comm.TCPConnMaker(addr, time.Second))
	return &scpi.SCPI{Pool: pool, Handshaking: handshaking}
}

func TestReadString(t *testing.T) {
	s := newSCPI(t, false)
	resp, err := s.ReadString("*IDN?")
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if resp != "ACME,MODEL1,0,1.0" {
		t.Errorf("unexpected identification %q", resp)
	}
}

func TestReadFloat(t *testing.T) {
	s := newSCPI(t, false)
	f, err := s.ReadFloat("READ?")
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if f != 0.25 {
		t.Errorf("expected 0.25, got %g", f)
	}
}

func TestReadInt(t *testing.T) {
	s := newSCPI(t, false)
	i, err := s.ReadInt("COUNt?")
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if i != 42 {
		t.Errorf("expected 42, got %d", i)
	}
}

func TestReadValues(t *testing.T) {
	s := newSCPI(t, false)
	vals, err := s.ReadValues("ALL?")
	if err != nil {
		t.Fatal("read failed:", err)
	}
	want := []float64{1.0, 2.0, 3.5}
	if len(vals) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(vals))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("value %d: expected %g got %g", i, want[i], vals[i])
		}
	}
}

func TestHandshakingStripsErrorField(t *testing.T) {
	s := newSCPI(t, true)
	resp, err := s.ReadString("*IDN?")
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if resp != "ACME,MODEL1,0,1.0" {
		t.Errorf("handshaking should strip the error field, got %q", resp)
	}
}

func TestHandshakingSurfacesDeviceError(t *testing.T) {
	s := newSCPI(t, true)
	_, err := s.ReadString("BOGUS?")
	if err == nil {
		t.Fatal("expected a device error for an undefined header")
	}
	if !strings.Contains(err.Error(), "-113") {
		t.Errorf("expected the device error text, got %q", err.Error())
	}
}
