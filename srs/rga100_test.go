package srs

import (
	"bufio"
	"encoding/binary"
	"net"
	"strings"
	"testing"
)

// fakeRGA answers like an RGA100 over TCP.  Text replies end \n\r,
// scan data is raw little endian integers.
func fakeRGA(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				rd := bufio.NewReader(c)
				for {
					line, err := rd.ReadString('\r')
					if err != nil {
						return
					}
					cmd := strings.TrimRight(line, "\r")
					switch {
					case cmd == "ID?":
						c.Write([]byte("SRSRGA100VER0.24SN12345\n\r"))
					case cmd == "MO?":
						c.Write([]byte("100\n\r"))
					case cmd == "EE?":
						c.Write([]byte("70\n\r"))
					case cmd == "AP?":
						c.Write([]byte("3\n\r"))
					case cmd == "HP?":
						c.Write([]byte("2\n\r"))
					case cmd == "MG?":
						c.Write([]byte("1190.0\n\r"))
					case cmd == "MV?":
						c.Write([]byte("1400\n\r"))
					case cmd == "SP?":
						c.Write([]byte("0.1014\n\r"))
					case cmd == "ST?":
						c.Write([]byte("0.0653\n\r"))
					case cmd == "CL":
						c.Write([]byte("0\n\r"))
					case cmd == "HS1":
						// 2 masses plus total pressure
						buf := make([]byte, 12)
						for i, v := range []int32{500, 600, 7} {
							binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
						}
						c.Write(buf)
					case strings.HasPrefix(cmd, "MR"):
						buf := make([]byte, 4)
						v := int32(-900)
						binary.LittleEndian.PutUint32(buf, uint32(v))
						c.Write(buf)
					case cmd == "SC1":
						// 3 points plus total pressure, 1e-16 A counts
						buf := make([]byte, 16)
						for i, v := range []int32{100, -200, 3000, 42} {
							binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
						}
						c.Write(buf)
					case strings.HasPrefix(cmd, "EE"), strings.HasPrefix(cmd, "FL"),
						strings.HasPrefix(cmd, "HV"), strings.HasPrefix(cmd, "DG"):
						c.Write([]byte("0\n\r"))
					default:
						c.Write([]byte("1\n\r"))
					}
				}
			}(conn)
		}
	}()
	return l.Addr().String()
}

func TestRGAQueries(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	id, err := r.Identification()
	if err != nil {
		t.Fatal("id failed:", err)
	}
	if id != "SRSRGA100VER0.24SN12345" {
		t.Errorf("unexpected id %q", id)
	}
	ev, err := r.ElectronEnergy()
	if err != nil {
		t.Fatal("EE? failed:", err)
	}
	if ev != 70 {
		t.Errorf("expected 70 eV, got %d", ev)
	}
}

func TestRGASetChecksStatusByte(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	if err := r.SetElectronEnergy(70); err != nil {
		t.Error("status 0 should be success:", err)
	}
	// VF echoes status 1 from the fake
	if err := r.SetFocusVoltage(90); err == nil {
		t.Error("nonzero status byte should surface an error")
	}
}

func TestRGAAnalogScan(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	pts, err := r.AnalogScan()
	if err != nil {
		t.Fatal("scan failed:", err)
	}
	want := []float64{100e-16, -200e-16, 3000e-16}
	if len(pts) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(pts))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("point %d: expected %g, got %g", i, want[i], pts[i])
		}
	}
}

func TestRGAStoredCalibration(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	gain, err := r.StoredMultiplierGain()
	if err != nil {
		t.Fatal("MG? failed:", err)
	}
	if gain != 1190.0 {
		t.Errorf("expected gain 1190, got %g", gain)
	}
	sens, err := r.PartialSensitivity()
	if err != nil {
		t.Fatal("SP? failed:", err)
	}
	if sens != 0.1014 {
		t.Errorf("expected 0.1014 mA/Torr, got %g", sens)
	}
	if err := r.SetGainVoltage(1400); err != nil {
		t.Error("storing a legal gain voltage failed:", err)
	}
	if err := r.CalibrateElectrometer(); err != nil {
		t.Error("CL with status 0 should succeed:", err)
	}
}

func TestRGAHistogramScan(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	pts, err := r.HistogramScan()
	if err != nil {
		t.Fatal("scan failed:", err)
	}
	want := []float64{500e-16, 600e-16}
	if len(pts) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(pts))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("point %d: expected %g, got %g", i, want[i], pts[i])
		}
	}
}

func TestRGASingleMass(t *testing.T) {
	r := NewRGA(fakeRGA(t), false)
	amps, err := r.SingleMass(28)
	if err != nil {
		t.Fatal("MR failed:", err)
	}
	if amps != -900e-16 {
		t.Errorf("expected -9e-14 A, got %g", amps)
	}
	if _, err := r.SingleMass(0); err == nil {
		t.Error("mass 0 should be rejected")
	}
}

func TestRGAValidation(t *testing.T) {
	r := NewRGA("/dev/null", true)
	if err := r.SetElectronEnergy(20); err == nil {
		t.Error("20 eV should be rejected")
	}
	if err := r.SetFilamentCurrent(4); err == nil {
		t.Error("4 mA should be rejected")
	}
	if err := r.SetIonEnergy(10); err == nil {
		t.Error("10 eV should be rejected")
	}
	if err := r.SetScanRange(50, 10); err == nil {
		t.Error("inverted scan range should be rejected")
	}
	if err := r.Degas(30); err == nil {
		t.Error("30 min degas should be rejected")
	}
	if err := r.SetStoredMultiplierGain(3000); err == nil {
		t.Error("gain 3000 should be rejected")
	}
	if err := r.SetGainVoltage(5); err == nil {
		t.Error("5 V gain voltage should be rejected")
	}
	if err := r.SetPartialSensitivity(11); err == nil {
		t.Error("11 mA/Torr partial sensitivity should be rejected")
	}
	if err := r.SetTotalSensitivity(-1); err == nil {
		t.Error("negative total sensitivity should be rejected")
	}
}
