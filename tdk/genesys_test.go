package tdk

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

// fakeSupply answers like a Gen40-38 over TCP, CR terminated both ways
func fakeSupply(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	state := map[string]string{
		"PV": "0", "PC": "0", "OUT": "OFF",
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				rd := bufio.NewReader(c)
				// a real multi-drop supply stays silent until its
				// address is selected; here every command before ADR
				// earns an error code instead
				addressed := false
				for {
					line, err := rd.ReadString('\r')
					if err != nil {
						return
					}
					cmd := strings.TrimRight(line, "\r")
					var resp string
					switch {
					case strings.HasPrefix(cmd, "ADR "):
						addressed = true
						resp = "OK"
					case !addressed:
						resp = "C05"
					case cmd == "IDN?":
						resp = "LAMBDA,GEN40-38"
					case cmd == "MV?":
						resp = state["PV"]
					case cmd == "MC?":
						resp = state["PC"]
					case cmd == "PV?":
						resp = state["PV"]
					case cmd == "PC?":
						resp = state["PC"]
					case cmd == "OUT?":
						resp = state["OUT"]
					case cmd == "MODE?":
						resp = "CV"
					case strings.HasPrefix(cmd, "PV "):
						state["PV"] = strings.TrimPrefix(cmd, "PV ")
						resp = "OK"
					case strings.HasPrefix(cmd, "PC "):
						state["PC"] = strings.TrimPrefix(cmd, "PC ")
						resp = "OK"
					case strings.HasPrefix(cmd, "OUT "):
						state["OUT"] = strings.TrimPrefix(cmd, "OUT ")
						resp = "OK"
					default:
						resp = "C01"
					}
					c.Write([]byte(resp + "\r"))
				}
			}(conn)
		}
	}()
	return l.Addr().String()
}

func TestGenesysSetAndReadBack(t *testing.T) {
	// the fake answers C05 to anything sent before ADR, so this passing
	// also proves every command is preceded by bus addressing
	g := NewGenesys(fakeSupply(t), false, 6, GenesysGen4038)
	if err := g.SetVoltage(12.5); err != nil {
		t.Fatal("set voltage failed:", err)
	}
	v, err := g.VoltageSetpoint()
	if err != nil {
		t.Fatal("read setpoint failed:", err)
	}
	if v != 12.5 {
		t.Errorf("expected setpoint 12.5, got %g", v)
	}
	if err := g.SetOutput(true); err != nil {
		t.Fatal("output on failed:", err)
	}
	on, err := g.Output()
	if err != nil {
		t.Fatal("read output failed:", err)
	}
	if !on {
		t.Error("output should read back on")
	}
}

func TestGenesysUnacknowledgedSetIsAnError(t *testing.T) {
	g := NewGenesys(fakeSupply(t), false, 6, GenesysGen4038)
	// FLD is not implemented by the fake, so the supply answers with an
	// error code instead of OK
	if err := g.SetFoldback(true); err == nil {
		t.Error("set without OK reply should surface an error")
	}
}

func TestGenesysValidation(t *testing.T) {
	g := NewGenesys("/dev/null", true, 6, GenesysGen4038)
	if err := g.SetVoltage(41); err == nil {
		t.Error("41V exceeds the Gen40-38 limit and should be rejected")
	}
	if err := g.SetCurrent(-1); err == nil {
		t.Error("negative current should be rejected")
	}
	if err := g.SetOverVoltage(45); err == nil {
		t.Error("OVP above 44V should be rejected")
	}
	if err := g.SetFilter(60); err == nil {
		t.Error("filter rate 60 should be rejected")
	}
	if err := g.SetRemote("XYZ"); err == nil {
		t.Error("bogus remote mode should be rejected")
	}
	g.Address = 31
	if _, err := g.Identification(); err == nil {
		t.Error("address 31 should be rejected before touching the wire")
	}
}
