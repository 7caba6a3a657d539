package gpib

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

func TestNewControllerConfiguresDongle(t *testing.T) {
	rw := &loopRW{}
	_, err := NewController(rw, 12, true)
	if err != nil {
		t.Fatal("could not create controller:", err)
	}
	got := rw.wrote.String()
	for _, want := range []string{
		"++addr 12\n",
		"++mode 1\n",
		"++auto 0\n",
		"++eoi 1\n",
		"++read_tmo_ms 500\n",
		"++clr\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("setup missing %q in %q", want, got)
		}
	}
}

func TestNewControllerRejectsBadAddress(t *testing.T) {
	if _, err := NewController(&loopRW{}, 31, false); err == nil {
		t.Error("address 31 should be rejected")
	}
	if _, err := NewController(&loopRW{}, -1, false); err == nil {
		t.Error("address -1 should be rejected")
	}
}

func TestQueryIssuesReadCommand(t *testing.T) {
	rw := &loopRW{}
	c, err := NewController(rw, 7, false)
	if err != nil {
		t.Fatal("could not create controller:", err)
	}
	rw.wrote.Reset()
	rw.serve.WriteString("KEITHLEY,224,0,1.0\n")
	resp, err := c.Query("*IDN?")
	if err != nil {
		t.Fatal("query failed:", err)
	}
	if resp != "KEITHLEY,224,0,1.0" {
		t.Errorf("unexpected response %q", resp)
	}
	got := rw.wrote.String()
	if !strings.HasPrefix(got, "*IDN?\n") {
		t.Errorf("instrument command not relayed first: %q", got)
	}
	if !strings.Contains(got, "++read eoi\n") {
		t.Errorf("expected ++read eoi after query: %q", got)
	}
}

func TestSetAddressRetargets(t *testing.T) {
	rw := &loopRW{}
	c, err := NewController(rw, 7, false)
	if err != nil {
		t.Fatal("could not create controller:", err)
	}
	rw.wrote.Reset()
	if err := c.SetAddress(9); err != nil {
		t.Fatal("set address failed:", err)
	}
	if c.Address() != 9 {
		t.Errorf("address not updated, got %d", c.Address())
	}
	if !strings.Contains(rw.wrote.String(), "++addr 9\n") {
		t.Errorf("addr command not sent: %q", rw.wrote.String())
	}
}
