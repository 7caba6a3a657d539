package omega

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

func TestRunModeNamesCoverStateMachine(t *testing.T) {
	for code := uint32(ModeLoad); code <= ModeAutotune; code++ {
		if _, ok := runModeNames[code]; !ok {
			t.Errorf("run mode code %d has no name", code)
		}
	}
}

func TestNewCS8DPTRejectsBogusURL(t *testing.T) {
	if _, err := NewCS8DPT("carrier-pigeon://coop", 1); err == nil {
		t.Error("unknown transport scheme should be rejected")
	}
}

func TestDPF700MessageFraming(t *testing.T) {
	if got := mkMsg("V"); got != "@U?V" {
		t.Errorf("expected @U?V, got %q", got)
	}
}

// fakeMeter answers DPF700 queries over TCP
func fakeMeter(t *testing.T) string {
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
					if strings.HasPrefix(line, "@U?V") {
						c.Write([]byte("*V+123.45\r"))
					} else {
						c.Write([]byte("*?\r"))
					}
				}
			}(conn)
		}
	}()
	return l.Addr().String()
}

func TestDPF700Read(t *testing.T) {
	d := NewDPF700(fakeMeter(t), false)
	f, err := d.Read()
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if f != 123.45 {
		t.Errorf("expected 123.45, got %g", f)
	}
}
