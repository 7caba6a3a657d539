package fwbell

import (
	"encoding/hex"
	"errors"
	"testing"
)

// frames captured from the vendor's own software
var capturedFrames = []struct {
	name string
	cmd  byte
	data []byte
	hex  string
}{
	{"identify", cmdIdentify, nil, "012b1800d07b0000"},
	{"read flux", cmdReadFlux, nil, "012b1000107c0000"},
	{"units ac gauss", cmdSetUnits, []byte{0, 1}, "012b12020001b440"},
	{"units ac tesla", cmdSetUnits, []byte{1, 1}, "012b120201012441"},
	{"units ac am", cmdSetUnits, []byte{2, 1}, "012b12020201d441"},
	{"units dc gauss", cmdSetUnits, []byte{0, 0}, "012b120200007481"},
	{"units dc tesla", cmdSetUnits, []byte{1, 0}, "012b12020100e480"},
	{"units dc am", cmdSetUnits, []byte{2, 0}, "012b120202001480"},
	{"auto range", cmdAutoRange, []byte{1}, "012b200101bed100"},
	{"query range", cmdQueryRange, nil, "012b1a00b07a0000"},
	{"range 0", cmdSetRange, []byte{0}, "012b19010073c000"},
	{"range 1", cmdSetRange, []byte{1}, "012b190101b30100"},
	{"range 2", cmdSetRange, []byte{2}, "012b190102b24100"},
	{"reset", cmdReset, []byte{0, 1}, "012b37020001b84b"},
}

func TestBuildFrameMatchesCapturedTraffic(t *testing.T) {
	for _, tc := range capturedFrames {
		got := hex.EncodeToString(buildFrame(tc.cmd, tc.data))
		if got != tc.hex {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.hex, got)
		}
	}
}

func TestParseFlux(t *testing.T) {
	// 0x0301 counts = 769, range byte 1 scales by 1e-4, marker 10 = valid
	resp := []byte{0x01, 0x2B, 0x10, 0x07, 0x03, 0x01, 0x00, 0x01, 0x00, 0x00, 0x0A}
	f, err := parseFlux(resp)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if f != 769e-4 {
		t.Errorf("expected 0.0769, got %g", f)
	}
	// negative counts come back as two's complement
	resp[4], resp[5] = 0xFF, 0xFE
	f, err = parseFlux(resp)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if f != -2e-4 {
		t.Errorf("expected -0.0002, got %g", f)
	}
	// invalid marker
	resp[10] = 0
	if _, err := parseFlux(resp); err == nil {
		t.Error("invalid reading marker should surface an error")
	}
}

func TestParseUnits(t *testing.T) {
	resp := []byte{0x01, 0x2B, 0x10, 0x07, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	u, err := parseUnits(resp)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if u != "dc:tesla" {
		t.Errorf("expected dc:tesla, got %q", u)
	}
	resp[9] = 1
	resp[6] = 0
	u, err = parseUnits(resp)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if u != "ac:gauss" {
		t.Errorf("expected ac:gauss, got %q", u)
	}
}

func TestParseIdentification(t *testing.T) {
	resp := []byte{0x01, 0x2B, 0x18, 0x05, 'B', 'e', 'l', 'l', '5', 0x00, 0x00}
	id, err := parseIdentification(resp)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if id != "Bell5" {
		t.Errorf("expected Bell5, got %q", id)
	}
}

// fakeTransport records frames and plays back canned replies
type fakeTransport struct {
	sent  [][]byte
	reply []byte
	err   error
}

func (f *fakeTransport) Transact(frame []byte) ([]byte, error) {
	f.sent = append(f.sent, frame)
	return f.reply, f.err
}

func (f *fakeTransport) Close() error { return nil }

func TestGaussmeterSetUnitsWireFormat(t *testing.T) {
	ft := &fakeTransport{reply: []byte{0}}
	g := &Gaussmeter{t: ft}
	if err := g.SetUnits("ac:tesla"); err != nil {
		t.Fatal("set units failed:", err)
	}
	want := "012b120201012441"
	got := hex.EncodeToString(ft.sent[0])
	if got != want {
		t.Errorf("expected frame %s, got %s", want, got)
	}
	if err := g.SetUnits("gauss"); err == nil {
		t.Error("units without coupling prefix should be rejected")
	}
}

func TestGaussmeterTransportErrorsPropagate(t *testing.T) {
	boom := errors.New("endpoint stall")
	g := &Gaussmeter{t: &fakeTransport{err: boom}}
	if _, err := g.Flux(); !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
}
