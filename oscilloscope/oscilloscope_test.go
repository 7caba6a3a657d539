package oscilloscope

import (
	"bytes"
	"strings"
	"testing"
)

func TestPhysicalScalesBytes(t *testing.T) {
	c := Channel{
		Data:      []uint8{100, 128, 156},
		Scale:     0.01,
		Offset:    1,
		Reference: 128,
	}
	got := c.Physical()
	want := []float64{0.72, 1, 1.28}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("sample %d: expected %g, got %g", i, want[i], got[i])
		}
	}
}

func TestEncodeCSV(t *testing.T) {
	wav := Waveform{
		DT: 0.5,
		Channels: map[string]Channel{
			"CHANnel1": {Data: []int16{0, 1, 2}, Scale: 2, Offset: 0, Reference: 0},
		},
	}
	var buf bytes.Buffer
	if err := wav.EncodeCSV(&buf); err != nil {
		t.Fatal("encode failed:", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,CHANnel1" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "0.5,2" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestEncodeCSVEmptyWaveform(t *testing.T) {
	wav := Waveform{}
	if err := wav.EncodeCSV(&bytes.Buffer{}); err == nil {
		t.Error("empty waveform should not encode")
	}
}
