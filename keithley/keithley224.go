// Package keithley provides interfaces to Keithley source and measure
// instruments over GPIB.  These instruments predate SCPI; their
// commands are single letters with arguments, executed by a trailing X.
package keithley

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcdo0486/gomeasure/gpib"
)

// display modes of the 224 front panel
const (
	DisplayCurrent = iota
	DisplayVoltageLimit
	DisplayDwell
)

// CurrentSource224 talks to a model 224 programmable current source
type CurrentSource224 struct {
	c *gpib.Controller
}

// NewCurrentSource224 creates a current source driver on a Prologix
// dongle reachable through rw, for the instrument at the given GPIB
// address
func NewCurrentSource224(rw io.ReadWriter, addr int) (*CurrentSource224, error) {
	c, err := gpib.NewController(rw, addr, false)
	if err != nil {
		return nil, err
	}
	return &CurrentSource224{c: c}, nil
}

// reading triggers a talk cycle and returns the three machine-format
// fields, e.g. NDCI+1.2345E-03,V+1.0E+01,W+5.000E-01
func (k *CurrentSource224) reading() (current, voltage, dwell float64, err error) {
	resp, err := k.c.Query("X")
	if err != nil {
		return 0, 0, 0, err
	}
	pieces := strings.Split(resp, ",")
	if len(pieces) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed reading %q", resp)
	}
	vals := make([]float64, 3)
	for i, p := range pieces {
		vals[i], err = strconv.ParseFloat(trimAlpha(p), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("malformed field %q in reading %q", p, resp)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

// trimAlpha strips the leading prefix letters from a machine-format
// field, leaving the signed number
func trimAlpha(s string) string {
	return strings.TrimLeft(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}

// Current returns the programmed output current in amps
func (k *CurrentSource224) Current() (float64, error) {
	i, _, _, err := k.reading()
	return i, err
}

// SetCurrent programs the output current, -101 to 101 mA
func (k *CurrentSource224) SetCurrent(amps float64) error {
	if amps < -0.101 || amps > 0.101 {
		return fmt.Errorf("current %g A out of range [-0.101,0.101]", amps)
	}
	return k.c.Command("I%gX", amps)
}

// VoltageLimit returns the compliance voltage in volts
func (k *CurrentSource224) VoltageLimit() (float64, error) {
	_, v, _, err := k.reading()
	return v, err
}

// SetVoltageLimit sets the compliance voltage, 1 to 105 V
func (k *CurrentSource224) SetVoltageLimit(volts int) error {
	if volts < 1 || volts > 105 {
		return fmt.Errorf("voltage limit %d V out of range [1,105]", volts)
	}
	return k.c.Command("V%dX", volts)
}

// Dwell returns the dwell time in seconds
func (k *CurrentSource224) Dwell() (float64, error) {
	_, _, w, err := k.reading()
	return w, err
}

// SetDwell sets the dwell time, 0.05 to 999.9 s
func (k *CurrentSource224) SetDwell(seconds float64) error {
	if seconds < 0.05 || seconds > 999.9 {
		return fmt.Errorf("dwell %g s out of range [0.05,999.9]", seconds)
	}
	return k.c.Command("W%gX", seconds)
}

// SetRange selects the output range, 0 for auto or 5 through 9 for the
// fixed ranges (20 uA through 100 mA, one decade per step)
func (k *CurrentSource224) SetRange(r int) error {
	if r != 0 && (r < 5 || r > 9) {
		return fmt.Errorf("range %d not 0 (auto) or in [5,9]", r)
	}
	return k.c.Command("R%dX", r)
}

// SetDisplay selects what the front panel shows, one of DisplayCurrent,
// DisplayVoltageLimit, DisplayDwell
func (k *CurrentSource224) SetDisplay(mode int) error {
	if mode < DisplayCurrent || mode > DisplayDwell {
		return fmt.Errorf("display mode %d out of range [0,2]", mode)
	}
	return k.c.Command("D%dX", mode)
}

// SetSRQMask programs which conditions assert SRQ on the bus, a bitmask
// of fault conditions, 0 to 31.  0 disables service requests.
func (k *CurrentSource224) SetSRQMask(mask int) error {
	if mask < 0 || mask > 31 {
		return fmt.Errorf("SRQ mask %d out of range [0,31]", mask)
	}
	return k.c.Command("M%dX", mask)
}

// Operate enables or disables the output
func (k *CurrentSource224) Operate(on bool) error {
	if on {
		return k.c.Command("F1X")
	}
	return k.c.Command("F0X")
}

// LocalMode returns the instrument to front panel control
func (k *CurrentSource224) LocalMode() error {
	return k.c.LocalMode()
}
