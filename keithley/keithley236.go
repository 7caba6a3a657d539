package keithley

import (
	"fmt"
	"io"

	"github.com/mcdo0486/gomeasure/gpib"

	"github.com/gotmc/query"
)

// source functions of the 236
const (
	SourceVoltage = 0
	SourceCurrent = 1
)

// SMU236 talks to a model 236 source measure unit
type SMU236 struct {
	c *gpib.Controller
}

// NewSMU236 creates a source measure unit driver on a Prologix dongle
// reachable through rw, for the instrument at the given GPIB address.
// The output format is set to bare readings with no prefix so replies
// parse directly as numbers.
func NewSMU236(rw io.ReadWriter, addr int) (*SMU236, error) {
	c, err := gpib.NewController(rw, addr, false)
	if err != nil {
		return nil, err
	}
	k := &SMU236{c: c}
	// no prefix, measure value only, one line per talk
	if err := c.Command("G4,2,0X"); err != nil {
		return nil, err
	}
	return k, nil
}

// SetSourceFunction selects dc voltage or current sourcing
func (k *SMU236) SetSourceFunction(fcn int) error {
	if fcn != SourceVoltage && fcn != SourceCurrent {
		return fmt.Errorf("source function %d not in {0 voltage, 1 current}", fcn)
	}
	return k.c.Command("F%d,0X", fcn)
}

// SetBias programs the source level on the given range with the given
// compliance.  Range 0 is auto.  When sourcing voltage the level is in
// volts and compliance in amps; when sourcing current, vice versa.
func (k *SMU236) SetBias(level float64, rng int, compliance float64) error {
	if rng < 0 || rng > 10 {
		return fmt.Errorf("range index %d out of range [0,10]", rng)
	}
	if err := k.c.Command("B%g,%d,0X", level, rng); err != nil {
		return err
	}
	return k.c.Command("L%g,%dX", compliance, rng)
}

// Measure triggers a measurement and returns the measured value, amps
// when sourcing voltage and volts when sourcing current
func (k *SMU236) Measure() (float64, error) {
	return query.Float64(k.c, "H0X")
}

// Operate takes the output out of standby or puts it back
func (k *SMU236) Operate(on bool) error {
	if on {
		return k.c.Command("N1X")
	}
	return k.c.Command("N0X")
}

// SetFilter sets the reading filter, averaging 2^n readings, n in [0,5]
func (k *SMU236) SetFilter(n int) error {
	if n < 0 || n > 5 {
		return fmt.Errorf("filter exponent %d out of range [0,5]", n)
	}
	return k.c.Command("P%dX", n)
}

// SetIntegrationTime selects the A/D integration time, 0 fast (416us)
// through 3 line cycle (16.67ms)
func (k *SMU236) SetIntegrationTime(code int) error {
	if code < 0 || code > 3 {
		return fmt.Errorf("integration time code %d out of range [0,3]", code)
	}
	return k.c.Command("S%dX", code)
}

// LocalMode returns the instrument to front panel control
func (k *SMU236) LocalMode() error {
	return k.c.LocalMode()
}
