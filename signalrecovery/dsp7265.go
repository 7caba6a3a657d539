// Package signalrecovery provides an interface to Signal Recovery
// (formerly EG&G / Perkin Elmer) lock-in amplifiers over GPIB.
// Commands suffixed with a period return floating point readings
// instead of fixed point integers.
package signalrecovery

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mcdo0486/gomeasure/gpib"

	"github.com/gotmc/query"
)

// LockIn talks to a DSP 7265 lock-in amplifier
type LockIn struct {
	c *gpib.Controller
}

// NewLockIn creates a lock-in driver on a Prologix dongle reachable
// through rw, for the instrument at the given GPIB address
func NewLockIn(rw io.ReadWriter, addr int) (*LockIn, error) {
	c, err := gpib.NewController(rw, addr, false)
	if err != nil {
		return nil, err
	}
	return &LockIn{c: c}, nil
}

// Identification returns the instrument model number
func (l *LockIn) Identification() (string, error) {
	return l.c.Query("ID")
}

// X returns the in-phase signal in volts
func (l *LockIn) X() (float64, error) {
	return query.Float64(l.c, "X.")
}

// Y returns the quadrature signal in volts
func (l *LockIn) Y() (float64, error) {
	return query.Float64(l.c, "Y.")
}

// XY returns both signal components in one transaction
func (l *LockIn) XY() (float64, float64, error) {
	resp, err := l.c.Query("XY.")
	if err != nil {
		return 0, 0, err
	}
	pieces := strings.Split(resp, ",")
	if len(pieces) != 2 {
		return 0, 0, fmt.Errorf("malformed XY reading %q", resp)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(pieces[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(pieces[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// Magnitude returns the signal magnitude in volts
func (l *LockIn) Magnitude() (float64, error) {
	return query.Float64(l.c, "MAG.")
}

// Phase returns the signal phase in degrees
func (l *LockIn) Phase() (float64, error) {
	return query.Float64(l.c, "PHA.")
}

// Sensitivity returns the full scale sensitivity in volts
func (l *LockIn) Sensitivity() (float64, error) {
	return query.Float64(l.c, "SEN.")
}

// SetSensitivityIndex selects the full scale sensitivity from the
// instrument's table, index 1 (2 nV) through 27 (1 V)
func (l *LockIn) SetSensitivityIndex(n int) error {
	if n < 1 || n > 27 {
		return fmt.Errorf("sensitivity index %d out of range [1,27]", n)
	}
	return l.c.Command("SEN %d", n)
}

// TimeConstant returns the output filter time constant in seconds
func (l *LockIn) TimeConstant() (float64, error) {
	return query.Float64(l.c, "TC.")
}

// SetTimeConstantIndex selects the output filter time constant from
// the instrument's table, index 0 (10 us) through 29 (100 ks)
func (l *LockIn) SetTimeConstantIndex(n int) error {
	if n < 0 || n > 29 {
		return fmt.Errorf("time constant index %d out of range [0,29]", n)
	}
	return l.c.Command("TC %d", n)
}

// OscillatorAmplitude returns the internal oscillator amplitude in volts
func (l *LockIn) OscillatorAmplitude() (float64, error) {
	return query.Float64(l.c, "OA.")
}

// SetOscillatorAmplitude sets the internal oscillator amplitude,
// 0 to 5 V rms
func (l *LockIn) SetOscillatorAmplitude(volts float64) error {
	if volts < 0 || volts > 5 {
		return fmt.Errorf("oscillator amplitude %g V out of range [0,5]", volts)
	}
	return l.c.Command("OA. %g", volts)
}

// OscillatorFrequency returns the internal oscillator frequency in Hz
func (l *LockIn) OscillatorFrequency() (float64, error) {
	return query.Float64(l.c, "OF.")
}

// SetOscillatorFrequency sets the internal oscillator frequency,
// 0 to 250 kHz
func (l *LockIn) SetOscillatorFrequency(hz float64) error {
	if hz < 0 || hz > 2.5e5 {
		return fmt.Errorf("oscillator frequency %g Hz out of range [0,2.5e5]", hz)
	}
	return l.c.Command("OF. %g", hz)
}

// DAC returns the level of one of the four auxiliary analog outputs
// in volts
func (l *LockIn) DAC(n int) (float64, error) {
	if n < 1 || n > 4 {
		return 0, fmt.Errorf("DAC channel %d out of range [1,4]", n)
	}
	return query.Float64(l.c, fmt.Sprintf("DAC. %d", n))
}

// SetDAC sets one of the four auxiliary analog outputs, -12 to 12 V
// with 1 mV resolution
func (l *LockIn) SetDAC(n int, volts float64) error {
	if n < 1 || n > 4 {
		return fmt.Errorf("DAC channel %d out of range [1,4]", n)
	}
	if volts < -12 || volts > 12 {
		return fmt.Errorf("DAC level %g V out of range [-12,12]", volts)
	}
	return l.c.Command("DAC. %d %g", n, volts)
}

// ADC returns the voltage at one of the auxiliary analog inputs
func (l *LockIn) ADC(n int) (float64, error) {
	if n < 1 || n > 3 {
		return 0, fmt.Errorf("ADC channel %d out of range [1,3]", n)
	}
	return query.Float64(l.c, fmt.Sprintf("ADC. %d", n))
}

// ADC3 reads the third auxiliary input through its integrating
// converter, returning the accumulated count since the last read
func (l *LockIn) ADC3() (float64, error) {
	return query.Float64(l.c, "ADC3")
}

// ADC3Time returns the ADC3 integration time in milliseconds
func (l *LockIn) ADC3Time() (int, error) {
	resp, err := l.c.Query("ADC3TIME")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(resp))
}

// SetADC3Time sets the ADC3 integration time, 10 ms to 2000 ms.  The
// converter restarts its accumulation when the time changes.
func (l *LockIn) SetADC3Time(ms int) error {
	if ms < 10 || ms > 2000 {
		return fmt.Errorf("integration time %d ms out of range [10,2000]", ms)
	}
	return l.c.Command("ADC3TIME %d", ms)
}

// AutoPhase runs the auto phase routine, zeroing Y on a steady signal
func (l *LockIn) AutoPhase() error {
	return l.c.Command("AQN")
}

// AutoSensitivity picks the lowest full scale range that does not
// overload on the present signal
func (l *LockIn) AutoSensitivity() error {
	return l.c.Command("AS")
}
