// Package lakeshore provides an interface to Lake Shore temperature
// monitors.  Supports the Model 211, and likely its siblings.
package lakeshore

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"

	"github.com/tarm/serial"
)

const timeout = 3 * time.Second

// the 211 talks 9600 baud, 7 data bits, odd parity, 1 stop bit
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        9600,
		Size:        7,
		Parity:      serial.ParityOdd,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout}
}

// DisplayUnits maps the human name of a display unit to the DISPFLD code
var DisplayUnits = map[string]int{
	"kelvin":     0,
	"celsius":    1,
	"sensor":     2,
	"fahrenheit": 3,
}

// AnalogMode selects what the analog output is slaved to
type AnalogMode int

// Analog output modes
const (
	AnalogVoltage AnalogMode = iota
	AnalogCurrent
)

// AnalogRange selects the temperature span of the analog output
type AnalogRange int

// Analog output ranges, upper bounds in Kelvin
const (
	Range20K AnalogRange = iota
	Range100K
	Range200K
	Range325K
	Range475K
	Range1000K
)

// Alarm describes the alarm configuration of the input
type Alarm struct {
	// On is true if the alarm is enabled
	On bool `json:"on"`

	// HighValue triggers the alarm when the temperature rises above it
	HighValue float64 `json:"highValue"`

	// LowValue triggers the alarm when the temperature falls below it
	LowValue float64 `json:"lowValue"`

	// Deadband is how far the temperature must move back inside the limits
	// to clear the alarm condition
	Deadband float64 `json:"deadband"`

	// Latch holds the alarm active until it is explicitly reset
	Latch bool `json:"latch"`
}

// Monitor talks to a Model 211 temperature monitor
type Monitor struct {
	pool *comm.Pool
}

// NewMonitor creates a new Monitor.  addr is either a serial device path
// or a host:port for a terminal server, per serial.
func NewMonitor(addr string, isSerial bool) *Monitor {
	var maker comm.CreationFunc
	if isSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, timeout)
	}
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &Monitor{pool: pool}
}

func (m *Monitor) writeRead(cmd string) (string, error) {
	conn, err := m.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { m.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap = comm.NewTerminator(conn, '\n', '\n')
	wrap, err = comm.NewTimeout(wrap, timeout)
	if err != nil {
		return "", err
	}
	// the monitor wants CRLF termination both ways
	_, err = io.WriteString(wrap, cmd+"\r")
	if err != nil {
		return "", err
	}
	buf := make([]byte, 80)
	n, err := wrap.Read(buf)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf[:n]), "\r"), nil
}

func (m *Monitor) write(cmd string) error {
	conn, err := m.pool.Get()
	if err != nil {
		return err
	}
	defer func() { m.pool.ReturnWithError(conn, err) }()
	_, err = io.WriteString(conn, cmd+"\r\n")
	return err
}

func (m *Monitor) readFloat(cmd string) (float64, error) {
	resp, err := m.writeRead(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(resp), 64)
}

// Identification returns the identifying string from the monitor,
// LSCI,MODEL211,<serial>,<firmware date>
func (m *Monitor) Identification() (string, error) {
	return m.writeRead("*IDN?")
}

// TemperatureKelvin returns the sensor temperature in Kelvin
func (m *Monitor) TemperatureKelvin() (float64, error) {
	return m.readFloat("KRDG?")
}

// TemperatureCelsius returns the sensor temperature in Celsius
func (m *Monitor) TemperatureCelsius() (float64, error) {
	return m.readFloat("CRDG?")
}

// TemperatureFahrenheit returns the sensor temperature in Fahrenheit
func (m *Monitor) TemperatureFahrenheit() (float64, error) {
	return m.readFloat("FRDG?")
}

// TemperatureSensor returns the raw sensor reading in sensor units
func (m *Monitor) TemperatureSensor() (float64, error) {
	return m.readFloat("SRDG?")
}

// DisplayUnit returns the unit shown on the front panel display,
// one of kelvin, celsius, sensor, fahrenheit
func (m *Monitor) DisplayUnit() (string, error) {
	resp, err := m.writeRead("DISPFLD?")
	if err != nil {
		return "", err
	}
	code, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return "", err
	}
	for name, c := range DisplayUnits {
		if c == code {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown display unit code %d", code)
}

// SetDisplayUnit configures the unit shown on the front panel display
func (m *Monitor) SetDisplayUnit(unit string) error {
	code, ok := DisplayUnits[strings.ToLower(unit)]
	if !ok {
		return fmt.Errorf("display unit %q not in {kelvin, celsius, sensor, fahrenheit}", unit)
	}
	return m.write(fmt.Sprintf("DISPFLD %d", code))
}

// AnalogConfiguration returns the analog output mode and range
func (m *Monitor) AnalogConfiguration() (AnalogMode, AnalogRange, error) {
	resp, err := m.writeRead("ANALOG?")
	if err != nil {
		return 0, 0, err
	}
	pieces := strings.Split(resp, ",")
	if len(pieces) != 2 {
		return 0, 0, fmt.Errorf("malformed ANALOG? response %q", resp)
	}
	mode, err := strconv.Atoi(strings.TrimSpace(pieces[0]))
	if err != nil {
		return 0, 0, err
	}
	rng, err := strconv.Atoi(strings.TrimSpace(pieces[1]))
	if err != nil {
		return 0, 0, err
	}
	return AnalogMode(mode), AnalogRange(rng), nil
}

// SetAnalogConfiguration configures the analog output mode and range
func (m *Monitor) SetAnalogConfiguration(mode AnalogMode, rng AnalogRange) error {
	if mode < AnalogVoltage || mode > AnalogCurrent {
		return fmt.Errorf("analog mode %d out of range [0,1]", mode)
	}
	if rng < Range20K || rng > Range1000K {
		return fmt.Errorf("analog range %d out of range [0,5]", rng)
	}
	return m.write(fmt.Sprintf("ANALOG %d,%d", mode, rng))
}

// AnalogOut returns the analog output level as a percentage of full scale
func (m *Monitor) AnalogOut() (float64, error) {
	return m.readFloat("AOUT?")
}

// Relay returns the mode of the given relay (1 = low alarm, 2 = high alarm).
// Modes are 0 off, 1 on, 2 follows the alarms.
func (m *Monitor) Relay(number int) (int, error) {
	if number != 1 && number != 2 {
		return 0, fmt.Errorf("relay number %d must be 1 or 2", number)
	}
	resp, err := m.writeRead(fmt.Sprintf("RELAY? %d", number))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(resp))
}

// SetRelay configures the mode of the given relay
func (m *Monitor) SetRelay(number, mode int) error {
	if number != 1 && number != 2 {
		return fmt.Errorf("relay number %d must be 1 or 2", number)
	}
	if mode < 0 || mode > 2 {
		return fmt.Errorf("relay mode %d out of range [0,2]", mode)
	}
	return m.write(fmt.Sprintf("RELAY %d,%d", number, mode))
}

// AlarmStatus queries the current alarm configuration
func (m *Monitor) AlarmStatus() (Alarm, error) {
	resp, err := m.writeRead("ALARM?")
	if err != nil {
		return Alarm{}, err
	}
	return parseAlarm(resp)
}

// SetAlarm configures the alarm parameters for the input
func (m *Monitor) SetAlarm(a Alarm) error {
	on, latch := 0, 0
	if a.On {
		on = 1
	}
	if a.Latch {
		latch = 1
	}
	return m.write(fmt.Sprintf("ALARM %d,%g,%g,%g,%d",
		on, a.HighValue, a.LowValue, a.Deadband, latch))
}

// ResetAlarm clears a latched alarm
func (m *Monitor) ResetAlarm() error {
	return m.write("ALMRST")
}

// parseAlarm converts an ALARM? response, e.g. "1,+270.0,+0.0,+0,1",
// into an Alarm
func parseAlarm(resp string) (Alarm, error) {
	pieces := strings.Split(resp, ",")
	if len(pieces) != 5 {
		return Alarm{}, fmt.Errorf("malformed ALARM? response %q", resp)
	}
	var (
		a    Alarm
		ints [2]int
		err  error
	)
	for i, idx := range []int{0, 4} {
		ints[i], err = strconv.Atoi(strings.TrimSpace(pieces[idx]))
		if err != nil {
			return Alarm{}, err
		}
	}
	a.On = ints[0] == 1
	a.Latch = ints[1] == 1
	floats := []*float64{&a.HighValue, &a.LowValue, &a.Deadband}
	for i, idx := range []int{1, 2, 3} {
		*floats[i], err = strconv.ParseFloat(strings.TrimSpace(pieces[idx]), 64)
		if err != nil {
			return Alarm{}, err
		}
	}
	return a, nil
}
