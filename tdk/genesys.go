// Package tdk provides an interface to TDK-Lambda Genesys programmable
// DC power supplies.  The base type speaks the full serial command set;
// thin wrappers pin the voltage and current limits of specific models.
package tdk

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"

	"github.com/tarm/serial"
	"go.uber.org/multierr"
)

const timeout = 3 * time.Second

// the Genesys family talks 9600 baud 8N1 out of the box
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        9600,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout}
}

// Limits bounds the programmable values of one model
type Limits struct {
	// VoltageMax is the maximum programmable voltage in volts
	VoltageMax float64

	// CurrentMax is the maximum programmable current in amps
	CurrentMax float64

	// OVPMin and OVPMax bound the over voltage protection setpoint
	OVPMin, OVPMax float64
}

// GenesysGen4038 are the limits of the Gen40-38 (40V, 38A)
var GenesysGen4038 = Limits{VoltageMax: 40, CurrentMax: 38, OVPMin: 2, OVPMax: 44}

// GenesysGen8065 are the limits of the Gen80-65 (80V, 65A)
var GenesysGen8065 = Limits{VoltageMax: 80, CurrentMax: 65, OVPMin: 5, OVPMax: 88}

// Genesys talks to one supply on a serial line or multi-drop bus.
// Every command, including sets, elicits a reply from the supply ("OK"
// for sets) which is always drained to keep the line in sync.
type Genesys struct {
	pool *comm.Pool

	// Address is the multi-drop address of this supply, 0-30
	Address int

	// Limits bound programmable values before they touch the wire
	Limits Limits
}

// NewGenesys creates a new Genesys.  addr is a serial device path or a
// host:port for a terminal server.  dropAddr is the multi-drop bus
// address of the supply.
func NewGenesys(addr string, isSerial bool, dropAddr int, limits Limits) *Genesys {
	var maker comm.CreationFunc
	if isSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, timeout)
	}
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &Genesys{pool: pool, Address: dropAddr, Limits: limits}
}

// transact sends one command and returns the supply's reply
func transact(rw io.ReadWriter, cmd string) (string, error) {
	_, err := io.WriteString(rw, cmd)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 80)
	n, err := rw.Read(buf)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(buf[:n])), nil
}

// ask addresses the supply on the multi-drop bus, then sends a command
// and returns the reply.  Addressing on every checkout keeps two
// supplies on one line from answering each other's commands.
func (g *Genesys) ask(cmd string) (string, error) {
	if g.Address < 0 || g.Address > 30 {
		return "", fmt.Errorf("multi-drop address %d out of range [0,30]", g.Address)
	}
	conn, err := g.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { g.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap = comm.NewTerminator(conn, '\r', '\r')
	wrap, err = comm.NewTimeout(wrap, timeout)
	if err != nil {
		return "", err
	}
	var resp string
	resp, err = transact(wrap, fmt.Sprintf("ADR %d", g.Address))
	if err != nil {
		return "", err
	}
	if resp != "OK" {
		err = fmt.Errorf("supply at address %d did not answer selection, said %q", g.Address, resp)
		return "", err
	}
	return transact(wrap, cmd)
}

// set sends a command and verifies the supply acknowledged it
func (g *Genesys) set(cmd string) error {
	resp, err := g.ask(cmd)
	if err != nil {
		return err
	}
	if resp != "OK" {
		return fmt.Errorf("command %q not acknowledged, supply said %q", cmd, resp)
	}
	return nil
}

func (g *Genesys) askFloat(cmd string) (float64, error) {
	resp, err := g.ask(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(resp, 64)
}

// Identification returns the model identification, e.g. LAMBDA,GEN40-38
func (g *Genesys) Identification() (string, error) {
	return g.ask("IDN?")
}

// SoftwareVersion returns the firmware revision
func (g *Genesys) SoftwareVersion() (string, error) {
	return g.ask("REV?")
}

// SerialNumber returns the unit serial number
func (g *Genesys) SerialNumber() (string, error) {
	return g.ask("SN?")
}

// ClearStatus clears the FEVE and SEVE status registers
func (g *Genesys) ClearStatus() error {
	return g.set("CLS")
}

// Reset returns the supply to its power-on state, output off
func (g *Genesys) Reset() error {
	return g.set("RST")
}

// Remote returns the remote/local state, one of LOC, REM, LLO
func (g *Genesys) Remote() (string, error) {
	return g.ask("RMT?")
}

// SetRemote puts the supply in local (LOC), remote (REM), or local
// lockout (LLO) mode
func (g *Genesys) SetRemote(mode string) error {
	mode = strings.ToUpper(mode)
	switch mode {
	case "LOC", "REM", "LLO":
	default:
		return fmt.Errorf("remote mode %q not in {LOC, REM, LLO}", mode)
	}
	return g.set("RMT " + mode)
}

// VoltageSetpoint returns the programmed output voltage in volts
func (g *Genesys) VoltageSetpoint() (float64, error) {
	return g.askFloat("PV?")
}

// SetVoltage programs the output voltage in volts
func (g *Genesys) SetVoltage(v float64) error {
	if v < 0 || v > g.Limits.VoltageMax {
		return fmt.Errorf("voltage %g out of range [0,%g]", v, g.Limits.VoltageMax)
	}
	return g.set(fmt.Sprintf("PV %g", v))
}

// Voltage returns the measured output voltage in volts
func (g *Genesys) Voltage() (float64, error) {
	return g.askFloat("MV?")
}

// CurrentSetpoint returns the programmed output current in amps
func (g *Genesys) CurrentSetpoint() (float64, error) {
	return g.askFloat("PC?")
}

// SetCurrent programs the output current in amps
func (g *Genesys) SetCurrent(c float64) error {
	if c < 0 || c > g.Limits.CurrentMax {
		return fmt.Errorf("current %g out of range [0,%g]", c, g.Limits.CurrentMax)
	}
	return g.set(fmt.Sprintf("PC %g", c))
}

// Current returns the measured output current in amps
func (g *Genesys) Current() (float64, error) {
	return g.askFloat("MC?")
}

// OperationMode returns the regulation mode, CV, CC, or OFF
func (g *Genesys) OperationMode() (string, error) {
	return g.ask("MODE?")
}

// Output returns true if the output is enabled
func (g *Genesys) Output() (bool, error) {
	resp, err := g.ask("OUT?")
	if err != nil {
		return false, err
	}
	return resp == "ON", nil
}

// SetOutput enables or disables the output
func (g *Genesys) SetOutput(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return g.set("OUT " + state)
}

// Foldback returns true if foldback protection is armed
func (g *Genesys) Foldback() (bool, error) {
	resp, err := g.ask("FLD?")
	if err != nil {
		return false, err
	}
	return resp == "ON", nil
}

// SetFoldback arms or disarms foldback protection, which shuts the
// output off when the supply leaves its programmed regulation mode
func (g *Genesys) SetFoldback(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return g.set("FLD " + state)
}

// FoldbackDelay returns the additional foldback delay in multiples
// of 0.1s beyond the fixed 250ms
func (g *Genesys) FoldbackDelay() (int, error) {
	resp, err := g.ask("FBD?")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(resp)
}

// SetFoldbackDelay sets the additional foldback delay, 0-255, in
// multiples of 0.1s
func (g *Genesys) SetFoldbackDelay(delay int) error {
	if delay < 0 || delay > 255 {
		return fmt.Errorf("foldback delay %d out of range [0,255]", delay)
	}
	return g.set(fmt.Sprintf("FBD %d", delay))
}

// ResetFoldbackDelay returns the foldback delay to zero
func (g *Genesys) ResetFoldbackDelay() error {
	return g.set("FDBRST")
}

// OverVoltage returns the over voltage protection setpoint in volts
func (g *Genesys) OverVoltage() (float64, error) {
	return g.askFloat("OVP?")
}

// SetOverVoltage sets the over voltage protection setpoint in volts
func (g *Genesys) SetOverVoltage(v float64) error {
	if v < g.Limits.OVPMin || v > g.Limits.OVPMax {
		return fmt.Errorf("over voltage %g out of range [%g,%g]",
			v, g.Limits.OVPMin, g.Limits.OVPMax)
	}
	return g.set(fmt.Sprintf("OVP %g", v))
}

// SetOverVoltageMax sets the over voltage protection to its maximum
func (g *Genesys) SetOverVoltageMax() error {
	return g.set("OVM")
}

// UnderVoltage returns the under voltage limit in volts
func (g *Genesys) UnderVoltage() (float64, error) {
	return g.askFloat("UVL?")
}

// SetUnderVoltage sets the under voltage limit in volts.  Programmed
// voltages below this limit are rejected by the supply.
func (g *Genesys) SetUnderVoltage(v float64) error {
	if v < 0 || v > g.Limits.VoltageMax {
		return fmt.Errorf("under voltage %g out of range [0,%g]", v, g.Limits.VoltageMax)
	}
	return g.set(fmt.Sprintf("UVL %g", v))
}

// AutoRestart returns true if the supply restores its last output
// state at power-on
func (g *Genesys) AutoRestart() (bool, error) {
	resp, err := g.ask("AST?")
	if err != nil {
		return false, err
	}
	return resp == "ON", nil
}

// SetAutoRestart configures whether the supply restores its last
// output state at power-on
func (g *Genesys) SetAutoRestart(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return g.set("AST " + state)
}

// Filter returns the A/D filter rate in Hz, one of 18, 23, 46
func (g *Genesys) Filter() (int, error) {
	resp, err := g.ask("FILTER?")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(resp)
}

// SetFilter sets the A/D filter rate in Hz, one of 18, 23, 46
func (g *Genesys) SetFilter(rate int) error {
	switch rate {
	case 18, 23, 46:
	default:
		return fmt.Errorf("filter rate %d not in {18, 23, 46}", rate)
	}
	return g.set(fmt.Sprintf("FILTER %d", rate))
}

// Save stores the present settings in nonvolatile memory
func (g *Genesys) Save() error {
	return g.set("SAV")
}

// Recall restores the settings last stored with Save
func (g *Genesys) Recall() error {
	return g.set("RCL")
}

// Display returns the measured voltage, programmed voltage, measured
// current, programmed current, over voltage setpoint, and under
// voltage limit in one query
func (g *Genesys) Display() ([]float64, error) {
	resp, err := g.ask("DVC?")
	if err != nil {
		return nil, err
	}
	pieces := strings.Split(resp, ",")
	out := make([]float64, 0, len(pieces))
	for _, p := range pieces {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// RampToCurrent steps the programmed current to target over nsteps
// steps with pause between them, to avoid slamming the load
func (g *Genesys) RampToCurrent(target float64, nsteps int, pause time.Duration) error {
	if nsteps < 1 {
		return fmt.Errorf("ramp needs at least 1 step, got %d", nsteps)
	}
	start, err := g.CurrentSetpoint()
	if err != nil {
		return err
	}
	step := (target - start) / float64(nsteps)
	for i := 1; i <= nsteps; i++ {
		if err := g.SetCurrent(start + step*float64(i)); err != nil {
			return err
		}
		time.Sleep(pause)
	}
	return nil
}

// Shutdown ramps the current to zero and disables the output.  Both
// steps are attempted even if the first fails.
func (g *Genesys) Shutdown() error {
	rampErr := g.RampToCurrent(0, 20, 200*time.Millisecond)
	offErr := g.SetOutput(false)
	return multierr.Combine(rampErr, offErr)
}
