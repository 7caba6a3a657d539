// Package srs provides an interface to Stanford Research Systems
// instruments.  Currently supports the RGA line of residual gas
// analyzers.
package srs

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"

	"github.com/tarm/serial"
)

const timeout = 5 * time.Second

// the RGA talks 28800 baud 8N1 with hardware flow control
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        28800,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout}
}

// RGA talks to an RGA100/200/300 residual gas analyzer
type RGA struct {
	pool *comm.Pool
}

// NewRGA creates a new RGA.  addr is a serial device path or a
// host:port for a terminal server.
func NewRGA(addr string, isSerial bool) *RGA {
	var maker comm.CreationFunc
	if isSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, timeout)
	}
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &RGA{pool: pool}
}

// ask sends a query and returns the reply with the \n\r terminator removed
func (r *RGA) ask(cmd string) (string, error) {
	conn, err := r.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { r.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap, err = comm.NewTimeout(conn, timeout)
	if err != nil {
		return "", err
	}
	_, err = io.WriteString(wrap, cmd+"\r")
	if err != nil {
		return "", err
	}
	buf := make([]byte, 80)
	n, err := wrap.Read(buf)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf[:n]), "\n\r"), nil
}

// setChecked sends a parameter change and checks the STATUS byte the
// analyzer echoes back; a nonzero status means the hardware flagged an
// error during the change
func (r *RGA) setChecked(cmd string) error {
	resp, err := r.ask(cmd)
	if err != nil {
		return err
	}
	status, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return fmt.Errorf("command %q: malformed status byte %q", cmd, resp)
	}
	if status != 0 {
		return fmt.Errorf("command %q: analyzer reported status error %#02x", cmd, status)
	}
	return nil
}

func (r *RGA) askFloat(cmd string) (float64, error) {
	resp, err := r.ask(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(resp), 64)
}

func (r *RGA) askInt(cmd string) (int, error) {
	resp, err := r.ask(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(resp))
}

// Identification returns the analyzer ID string,
// SRSRGA<mass>VER<version>SN<serial>
func (r *RGA) Identification() (string, error) {
	return r.ask("ID?")
}

// MaxMass returns the largest mass the analyzer can scan, in AMU
func (r *RGA) MaxMass() (int, error) {
	return r.askInt("MO?")
}

// ElectronEnergy returns the electron impact ionization energy in eV
func (r *RGA) ElectronEnergy() (int, error) {
	return r.askInt("EE?")
}

// SetElectronEnergy sets the electron impact ionization energy,
// 25 to 105 eV
func (r *RGA) SetElectronEnergy(ev int) error {
	if ev < 25 || ev > 105 {
		return fmt.Errorf("electron energy %d eV out of range [25,105]", ev)
	}
	return r.setChecked(fmt.Sprintf("EE%d", ev))
}

// FilamentCurrent returns the electron emission current in mA
func (r *RGA) FilamentCurrent() (float64, error) {
	return r.askFloat("FL?")
}

// SetFilamentCurrent sets the electron emission current, 0.02 to
// 3.5 mA.  Zero turns the filament off.
func (r *RGA) SetFilamentCurrent(ma float64) error {
	if ma != 0 && (ma < 0.02 || ma > 3.5) {
		return fmt.Errorf("filament current %g mA out of range [0.02,3.5]", ma)
	}
	return r.setChecked(fmt.Sprintf("FL%.2f", ma))
}

// FilamentOff shuts the filament down
func (r *RGA) FilamentOff() error {
	return r.setChecked("FL0.00")
}

// IonEnergy returns the ion energy in eV, 8 or 12
func (r *RGA) IonEnergy() (int, error) {
	code, err := r.askInt("IE?")
	if err != nil {
		return 0, err
	}
	if code == 0 {
		return 8, nil
	}
	return 12, nil
}

// SetIonEnergy sets the ion energy, 8 or 12 eV
func (r *RGA) SetIonEnergy(ev int) error {
	var code int
	switch ev {
	case 8:
		code = 0
	case 12:
		code = 1
	default:
		return fmt.Errorf("ion energy %d eV not in {8, 12}", ev)
	}
	return r.setChecked(fmt.Sprintf("IE%d", code))
}

// FocusVoltage returns the focus plate bias in volts
func (r *RGA) FocusVoltage() (int, error) {
	return r.askInt("VF?")
}

// SetFocusVoltage sets the focus plate bias, 0 to 155 V
func (r *RGA) SetFocusVoltage(v int) error {
	if v < 0 || v > 155 {
		return fmt.Errorf("focus voltage %d out of range [0,155]", v)
	}
	return r.setChecked(fmt.Sprintf("VF%d", v))
}

// MultiplierVoltage returns the electron multiplier bias in volts,
// zero when the Faraday cup is selected
func (r *RGA) MultiplierVoltage() (int, error) {
	return r.askInt("HV?")
}

// SetMultiplierVoltage sets the electron multiplier bias, 10 to
// 2490 V.  Zero selects the Faraday cup detector.
func (r *RGA) SetMultiplierVoltage(v int) error {
	if v != 0 && (v < 10 || v > 2490) {
		return fmt.Errorf("multiplier voltage %d out of range [10,2490]", v)
	}
	return r.setChecked(fmt.Sprintf("HV%d", v))
}

// StoredMultiplierGain returns the stored CDEM gain in units of
// thousands, measured at the voltage reported by GainVoltage
func (r *RGA) StoredMultiplierGain() (float64, error) {
	return r.askFloat("MG?")
}

// SetStoredMultiplierGain stores the CDEM gain in units of thousands,
// 0 to 2000
func (r *RGA) SetStoredMultiplierGain(gain float64) error {
	if gain < 0 || gain > 2000 {
		return fmt.Errorf("multiplier gain %g out of range [0,2000]", gain)
	}
	// parameter storage commands do not echo a status byte
	_, err := r.ask(fmt.Sprintf("MG%g", gain))
	return err
}

// GainVoltage returns the CDEM bias the stored gain was measured at,
// in volts
func (r *RGA) GainVoltage() (int, error) {
	return r.askInt("MV?")
}

// SetGainVoltage stores the CDEM bias the gain was measured at, 10 to
// 2490 V
func (r *RGA) SetGainVoltage(v int) error {
	if v < 10 || v > 2490 {
		return fmt.Errorf("gain voltage %d out of range [10,2490]", v)
	}
	_, err := r.ask(fmt.Sprintf("MV%d", v))
	return err
}

// PartialSensitivity returns the stored partial pressure sensitivity
// in mA/Torr
func (r *RGA) PartialSensitivity() (float64, error) {
	return r.askFloat("SP?")
}

// SetPartialSensitivity stores the partial pressure sensitivity, 0 to
// 10 mA/Torr
func (r *RGA) SetPartialSensitivity(s float64) error {
	if s < 0 || s > 10 {
		return fmt.Errorf("partial sensitivity %g out of range [0,10]", s)
	}
	_, err := r.ask(fmt.Sprintf("SP%g", s))
	return err
}

// TotalSensitivity returns the stored total pressure sensitivity in
// mA/Torr
func (r *RGA) TotalSensitivity() (float64, error) {
	return r.askFloat("ST?")
}

// SetTotalSensitivity stores the total pressure sensitivity, 0 to
// 100 mA/Torr
func (r *RGA) SetTotalSensitivity(s float64) error {
	if s < 0 || s > 100 {
		return fmt.Errorf("total sensitivity %g out of range [0,100]", s)
	}
	_, err := r.ask(fmt.Sprintf("ST%g", s))
	return err
}

// NoiseFloor returns the detector noise floor setting, 0 (slow, quiet)
// through 7 (fast, noisy)
func (r *RGA) NoiseFloor() (int, error) {
	return r.askInt("NF?")
}

// SetNoiseFloor sets the detector noise floor, 0 through 7
func (r *RGA) SetNoiseFloor(nf int) error {
	if nf < 0 || nf > 7 {
		return fmt.Errorf("noise floor %d out of range [0,7]", nf)
	}
	// NF does not echo a status byte
	_, err := r.ask(fmt.Sprintf("NF%d", nf))
	return err
}

// ScanRange returns the initial and final masses of the scan in AMU
func (r *RGA) ScanRange() (int, int, error) {
	mi, err := r.askInt("MI?")
	if err != nil {
		return 0, 0, err
	}
	mf, err := r.askInt("MF?")
	if err != nil {
		return 0, 0, err
	}
	return mi, mf, nil
}

// SetScanRange sets the initial and final masses of the scan, each
// 1 to 100 AMU
func (r *RGA) SetScanRange(initial, final int) error {
	if initial < 1 || initial > 100 || final < 1 || final > 100 {
		return fmt.Errorf("scan range [%d,%d] outside [1,100] AMU", initial, final)
	}
	if initial >= final {
		return fmt.Errorf("scan range [%d,%d] is empty", initial, final)
	}
	if _, err := r.ask(fmt.Sprintf("MI%d", initial)); err != nil {
		return err
	}
	_, err := r.ask(fmt.Sprintf("MF%d", final))
	return err
}

// StepsPerAMU returns the scan resolution in points per AMU
func (r *RGA) StepsPerAMU() (int, error) {
	return r.askInt("SA?")
}

// SetStepsPerAMU sets the scan resolution, 10 to 25 points per AMU
func (r *RGA) SetStepsPerAMU(steps int) error {
	if steps < 10 || steps > 25 {
		return fmt.Errorf("steps per AMU %d out of range [10,25]", steps)
	}
	_, err := r.ask(fmt.Sprintf("SA%d", steps))
	return err
}

// ScanPoints returns the number of points an analog scan will produce
func (r *RGA) ScanPoints() (int, error) {
	return r.askInt("AP?")
}

// TotalPressure triggers a total pressure measurement and returns the
// ion current in amps
func (r *RGA) TotalPressure() (float64, error) {
	conn, err := r.pool.Get()
	if err != nil {
		return 0, err
	}
	defer func() { r.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap, err = comm.NewTimeout(conn, timeout)
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(wrap, "TP?\r")
	if err != nil {
		return 0, err
	}
	// the reply is one 4 byte little endian integer in 1e-16 A
	raw := make([]byte, 4)
	_, err = io.ReadFull(wrap, raw)
	if err != nil {
		return 0, err
	}
	counts := int32(binary.LittleEndian.Uint32(raw))
	return float64(counts) * 1e-16, nil
}

// AnalogScan runs one analog scan over the configured mass range and
// returns the ion currents in amps, one per scan point
func (r *RGA) AnalogScan() ([]float64, error) {
	npts, err := r.ScanPoints()
	if err != nil {
		return nil, err
	}
	conn, err := r.pool.Get()
	if err != nil {
		return nil, err
	}
	defer func() { r.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap, err = comm.NewTimeout(conn, timeout)
	if err != nil {
		return nil, err
	}
	_, err = io.WriteString(wrap, "SC1\r")
	if err != nil {
		return nil, err
	}
	// each point is a 4 byte little endian integer in 1e-16 A, with one
	// extra total pressure reading appended at the end of the sweep
	raw := make([]byte, 4*(npts+1))
	_, err = io.ReadFull(wrap, raw)
	if err != nil {
		return nil, err
	}
	out := make([]float64, npts)
	for i := range out {
		counts := int32(binary.LittleEndian.Uint32(raw[4*i : 4*i+4]))
		out[i] = float64(counts) * 1e-16
	}
	return out, nil
}

// HistogramPoints returns the number of points a histogram scan will
// produce, one per integer mass in the scan range
func (r *RGA) HistogramPoints() (int, error) {
	return r.askInt("HP?")
}

// HistogramScan runs one histogram scan over the configured mass range
// and returns the ion currents in amps, one per integer mass
func (r *RGA) HistogramScan() ([]float64, error) {
	npts, err := r.HistogramPoints()
	if err != nil {
		return nil, err
	}
	conn, err := r.pool.Get()
	if err != nil {
		return nil, err
	}
	defer func() { r.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap, err = comm.NewTimeout(conn, timeout)
	if err != nil {
		return nil, err
	}
	_, err = io.WriteString(wrap, "HS1\r")
	if err != nil {
		return nil, err
	}
	// as with the analog scan, one extra total pressure reading is
	// appended at the end of the sweep
	raw := make([]byte, 4*(npts+1))
	_, err = io.ReadFull(wrap, raw)
	if err != nil {
		return nil, err
	}
	out := make([]float64, npts)
	for i := range out {
		counts := int32(binary.LittleEndian.Uint32(raw[4*i : 4*i+4]))
		out[i] = float64(counts) * 1e-16
	}
	return out, nil
}

// SingleMass measures the ion current at one mass, 1 to the analyzer's
// mass limit, returning amps
func (r *RGA) SingleMass(mass int) (float64, error) {
	if mass < 1 {
		return 0, fmt.Errorf("mass %d must be positive", mass)
	}
	conn, err := r.pool.Get()
	if err != nil {
		return 0, err
	}
	defer func() { r.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap, err = comm.NewTimeout(conn, timeout)
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(wrap, fmt.Sprintf("MR%d\r", mass))
	if err != nil {
		return 0, err
	}
	raw := make([]byte, 4)
	_, err = io.ReadFull(wrap, raw)
	if err != nil {
		return 0, err
	}
	counts := int32(binary.LittleEndian.Uint32(raw))
	return float64(counts) * 1e-16, nil
}

// Degas runs the ionizer degas cycle for the given number of minutes,
// 0 to 20.  The analyzer is unresponsive until the cycle finishes.
func (r *RGA) Degas(minutes int) error {
	if minutes < 0 || minutes > 20 {
		return fmt.Errorf("degas time %d min out of range [0,20]", minutes)
	}
	return r.setChecked(fmt.Sprintf("DG%d", minutes))
}

// Calibrate runs the all-point detector calibration
func (r *RGA) Calibrate() error {
	return r.setChecked("CA")
}

// CalibrateElectrometer runs the electrometer's I-V calibration
func (r *RGA) CalibrateElectrometer() error {
	return r.setChecked("CL")
}

// ClearCommBuffers resets the analyzer's communication buffers
func (r *RGA) ClearCommBuffers() error {
	return r.setChecked("IN0")
}

// Standby turns off the filament and multiplier but keeps the
// electronics warm
func (r *RGA) Standby() error {
	return r.setChecked("IN2")
}
