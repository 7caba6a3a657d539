// Package mcc provides an interface to Measurement Computing CB-7000
// series data acquisition modules.  The CB-7018 is an 8 channel
// thermocouple input; Superlogics 8017 modules speak the same ASCII
// protocol and work with this driver unchanged.
package mcc

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

// the CB-7000 series defaults to 9600 baud 8N1
func makeSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        9600,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout}
}

// DAQ talks to one module on an RS-485 party line
type DAQ struct {
	pool *comm.Pool

	// busAddr is the module's address on the party line, 0-255
	busAddr int
}

// NewDAQ creates a new DAQ.  addr is a serial device path or a
// host:port for a terminal server.  busAddr is the module's address
// on the RS-485 line.
func NewDAQ(addr string, isSerial bool, busAddr int) (*DAQ, error) {
	if busAddr < 0 || busAddr > 255 {
		return nil, fmt.Errorf("bus address %d out of range [0,255]", busAddr)
	}
	var maker comm.CreationFunc
	if isSerial {
		maker = comm.SerialConnMaker(makeSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, timeout)
	}
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &DAQ{pool: pool, busAddr: busAddr}, nil
}

// hexAddr renders the bus address the way the protocol wants it, two
// uppercase hex digits
func (d *DAQ) hexAddr() string {
	return fmt.Sprintf("%02X", d.busAddr)
}

func (d *DAQ) transact(cmd string) (string, error) {
	conn, err := d.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { d.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap = comm.NewTerminator(conn, '\r', '\r')
	wrap, err = comm.NewTimeout(wrap, timeout)
	if err != nil {
		return "", err
	}
	_, err = io.WriteString(wrap, cmd)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 80)
	n, err := wrap.Read(buf)
	if err != nil {
		return "", err
	}
	return checkResponse(cmd, strings.TrimSpace(string(buf[:n])))
}

// checkResponse validates the leading delimiter of a reply and strips
// it.  '>' and '!' mark valid replies, '?' an invalid command.
func checkResponse(cmd, resp string) (string, error) {
	if len(resp) == 0 {
		return "", fmt.Errorf("command %q: empty reply", cmd)
	}
	switch resp[0] {
	case '>', '!':
		return resp[1:], nil
	case '?':
		return "", fmt.Errorf("command %q rejected by the module", cmd)
	}
	return "", fmt.Errorf("command %q: malformed reply %q", cmd, resp)
}

// parseReadings splits a concatenated reading string, e.g.
// "+025.12+026.00-000.15", into floats.  Each reading begins with its
// sign; there are no separators.
func parseReadings(s string) ([]float64, error) {
	var out []float64
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || s[i] == '+' || s[i] == '-' {
			f, err := strconv.ParseFloat(s[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed reading %q in %q", s[start:i], s)
			}
			out = append(out, f)
			start = i
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no readings in %q", s)
	}
	return out, nil
}

// Temperatures reads all eight channels in one transaction
func (d *DAQ) Temperatures() ([]float64, error) {
	resp, err := d.transact("#" + d.hexAddr())
	if err != nil {
		return nil, err
	}
	return parseReadings(resp)
}

// Temperature reads a single channel, 0 through 7
func (d *DAQ) Temperature(channel int) (float64, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("channel %d out of range [0,7]", channel)
	}
	resp, err := d.transact(fmt.Sprintf("#%s%d", d.hexAddr(), channel))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(resp, 64)
}

// thermocoupleNames maps the module's input type codes to thermocouple
// letter designations
var thermocoupleNames = map[byte]string{
	0x0E: "J",
	0x0F: "K",
	0x10: "T",
	0x11: "E",
	0x12: "R",
	0x13: "S",
	0x14: "B",
	0x15: "N",
	0x16: "C",
}

// Configuration returns the module's raw configuration string,
// address, type code, baud code, and format byte
func (d *DAQ) Configuration() (string, error) {
	return d.transact("$" + d.hexAddr() + "2")
}

// thermocoupleFromConfig digs the input type out of a configuration
// reply, AATTCCFF, address then type then baud then format
func thermocoupleFromConfig(addrHex, resp string) (string, error) {
	body := strings.TrimPrefix(resp, addrHex)
	if len(body) < 2 {
		return "", fmt.Errorf("malformed configuration %q", resp)
	}
	code, err := strconv.ParseUint(body[:2], 16, 8)
	if err != nil {
		return "", fmt.Errorf("malformed type code in configuration %q", resp)
	}
	name, ok := thermocoupleNames[byte(code)]
	if !ok {
		return "", fmt.Errorf("type code %02X is not a thermocouple input", code)
	}
	return name, nil
}

// ThermocoupleType returns the letter designation of the configured
// input type, e.g. "K"
func (d *DAQ) ThermocoupleType() (string, error) {
	resp, err := d.Configuration()
	if err != nil {
		return "", err
	}
	return thermocoupleFromConfig(d.hexAddr(), resp)
}

// EnabledChannels returns the channel enable mask, bit n for channel n
func (d *DAQ) EnabledChannels() (byte, error) {
	resp, err := d.transact("$" + d.hexAddr() + "6")
	if err != nil {
		return 0, err
	}
	mask, err := strconv.ParseUint(strings.TrimPrefix(resp, d.hexAddr()), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("malformed enable mask %q", resp)
	}
	return byte(mask), nil
}

// SetEnabledChannels sets the channel enable mask, bit n for channel n.
// Disabled channels are skipped during scans, speeding up the rest.
func (d *DAQ) SetEnabledChannels(mask byte) error {
	_, err := d.transact(fmt.Sprintf("$%s5%02X", d.hexAddr(), mask))
	return err
}
