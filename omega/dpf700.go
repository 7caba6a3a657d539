package omega

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"

	"github.com/tarm/serial"
)

const dpfTimeout = 3 * time.Second

// the DPF700 talks 19200 baud, 7 data bits, even parity
func makeDPFSerConf(addr string) *serial.Config {
	return &serial.Config{
		Name:        addr,
		Baud:        19200,
		Size:        7,
		Parity:      serial.ParityEven,
		StopBits:    serial.Stop1,
		ReadTimeout: dpfTimeout}
}

// DPF700 talks to a DPF700 series flux meter
type DPF700 struct {
	pool *comm.Pool
}

// NewDPF700 creates a new flux meter driver.  addr is a serial device
// path or a host:port for a terminal server.
func NewDPF700(addr string, isSerial bool) *DPF700 {
	var maker comm.CreationFunc
	if isSerial {
		maker = comm.SerialConnMaker(makeDPFSerConf(addr))
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, dpfTimeout)
	}
	pool := comm.NewPool(1, 10*time.Second, maker)
	return &DPF700{pool: pool}
}

// mkMsg frames a command the way the meter wants it, @U?<cmd>
func mkMsg(cmd string) string {
	return "@U?" + cmd
}

func (d *DPF700) transact(cmd string) (string, error) {
	conn, err := d.pool.Get()
	if err != nil {
		return "", err
	}
	defer func() { d.pool.ReturnWithError(conn, err) }()
	var wrap io.ReadWriter
	wrap = comm.NewTerminator(conn, '\r', '\r')
	wrap, err = comm.NewTimeout(wrap, dpfTimeout)
	if err != nil {
		return "", err
	}
	_, err = io.WriteString(wrap, mkMsg(cmd))
	if err != nil {
		return "", err
	}
	buf := make([]byte, 80)
	n, err := wrap.Read(buf)
	if err != nil {
		return "", err
	}
	// replies lead with a * acknowledgement
	return strings.TrimLeft(string(buf[:n]), "*"), nil
}

// Read returns the current flux reading from the meter
func (d *DPF700) Read() (float64, error) {
	resp, err := d.transact("V")
	if err != nil {
		return 0, err
	}
	if len(resp) < 2 {
		return 0, fmt.Errorf("malformed reading %q", resp)
	}
	return strconv.ParseFloat(resp[1:], 64)
}
