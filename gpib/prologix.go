// Package gpib drives GPIB instruments through a Prologix GPIB-USB or
// GPIB-Ethernet controller.  The controller itself is addressed with
// ++-prefixed commands; anything else on the wire is relayed to the
// instrument at the currently assigned GPIB address.
package gpib

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Controller models a Prologix GPIB controller-in-charge.
type Controller struct {
	rw          io.ReadWriter
	primaryAddr int
	auto        bool
	eoi         bool
	term        byte
	eotChar     byte
}

// Option applies a configuration option to the controller.
type Option func(*Controller)

// WithReadAfterWrite turns on the controller's read-after-write mode, so
// queries do not need an explicit ++read command.
func WithReadAfterWrite() Option { return func(c *Controller) { c.auto = true } }

// NewController creates a controller-in-charge for the instrument at the
// given primary GPIB address, using rw as the path to the Prologix dongle
// (virtual COM port or TCP).  Enable clear to send Selected Device Clear to
// the address during setup.
func NewController(rw io.ReadWriter, addr int, clear bool, opts ...Option) (*Controller, error) {
	c := Controller{
		rw:          rw,
		primaryAddr: addr,
		auto:        false,
		eoi:         true,
		term:        '\n',
		eotChar:     '\n',
	}
	for _, opt := range opts {
		opt(&c)
	}
	if addr < 0 || addr > 30 {
		return nil, fmt.Errorf("invalid primary address %d (must be 0-30)", addr)
	}
	auto := "auto 0"
	if c.auto {
		auto = "auto 1"
	}
	cmds := []string{
		fmt.Sprintf("addr %d", c.primaryAddr),
		"mode 1", // controller-in-charge
		auto,
		"eoi 1",           // assert EOI with the last character
		"eos 0",           // CR+LF GPIB termination
		"read_tmo_ms 500", // read timeout for ++read
		fmt.Sprintf("eot_char %d", c.eotChar),
		"eot_enable 1", // append eot_char when EOI detected
	}
	if clear {
		cmds = append(cmds, "clr")
	}
	for _, cmd := range cmds {
		if err := c.CommandController(cmd); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Address returns the primary GPIB address the controller is set to talk to.
func (c *Controller) Address() int {
	return c.primaryAddr
}

// SetAddress points the controller at a different primary GPIB address, so
// one dongle can service a bus full of instruments.
func (c *Controller) SetAddress(addr int) error {
	if addr < 0 || addr > 30 {
		return fmt.Errorf("invalid primary address %d (must be 0-30)", addr)
	}
	err := c.CommandController(fmt.Sprintf("addr %d", addr))
	if err == nil {
		c.primaryAddr = addr
	}
	return err
}

// Command formats according to a format specifier if provided and sends an
// ASCII command to the instrument at the currently assigned GPIB address.
func (c *Controller) Command(format string, a ...interface{}) error {
	cmd := format
	if len(a) != 0 {
		cmd = fmt.Sprintf(format, a...)
	}
	_, err := fmt.Fprintf(c.rw, "%s%c", strings.TrimSpace(cmd), c.term)
	return err
}

// Query sends the given command to the instrument at the currently assigned
// GPIB address and returns the response with its terminator stripped.  If
// read-after-write is disabled (the default), a ++read eoi command is issued
// to make the controller listen for the reply.
func (c *Controller) Query(cmd string) (string, error) {
	if err := c.Command(cmd); err != nil {
		return "", fmt.Errorf("error writing command: %w", err)
	}
	if !c.auto {
		if err := c.CommandController("read eoi"); err != nil {
			return "", fmt.Errorf("error sending ++read: %w", err)
		}
	}
	s, err := bufio.NewReader(c.rw).ReadString(c.eotChar)
	if err == io.EOF {
		err = nil
	}
	return strings.TrimRight(s, "\r\n"), err
}

// CommandController sends the given command to the Prologix controller
// itself.  Two plus signs are prepended so it is not relayed over GPIB.
func (c *Controller) CommandController(cmd string) error {
	_, err := fmt.Fprintf(c.rw, "++%s%c", strings.ToLower(strings.TrimSpace(cmd)), c.term)
	return err
}

// QueryController sends the given command to the Prologix controller and
// returns its response as a string.
func (c *Controller) QueryController(cmd string) (string, error) {
	if err := c.CommandController(cmd); err != nil {
		return "", err
	}
	s, err := bufio.NewReader(c.rw).ReadString(c.eotChar)
	return strings.TrimRight(s, "\r\n"), err
}

// Version returns the controller's firmware version string.
func (c *Controller) Version() (string, error) {
	return c.QueryController("ver")
}

// LocalMode returns the instrument to front-panel (local) control.
func (c *Controller) LocalMode() error {
	return c.CommandController("loc")
}

// Clear sends Selected Device Clear to the currently addressed instrument.
func (c *Controller) Clear() error {
	return c.CommandController("clr")
}
