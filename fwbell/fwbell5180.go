package fwbell

import (
	"fmt"
	"strings"

	"github.com/google/gousb"
	"go.uber.org/multierr"
)

// USB identifiers of the 5180
const (
	vendorID  = 0x16a2
	productID = 0x5100
)

// transport moves one request frame to the meter and returns its reply
type transport interface {
	Transact(frame []byte) ([]byte, error)
	Close() error
}

// usbTransport drives the meter's bulk endpoints
type usbTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
}

func openUSB() (*usbTransport, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("no gaussmeter found at %04x:%04x", vendorID, productID)
	}
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	out, err := intf.OutEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, err
	}
	in, err := intf.InEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, err
	}
	return &usbTransport{ctx: ctx, dev: dev, done: done, out: out, in: in}, nil
}

func (u *usbTransport) Transact(frame []byte) ([]byte, error) {
	if _, err := u.out.Write(frame); err != nil {
		return nil, err
	}
	buf := make([]byte, 128)
	n, err := u.in.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (u *usbTransport) Close() error {
	u.done()
	return multierr.Append(u.dev.Close(), u.ctx.Close())
}

// Gaussmeter talks to a model 5180 handheld gaussmeter
type Gaussmeter struct {
	t transport
}

// NewGaussmeter finds the first 5180 on the USB bus and claims it
func NewGaussmeter() (*Gaussmeter, error) {
	t, err := openUSB()
	if err != nil {
		return nil, err
	}
	return &Gaussmeter{t: t}, nil
}

// Close releases the USB interface
func (g *Gaussmeter) Close() error {
	return g.t.Close()
}

// Identification returns the meter's model and firmware string
func (g *Gaussmeter) Identification() (string, error) {
	resp, err := g.t.Transact(buildFrame(cmdIdentify, nil))
	if err != nil {
		return "", err
	}
	return parseIdentification(resp)
}

// Flux returns the field reading in the meter's current units
func (g *Gaussmeter) Flux() (float64, error) {
	resp, err := g.t.Transact(buildFrame(cmdReadFlux, nil))
	if err != nil {
		return 0, err
	}
	return parseFlux(resp)
}

// Units returns the measurement units, one of dc:gauss, dc:tesla,
// dc:am, ac:gauss, ac:tesla, ac:am
func (g *Gaussmeter) Units() (string, error) {
	resp, err := g.t.Transact(buildFrame(cmdReadFlux, nil))
	if err != nil {
		return "", err
	}
	return parseUnits(resp)
}

// SetUnits configures the measurement units with a coupling prefix,
// e.g. "dc:gauss" or "ac:tesla".  am is amps per meter.
func (g *Gaussmeter) SetUnits(units string) error {
	pieces := strings.SplitN(strings.ToLower(units), ":", 2)
	if len(pieces) != 2 {
		return fmt.Errorf("units %q want a coupling prefix, e.g. dc:gauss", units)
	}
	var coupling byte
	switch pieces[0] {
	case "dc":
		coupling = 0
	case "ac":
		coupling = 1
	default:
		return fmt.Errorf("coupling %q not in {dc, ac}", pieces[0])
	}
	var unit byte
	switch pieces[1] {
	case "gauss":
		unit = 0
	case "tesla":
		unit = 1
	case "am":
		unit = 2
	default:
		return fmt.Errorf("unit %q not in {gauss, tesla, am}", pieces[1])
	}
	_, err := g.t.Transact(buildFrame(cmdSetUnits, []byte{unit, coupling}))
	return err
}

// Range returns the active range index, 0 (finest) through 2 (coarsest)
func (g *Gaussmeter) Range() (int, error) {
	resp, err := g.t.Transact(buildFrame(cmdQueryRange, nil))
	if err != nil {
		return 0, err
	}
	return parseRange(resp)
}

// SetRange selects a fixed range, 0 through 2
func (g *Gaussmeter) SetRange(r int) error {
	if r < 0 || r > 2 {
		return fmt.Errorf("range %d out of range [0,2]", r)
	}
	_, err := g.t.Transact(buildFrame(cmdSetRange, []byte{byte(r)}))
	return err
}

// AutoRange puts the meter in auto ranging mode
func (g *Gaussmeter) AutoRange() error {
	_, err := g.t.Transact(buildFrame(cmdAutoRange, []byte{1}))
	return err
}

// Reset restores the meter to its power-on state
func (g *Gaussmeter) Reset() error {
	_, err := g.t.Transact(buildFrame(cmdReset, []byte{0, 1}))
	return err
}
