// Package agilent provides an interface to Agilent test and
// measurement equipment.  Supports the 33220A and compatible function
// generators.
package agilent

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"
	"github.com/mcdo0486/gomeasure/scpi"
)

// output waveform shapes of the 33220A
var shapes = []string{"SIN", "SQU", "RAMP", "PULS", "NOIS", "DC", "USER"}

// FunctionGenerator is an interface to hardware of the same name
type FunctionGenerator struct {
	scpi.SCPI
}

// NewFunctionGenerator creates a new FunctionGenerator instance with
// the communication set up
func NewFunctionGenerator(addr string) *FunctionGenerator {
	maker := comm.BackingOffTCPConnMaker(addr, 3*time.Second)
	pool := comm.NewPool(1, time.Hour, maker)
	return &FunctionGenerator{scpi.SCPI{Pool: pool, Handshaking: true}}
}

// SetFunction configures the output waveform shape, one of sin, squ,
// ramp, puls, nois, dc, user
func (f *FunctionGenerator) SetFunction(fcn string) error {
	fcn = strings.ToUpper(fcn)
	ok := false
	for _, s := range shapes {
		if s == fcn {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("function %q not in {sin, squ, ramp, puls, nois, dc, user}", fcn)
	}
	return f.Write("FUNCtion " + fcn)
}

// GetFunction returns the current output waveform shape
func (f *FunctionGenerator) GetFunction() (string, error) {
	return f.ReadString("FUNCtion?")
}

// SetFrequency configures the output frequency of the generator in Hz
func (f *FunctionGenerator) SetFrequency(hz float64) error {
	return f.Write(fmt.Sprintf("FREQuency %G", hz))
}

// GetFrequency returns the frequency of the generator in Hz
func (f *FunctionGenerator) GetFrequency() (float64, error) {
	return f.ReadFloat("FREQuency?")
}

// SetVoltage configures the output amplitude of the signal in Vpp
func (f *FunctionGenerator) SetVoltage(volts float64) error {
	return f.Write(fmt.Sprintf("VOLTage %G", volts))
}

// GetVoltage returns the current output amplitude of the generator in Vpp
func (f *FunctionGenerator) GetVoltage() (float64, error) {
	return f.ReadFloat("VOLTage?")
}

// SetOffset configures the output voltage offset
func (f *FunctionGenerator) SetOffset(volts float64) error {
	return f.Write(fmt.Sprintf("VOLTage:OFFSet %G", volts))
}

// GetOffset gets the current voltage offset
func (f *FunctionGenerator) GetOffset() (float64, error) {
	return f.ReadFloat("VOLTage:OFFSet?")
}

// SetOutputLoad configures the adjustments inside the generator for
// the impedance of the load circuit
func (f *FunctionGenerator) SetOutputLoad(ohms float64) error {
	return f.Write(fmt.Sprintf("OUTPut:LOAD %G", ohms))
}

// SetOutput enables or disables the output on the front connector
func (f *FunctionGenerator) SetOutput(on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return f.Write("OUTPut " + state)
}

// GetOutput returns true if the generator is currently outputting a signal
func (f *FunctionGenerator) GetOutput() (bool, error) {
	return f.ReadBool("OUTPut?")
}
