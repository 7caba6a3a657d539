// Package omega provides interfaces to Omega Engineering process
// instruments.  The CS8DPT benchtop controller speaks Modbus; the
// DPF700 flux meter a line-oriented ASCII protocol.
package omega

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
)

// CS8DPT talks to a CS8DPT platinum series benchtop controller over
// Modbus RTU or TCP
type CS8DPT struct {
	client *modbus.ModbusClient
}

// NewCS8DPT creates a controller driver.  url selects the transport,
// e.g. rtu:///dev/ttyUSB0 or tcp://192.168.0.10:502.  unitID is the
// Modbus station address of the controller.
func NewCS8DPT(url string, unitID uint8) (*CS8DPT, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     url,
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Open(); err != nil {
		return nil, err
	}
	if err := client.SetUnitId(unitID); err != nil {
		client.Close()
		return nil, err
	}
	return &CS8DPT{client: client}, nil
}

// Close shuts down the Modbus transport
func (c *CS8DPT) Close() error {
	return c.client.Close()
}

// Temperature returns the process value at the primary input, in the
// controller's configured units
func (c *CS8DPT) Temperature() (float64, error) {
	f, err := c.client.ReadFloat32(regCurrentInputValue, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// Setpoint1 returns the absolute setpoint of control loop 1
func (c *CS8DPT) Setpoint1() (float64, error) {
	f, err := c.client.ReadFloat32(regAbsoluteSetpoint1, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// SetSetpoint1 programs the absolute setpoint of control loop 1
func (c *CS8DPT) SetSetpoint1(value float64) error {
	return c.client.WriteFloat32(regAbsoluteSetpoint1, float32(value))
}

// Setpoint2 returns the absolute setpoint of control loop 2
func (c *CS8DPT) Setpoint2() (float64, error) {
	f, err := c.client.ReadFloat32(regAbsoluteSetpoint2, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// SetSetpoint2 programs the absolute setpoint of control loop 2
func (c *CS8DPT) SetSetpoint2(value float64) error {
	return c.client.WriteFloat32(regAbsoluteSetpoint2, float32(value))
}

// CurrentSetpoint1 returns the working setpoint of loop 1, which may
// differ from the absolute setpoint while ramping
func (c *CS8DPT) CurrentSetpoint1() (float64, error) {
	f, err := c.client.ReadFloat32(regCurrentSetpoint1, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// CurrentSetpoint2 returns the working setpoint of loop 2
func (c *CS8DPT) CurrentSetpoint2() (float64, error) {
	f, err := c.client.ReadFloat32(regCurrentSetpoint2, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// AlarmHigh returns the high alarm setpoint of alarm 1
func (c *CS8DPT) AlarmHigh() (float64, error) {
	f, err := c.client.ReadFloat32(regAlarmHighSetpoint1, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// SetAlarmHigh programs the high alarm setpoint of alarm 1
func (c *CS8DPT) SetAlarmHigh(value float64) error {
	return c.client.WriteFloat32(regAlarmHighSetpoint1, float32(value))
}

// AlarmLow returns the low alarm setpoint of alarm 1
func (c *CS8DPT) AlarmLow() (float64, error) {
	f, err := c.client.ReadFloat32(regAlarmLowSetpoint1, modbus.HOLDING_REGISTER)
	return float64(f), err
}

// SetAlarmLow programs the low alarm setpoint of alarm 1
func (c *CS8DPT) SetAlarmLow(value float64) error {
	return c.client.WriteFloat32(regAlarmLowSetpoint1, float32(value))
}

// RunMode returns the controller state machine mode as a string,
// e.g. run, idle, standby
func (c *CS8DPT) RunMode() (string, error) {
	code, err := c.client.ReadUint32(regRunMode, modbus.HOLDING_REGISTER)
	if err != nil {
		return "", err
	}
	name, ok := runModeNames[code]
	if !ok {
		return "", fmt.Errorf("unknown run mode code %d", code)
	}
	return name, nil
}

func (c *CS8DPT) setRunMode(mode uint32) error {
	return c.client.WriteUint32(regRunMode, mode)
}

// Run starts closed loop control
func (c *CS8DPT) Run() error {
	return c.setRunMode(ModeRun)
}

// Idle places the controller in idle, outputs off, display live
func (c *CS8DPT) Idle() error {
	return c.setRunMode(ModeIdle)
}

// Wait holds the controller in the wait state
func (c *CS8DPT) Wait() error {
	return c.setRunMode(ModeWait)
}

// Standby suspends control action but keeps the configuration loaded
func (c *CS8DPT) Standby() error {
	return c.setRunMode(ModeStandby)
}

// Stop terminates a running ramp and soak program
func (c *CS8DPT) Stop() error {
	return c.setRunMode(ModeStop)
}

// Pause freezes a running ramp and soak program
func (c *CS8DPT) Pause() error {
	return c.setRunMode(ModePause)
}

// Shutdown drives the controller into its shutdown state
func (c *CS8DPT) Shutdown() error {
	return c.setRunMode(ModeShutdown)
}
