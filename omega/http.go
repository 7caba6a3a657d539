package omega

import (
	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings for a CS8DPT controller
type HTTPWrapper struct {
	// Controller is the underlying controller that is wrapped
	Controller *CS8DPT

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(c *CS8DPT) HTTPWrapper {
	w := HTTPWrapper{Controller: c}
	rt := server.RouteTable{
		pat.Get("/temperature"): generichttp.GetFloat(c.Temperature),
		pat.Get("/setpoint"):    generichttp.GetFloat(c.Setpoint1),
		pat.Post("/setpoint"):   generichttp.SetFloat(c.SetSetpoint1),
		pat.Get("/alarm-high"):  generichttp.GetFloat(c.AlarmHigh),
		pat.Post("/alarm-high"): generichttp.SetFloat(c.SetAlarmHigh),
		pat.Get("/alarm-low"):   generichttp.GetFloat(c.AlarmLow),
		pat.Post("/alarm-low"):  generichttp.SetFloat(c.SetAlarmLow),
		pat.Get("/run-mode"):    generichttp.GetString(c.RunMode),
		pat.Post("/run"):        generichttp.Call(c.Run),
		pat.Post("/stop"):       generichttp.Call(c.Stop),
		pat.Post("/standby"):    generichttp.Call(c.Standby),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// DPF700HTTPWrapper provides HTTP bindings for a DPF700 flux meter
type DPF700HTTPWrapper struct {
	// Meter is the underlying meter that is wrapped
	Meter *DPF700

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewDPF700HTTPWrapper returns a new HTTP wrapper with the route table
// pre-configured
func NewDPF700HTTPWrapper(m *DPF700) DPF700HTTPWrapper {
	w := DPF700HTTPWrapper{Meter: m}
	w.RouteTable = server.RouteTable{
		pat.Get("/flux"): generichttp.GetFloat(m.Read),
	}
	return w
}

// RT satisfies server.HTTPer
func (h DPF700HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}
