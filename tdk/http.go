package tdk

import (
	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// Genesys is the underlying supply that is wrapped
	Genesys *Genesys

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(g *Genesys) HTTPWrapper {
	w := HTTPWrapper{Genesys: g}
	rt := server.RouteTable{
		pat.Get("/version"):           generichttp.GetString(g.Identification),
		pat.Get("/voltage"):           generichttp.GetFloat(g.Voltage),
		pat.Get("/voltage-setpoint"):  generichttp.GetFloat(g.VoltageSetpoint),
		pat.Post("/voltage-setpoint"): generichttp.SetFloat(g.SetVoltage),
		pat.Get("/current"):           generichttp.GetFloat(g.Current),
		pat.Get("/current-setpoint"):  generichttp.GetFloat(g.CurrentSetpoint),
		pat.Post("/current-setpoint"): generichttp.SetFloat(g.SetCurrent),
		pat.Get("/output"):            generichttp.GetBool(g.Output),
		pat.Post("/output"):           generichttp.SetBool(g.SetOutput),
		pat.Get("/mode"):              generichttp.GetString(g.OperationMode),
		pat.Get("/over-voltage"):      generichttp.GetFloat(g.OverVoltage),
		pat.Post("/over-voltage"):     generichttp.SetFloat(g.SetOverVoltage),
		pat.Get("/under-voltage"):     generichttp.GetFloat(g.UnderVoltage),
		pat.Post("/under-voltage"):    generichttp.SetFloat(g.SetUnderVoltage),
		pat.Get("/foldback"):          generichttp.GetBool(g.Foldback),
		pat.Post("/foldback"):         generichttp.SetBool(g.SetFoldback),
		pat.Post("/shutdown"):         generichttp.Call(g.Shutdown),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}
