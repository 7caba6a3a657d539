package fwbell

import (
	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// Gaussmeter is the underlying meter that is wrapped
	Gaussmeter *Gaussmeter

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(g *Gaussmeter) HTTPWrapper {
	w := HTTPWrapper{Gaussmeter: g}
	rt := server.RouteTable{
		pat.Get("/version"):     generichttp.GetString(g.Identification),
		pat.Get("/flux"):        generichttp.GetFloat(g.Flux),
		pat.Get("/units"):       generichttp.GetString(g.Units),
		pat.Post("/units"):      generichttp.SetString(g.SetUnits),
		pat.Get("/range"):       generichttp.GetInt(g.Range),
		pat.Post("/range"):      generichttp.SetInt(g.SetRange),
		pat.Post("/auto-range"): generichttp.Call(g.AutoRange),
		pat.Post("/reset"):      generichttp.Call(g.Reset),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}
