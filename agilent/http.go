package agilent

import (
	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// FunctionGenerator is the underlying generator that is wrapped
	FunctionGenerator *FunctionGenerator

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(f *FunctionGenerator) HTTPWrapper {
	w := HTTPWrapper{FunctionGenerator: f}
	rt := server.RouteTable{
		pat.Get("/function"):   generichttp.GetString(f.GetFunction),
		pat.Post("/function"):  generichttp.SetString(f.SetFunction),
		pat.Get("/frequency"):  generichttp.GetFloat(f.GetFrequency),
		pat.Post("/frequency"): generichttp.SetFloat(f.SetFrequency),
		pat.Get("/voltage"):    generichttp.GetFloat(f.GetVoltage),
		pat.Post("/voltage"):   generichttp.SetFloat(f.SetVoltage),
		pat.Get("/offset"):     generichttp.GetFloat(f.GetOffset),
		pat.Post("/offset"):    generichttp.SetFloat(f.SetOffset),
		pat.Get("/output"):     generichttp.GetBool(f.GetOutput),
		pat.Post("/output"):    generichttp.SetBool(f.SetOutput),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}
