package keithley

import (
	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// CurrentSource is the underlying source that is wrapped
	CurrentSource *CurrentSource224

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(k *CurrentSource224) HTTPWrapper {
	w := HTTPWrapper{CurrentSource: k}
	rt := server.RouteTable{
		pat.Get("/current"):        generichttp.GetFloat(k.Current),
		pat.Post("/current"):       generichttp.SetFloat(k.SetCurrent),
		pat.Get("/voltage-limit"):  generichttp.GetFloat(k.VoltageLimit),
		pat.Post("/voltage-limit"): generichttp.SetInt(k.SetVoltageLimit),
		pat.Get("/dwell"):          generichttp.GetFloat(k.Dwell),
		pat.Post("/dwell"):         generichttp.SetFloat(k.SetDwell),
		pat.Post("/range"):         generichttp.SetInt(k.SetRange),
		pat.Post("/display"):       generichttp.SetInt(k.SetDisplay),
		pat.Post("/srq-mask"):      generichttp.SetInt(k.SetSRQMask),
		pat.Post("/operate"):       generichttp.SetBool(k.Operate),
		pat.Post("/local"):         generichttp.Call(k.LocalMode),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}
