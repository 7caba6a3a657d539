package mcc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// DAQ is the underlying module that is wrapped
	DAQ *DAQ

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(d *DAQ) HTTPWrapper {
	w := HTTPWrapper{DAQ: d}
	rt := server.RouteTable{
		pat.Get("/temperatures"):      w.HTTPTemperatures,
		pat.Get("/temperature/:chan"): w.HTTPTemperature,
		pat.Get("/config"):            generichttp.GetString(d.Configuration),
		pat.Get("/thermocouple-type"): generichttp.GetString(d.ThermocoupleType),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// HTTPTemperatures scans every channel and returns the readings as a
// JSON array
func (h HTTPWrapper) HTTPTemperatures(w http.ResponseWriter, r *http.Request) {
	temps, err := h.DAQ.Temperatures()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(temps); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HTTPTemperature reads the channel named in the URL
func (h HTTPWrapper) HTTPTemperature(w http.ResponseWriter, r *http.Request) {
	ch, err := strconv.Atoi(pat.Param(r, "chan"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.GetFloat(func() (float64, error) { return h.DAQ.Temperature(ch) })(w, r)
}
