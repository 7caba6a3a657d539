package srs

import (
	"encoding/json"
	"net/http"

	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// RGA is the underlying analyzer that is wrapped
	RGA *RGA

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(r *RGA) HTTPWrapper {
	w := HTTPWrapper{RGA: r}
	rt := server.RouteTable{
		pat.Get("/version"):          generichttp.GetString(r.Identification),
		pat.Get("/total-pressure"):   generichttp.GetFloat(r.TotalPressure),
		pat.Get("/filament"):         generichttp.GetFloat(r.FilamentCurrent),
		pat.Post("/filament"):        generichttp.SetFloat(r.SetFilamentCurrent),
		pat.Post("/filament-off"):    generichttp.Call(r.FilamentOff),
		pat.Get("/electron-energy"):  generichttp.GetInt(r.ElectronEnergy),
		pat.Post("/electron-energy"): generichttp.SetInt(r.SetElectronEnergy),
		pat.Get("/noise-floor"):      generichttp.GetInt(r.NoiseFloor),
		pat.Post("/noise-floor"):     generichttp.SetInt(r.SetNoiseFloor),
		pat.Get("/multiplier-gain"):  generichttp.GetFloat(r.StoredMultiplierGain),
		pat.Post("/multiplier-gain"): generichttp.SetFloat(r.SetStoredMultiplierGain),
		pat.Get("/gain-voltage"):     generichttp.GetInt(r.GainVoltage),
		pat.Post("/gain-voltage"):    generichttp.SetInt(r.SetGainVoltage),
		pat.Get("/partial-sens"):     generichttp.GetFloat(r.PartialSensitivity),
		pat.Post("/partial-sens"):    generichttp.SetFloat(r.SetPartialSensitivity),
		pat.Get("/total-sens"):       generichttp.GetFloat(r.TotalSensitivity),
		pat.Post("/total-sens"):      generichttp.SetFloat(r.SetTotalSensitivity),
		pat.Post("/calibrate"):       generichttp.Call(r.Calibrate),
		pat.Post("/calibrate-el"):    generichttp.Call(r.CalibrateElectrometer),
		pat.Get("/spectrum"):         w.HTTPSpectrum,
		pat.Get("/histogram"):        w.HTTPHistogram,
		pat.Post("/standby"):         generichttp.Call(r.Standby),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// HTTPSpectrum runs one analog scan and returns the ion currents as a
// JSON array of amps
func (h HTTPWrapper) HTTPSpectrum(w http.ResponseWriter, r *http.Request) {
	pts, err := h.RGA.AnalogScan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(pts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HTTPHistogram runs one histogram scan and returns the ion currents as
// a JSON array of amps, one per integer mass
func (h HTTPWrapper) HTTPHistogram(w http.ResponseWriter, r *http.Request) {
	pts, err := h.RGA.HistogramScan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(pts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
