package lakeshore

import (
	"encoding/json"
	"net/http"

	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// Monitor is the underlying monitor that is wrapped
	Monitor *Monitor

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(m *Monitor) HTTPWrapper {
	w := HTTPWrapper{Monitor: m}
	rt := server.RouteTable{
		pat.Get("/version"):        generichttp.GetString(m.Identification),
		pat.Get("/temperature"):    generichttp.GetFloat(m.TemperatureKelvin),
		pat.Get("/temperature-c"):  generichttp.GetFloat(m.TemperatureCelsius),
		pat.Get("/temperature-f"):  generichttp.GetFloat(m.TemperatureFahrenheit),
		pat.Get("/sensor-reading"): generichttp.GetFloat(m.TemperatureSensor),
		pat.Get("/display-units"):  generichttp.GetString(m.DisplayUnit),
		pat.Post("/display-units"): generichttp.SetString(m.SetDisplayUnit),
		pat.Get("/analog-out"):     generichttp.GetFloat(m.AnalogOut),
		pat.Get("/alarm"):          w.HTTPAlarmStatus,
		pat.Post("/alarm"):         w.HTTPSetAlarm,
		pat.Post("/alarm-reset"):   generichttp.Call(m.ResetAlarm),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// HTTPAlarmStatus returns the alarm configuration as JSON
func (h HTTPWrapper) HTTPAlarmStatus(w http.ResponseWriter, r *http.Request) {
	a, err := h.Monitor.AlarmStatus()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HTTPSetAlarm decodes an Alarm from JSON and applies it
func (h HTTPWrapper) HTTPSetAlarm(w http.ResponseWriter, r *http.Request) {
	var a Alarm
	err := json.NewDecoder(r.Body).Decode(&a)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Monitor.SetAlarm(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
