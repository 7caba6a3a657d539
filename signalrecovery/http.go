package signalrecovery

import (
	"net/http"
	"strconv"

	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// LockIn is the underlying amplifier that is wrapped
	LockIn *LockIn

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(l *LockIn) HTTPWrapper {
	w := HTTPWrapper{LockIn: l}
	rt := server.RouteTable{
		pat.Get("/id"):                    generichttp.GetString(l.Identification),
		pat.Get("/x"):                     generichttp.GetFloat(l.X),
		pat.Get("/y"):                     generichttp.GetFloat(l.Y),
		pat.Get("/magnitude"):             generichttp.GetFloat(l.Magnitude),
		pat.Get("/phase"):                 generichttp.GetFloat(l.Phase),
		pat.Get("/sensitivity"):           generichttp.GetFloat(l.Sensitivity),
		pat.Post("/sensitivity"):          generichttp.SetInt(l.SetSensitivityIndex),
		pat.Get("/time-constant"):         generichttp.GetFloat(l.TimeConstant),
		pat.Post("/time-constant"):        generichttp.SetInt(l.SetTimeConstantIndex),
		pat.Get("/oscillator/amplitude"):  generichttp.GetFloat(l.OscillatorAmplitude),
		pat.Post("/oscillator/amplitude"): generichttp.SetFloat(l.SetOscillatorAmplitude),
		pat.Get("/oscillator/frequency"):  generichttp.GetFloat(l.OscillatorFrequency),
		pat.Post("/oscillator/frequency"): generichttp.SetFloat(l.SetOscillatorFrequency),
		pat.Get("/dac/:chan"):             w.perChannelFloat(l.DAC),
		pat.Post("/dac/:chan"):            w.perChannelSetFloat(l.SetDAC),
		pat.Get("/adc/:chan"):             w.perChannelFloat(l.ADC),
		pat.Get("/adc3"):                  generichttp.GetFloat(l.ADC3),
		pat.Get("/adc3-time"):             generichttp.GetInt(l.ADC3Time),
		pat.Post("/adc3-time"):            generichttp.SetInt(l.SetADC3Time),
		pat.Post("/auto-phase"):           generichttp.Call(l.AutoPhase),
		pat.Post("/auto-sensitivity"):     generichttp.Call(l.AutoSensitivity),
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

func channel(r *http.Request) (int, error) {
	return strconv.Atoi(pat.Param(r, "chan"))
}

func (h HTTPWrapper) perChannelFloat(fcn func(int) (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channel(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.GetFloat(func() (float64, error) { return fcn(ch) })(w, r)
	}
}

func (h HTTPWrapper) perChannelSetFloat(fcn func(int, float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channel(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.SetFloat(func(f float64) error { return fcn(ch, f) })(w, r)
	}
}
