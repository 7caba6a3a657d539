package keysight

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcdo0486/gomeasure/generichttp"
	"github.com/mcdo0486/gomeasure/server"

	"goji.io/pat"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
type HTTPWrapper struct {
	// Scope is the underlying scope that is wrapped
	Scope *Scope

	// RouteTable maps goji patterns to http handlers
	RouteTable server.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(s *Scope) HTTPWrapper {
	w := HTTPWrapper{Scope: s}
	rt := server.RouteTable{
		pat.Get("/scale/:chan"):      w.perChannelFloat(s.GetScale),
		pat.Post("/scale/:chan"):     w.perChannelSetFloat(s.SetScale),
		pat.Get("/offset/:chan"):     w.perChannelFloat(s.GetOffset),
		pat.Post("/offset/:chan"):    w.perChannelSetFloat(s.SetOffset),
		pat.Get("/coupling/:chan"):   w.perChannelString(s.GetCoupling),
		pat.Post("/coupling/:chan"):  w.perChannelSetString(s.SetCoupling),
		pat.Get("/probe/:chan"):      w.perChannelFloat(s.GetProbeAttenuation),
		pat.Post("/probe/:chan"):     w.perChannelSetFloat(s.SetProbeAttenuation),
		pat.Get("/timebase"):         generichttp.GetFloat(s.GetTimebase),
		pat.Post("/timebase"):        generichttp.SetFloat(s.SetTimebase),
		pat.Get("/timebase-offset"):  generichttp.GetFloat(s.GetTimebaseOffset),
		pat.Post("/timebase-offset"): generichttp.SetFloat(s.SetTimebaseOffset),
		pat.Post("/autoscale"):       generichttp.Call(s.Autoscale),
		pat.Post("/run"):             generichttp.Call(s.Run),
		pat.Post("/stop"):            generichttp.Call(s.Stop),
		pat.Post("/single"):          generichttp.Call(s.Single),
		pat.Get("/acq-type"):         generichttp.GetString(s.GetAcquisitionType),
		pat.Post("/acq-type"):        generichttp.SetString(s.SetAcquisitionType),
		pat.Post("/averages"):        generichttp.SetInt(s.SetAverages),
		pat.Get("/sample-rate"):      generichttp.GetFloat(s.SampleRate),
		pat.Post("/memory-depth"):    generichttp.SetString(s.SetMemoryDepth),
		pat.Get("/trigger-level"):    generichttp.GetFloat(s.GetTriggerLevel),
		pat.Post("/trigger-level"):   generichttp.SetFloat(s.SetTriggerLevel),
		pat.Post("/trigger-slope"):   generichttp.SetString(s.SetTriggerSlope),
		pat.Post("/trigger-source"):  generichttp.SetInt(s.SetTriggerSource),
		pat.Get("/waveform"):         w.HTTPWaveform,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

func channelFromURL(r *http.Request) (int, error) {
	return strconv.Atoi(pat.Param(r, "chan"))
}

func (h HTTPWrapper) perChannelFloat(fcn func(int) (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.GetFloat(func() (float64, error) { return fcn(ch) })(w, r)
	}
}

func (h HTTPWrapper) perChannelSetFloat(fcn func(int, float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.SetFloat(func(f float64) error { return fcn(ch, f) })(w, r)
	}
}

func (h HTTPWrapper) perChannelString(fcn func(int) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.GetString(func() (string, error) { return fcn(ch) })(w, r)
	}
}

func (h HTTPWrapper) perChannelSetString(fcn func(int, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := channelFromURL(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		generichttp.SetString(func(s string) error { return fcn(ch, s) })(w, r)
	}
}

// HTTPWaveform digitizes the channels listed in the ?ch= query
// parameter, default channel 1, and returns the data as CSV
func (h HTTPWrapper) HTTPWaveform(w http.ResponseWriter, r *http.Request) {
	chans := []int{1}
	if q := r.URL.Query().Get("ch"); q != "" {
		chans = chans[:0]
		for _, piece := range strings.Split(q, ",") {
			c, err := strconv.Atoi(piece)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			chans = append(chans, c)
		}
	}
	wav, err := h.Scope.AcquireWaveform(chans)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := wav.EncodeCSV(w); err != nil {
		// headers are gone already, log to the body is all we can do
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}
}
