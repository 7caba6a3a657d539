// Package server contains the common HTTP plumbing used by the per-device
// wrappers: typed JSON payloads, route tables, and the HTTPer interface.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"

	"goji.io"
	"goji.io/pat"
)

// HTTPer is an object which exposes its functionality over a route table
type HTTPer interface {
	RT() RouteTable
}

// RouteTable maps goji patterns to handler funcs
type RouteTable map[goji.Pattern]http.HandlerFunc

// Bind attaches each route in the table to the mux
func (rt RouteTable) Bind(mux *goji.Mux) {
	for ptrn, meth := range rt {
		mux.HandleFunc(ptrn, meth)
	}
}

// Endpoints lists the route patterns in the table
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		if p, ok := k.(*pat.Pattern); ok {
			routes = append(routes, p.String())
		} else {
			routes = append(routes, fmt.Sprint(k))
		}
	}
	return routes
}

// FloatT is a struct with a single f64 field for json input/output
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single int field for json input/output
type IntT struct {
	Int int `json:"int"`
}

// StrT is a struct with a single str field for json input/output
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single bool field for json input/output
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload is a struct containing the basic types and a type flag,
// allowing a single struct to hold any scalar response
type HumanPayload struct {
	// T holds the type of the payload
	T types.BasicKind

	// Bool holds a binary value
	Bool bool

	// Int holds an integer value
	Int int

	// Float holds a floating point value
	Float float64

	// String holds a string value
	String string
}

// EncodeAndRespond writes the payload as JSON on the response writer with
// the key named for the type, mirroring the *T structs above.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var (
		obj interface{}
		err error
	)
	switch hp.T {
	case types.Bool:
		obj = BoolT{Bool: hp.Bool}
	case types.Int:
		obj = IntT{Int: hp.Int}
	case types.Float64:
		obj = FloatT{F64: hp.Float}
	case types.String:
		obj = StrT{Str: hp.String}
	default:
		http.Error(w, fmt.Sprintf("unknown payload kind %v", hp.T), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(obj)
	if err != nil {
		fstr := fmt.Sprintf("error encoding data to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}
