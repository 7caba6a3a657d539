package main

import (
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/agilent"
	"github.com/mcdo0486/gomeasure/comm"
	"github.com/mcdo0486/gomeasure/fwbell"
	"github.com/mcdo0486/gomeasure/generichttp/ascii"
	"github.com/mcdo0486/gomeasure/keithley"
	"github.com/mcdo0486/gomeasure/keysight"
	"github.com/mcdo0486/gomeasure/lakeshore"
	"github.com/mcdo0486/gomeasure/mcc"
	"github.com/mcdo0486/gomeasure/omega"
	"github.com/mcdo0486/gomeasure/server"
	"github.com/mcdo0486/gomeasure/server/middleware/locker"
	"github.com/mcdo0486/gomeasure/signalrecovery"
	"github.com/mcdo0486/gomeasure/srs"
	"github.com/mcdo0486/gomeasure/tdk"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/tarm/serial"
	"goji.io"
)

// dongleTimeout bounds each read or write on a shared GPIB dongle
const dongleTimeout = 3 * time.Second

// ObjSetup holds the typical triplet of args for a New<device> call.
// Serial is not always used, and need not be populated in the config file
// if not used.
type ObjSetup struct {
	// Addr holds the network or filesystem address of the remote device,
	// e.g. 192.168.100.123:2006 for a device connected to port 6
	// on a digi portserver, or /dev/ttyS4 for an RS232 device on a serial cable
	Addr string `yaml:"Addr"`

	// Endpoint is the path the routes from this device will be served on,
	// ex. Endpoint="/cryo/monitor" produces routes of /cryo/monitor/temperature, etc.
	Endpoint string `yaml:"Endpoint"`

	// Serial determines if the connection is serial/RS232 (True) or TCP (False)
	Serial bool `yaml:"Serial"`

	// Type is the "type" of the object, e.g. lakeshore211
	Type string `yaml:"Type"`

	// Args holds any additional arguments to pass into the constructor
	Args map[string]interface{} `yaml:"Args"`
}

// Config is a struct that holds the initialization parameters for various
// HTTP adapted devices.  It is to be populated by a yaml unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Nodes is the list of devices to set up
	Nodes []ObjSetup `yaml:"Nodes"`
}

// intArg digs an integer out of an Args map, tolerating the float64
// that yaml decoding produces for numbers
func intArg(args map[string]interface{}, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	}
	return fallback
}

func strArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// openDongle connects to a Prologix GPIB dongle, over the network or a
// serial cable.  GPIB devices share the dongle's single connection, so
// there is no pool here.  The connection is long-lived; deadlines are
// refreshed per operation rather than fixed at dial.
func openDongle(node ObjSetup, timeout time.Duration) (io.ReadWriter, error) {
	if node.Serial {
		return serial.OpenPort(&serial.Config{Name: node.Addr, Baud: 115200, ReadTimeout: timeout})
	}
	conn, err := net.DialTimeout("tcp", node.Addr, timeout)
	if err != nil {
		return nil, err
	}
	return comm.NewTimeout(conn, timeout)
}

// sanitizeStem shapes an endpoint as a chi mount point, "bench/ls" =>
// "/bench/ls"
func sanitizeStem(stem string) string {
	if !strings.HasPrefix(stem, "/") {
		stem = "/" + stem
	}
	return strings.TrimRight(stem, "/")
}

// BuildMux constructs the root router with one submux per configured
// device.  The /endpoints route returns a map of every mounted stem to
// its routes as JSON.
func BuildMux(c Config) chi.Router {
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	for _, node := range c.Nodes {
		var httper server.HTTPer
		typ := strings.ToLower(node.Type)
		switch typ {
		case "33220a", "function-generator", "agilent":
			fg := agilent.NewFunctionGenerator(node.Addr)
			w := agilent.NewHTTPWrapper(fg)
			ascii.InjectRawComm(w, fg)
			httper = w

		case "lakeshore211", "ls211", "lakeshore":
			mon := lakeshore.NewMonitor(node.Addr, node.Serial)
			httper = lakeshore.NewHTTPWrapper(mon)

		case "genesys", "tdk":
			limits := tdk.GenesysGen4038
			if strings.EqualFold(strArg(node.Args, "model", "gen40-38"), "gen80-65") {
				limits = tdk.GenesysGen8065
			}
			g := tdk.NewGenesys(node.Addr, node.Serial, intArg(node.Args, "address", 6), limits)
			httper = tdk.NewHTTPWrapper(g)

		case "rga", "rga100", "srs":
			r := srs.NewRGA(node.Addr, node.Serial)
			httper = srs.NewHTTPWrapper(r)

		case "scope", "dso1052b", "keysight":
			s := keysight.NewScope(node.Addr)
			w := keysight.NewHTTPWrapper(s)
			ascii.InjectRawComm(w, s)
			httper = w

		case "cs8dpt", "omega":
			ctl, err := omega.NewCS8DPT(node.Addr, uint8(intArg(node.Args, "unit-id", 1)))
			if err != nil {
				log.Fatal("could not connect to CS8DPT at ", node.Addr, ": ", err)
			}
			httper = omega.NewHTTPWrapper(ctl)

		case "dpf700":
			httper = omega.NewDPF700HTTPWrapper(omega.NewDPF700(node.Addr, node.Serial))

		case "cb7018", "superlogics", "mcc":
			daq, err := mcc.NewDAQ(node.Addr, node.Serial, intArg(node.Args, "bus-address", 1))
			if err != nil {
				log.Fatal("could not set up DAQ at ", node.Addr, ": ", err)
			}
			httper = mcc.NewHTTPWrapper(daq)

		case "dsp7265", "lockin":
			rw, err := openDongle(node, dongleTimeout)
			if err != nil {
				log.Fatal("could not reach GPIB dongle at ", node.Addr, ": ", err)
			}
			li, err := signalrecovery.NewLockIn(rw, intArg(node.Args, "gpib-address", 12))
			if err != nil {
				log.Fatal("could not set up lock-in: ", err)
			}
			httper = signalrecovery.NewHTTPWrapper(li)

		case "224", "keithley224":
			rw, err := openDongle(node, dongleTimeout)
			if err != nil {
				log.Fatal("could not reach GPIB dongle at ", node.Addr, ": ", err)
			}
			cs, err := keithley.NewCurrentSource224(rw, intArg(node.Args, "gpib-address", 15))
			if err != nil {
				log.Fatal("could not set up current source: ", err)
			}
			httper = keithley.NewHTTPWrapper(cs)

		case "fwbell5180", "5180", "gaussmeter":
			g, err := fwbell.NewGaussmeter()
			if err != nil {
				log.Fatal("could not claim gaussmeter on USB: ", err)
			}
			httper = fwbell.NewHTTPWrapper(g)

		default:
			log.Fatal("type ", typ, " not understood")
		}

		stem := sanitizeStem(node.Endpoint)
		supergraph[stem] = httper.RT().Endpoints()

		// every node gets a lock interface so an experiment can own it
		lock := locker.New()
		locker.Inject(httper, lock)

		mux := goji.NewMux()
		mux.Use(lock.Check)
		httper.RT().Bind(mux)
		root.Mount(stem, http.StripPrefix(stem, mux))
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root
}
