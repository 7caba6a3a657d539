package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "benchsrv.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:  ":8000",
		Nodes: []ObjSetup{}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `benchsrv communicates with lab instruments and exposes an HTTP interface to them.
This enables a server-client architecture, and the clients can leverage the
excellent HTTP libraries for any programming language.

Usage:
	benchsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `benchsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Without a configuration, the server will close immediately and display an error
that there are no endpoints.

No two endpoints can have the same URL.

Endpoints may look like any variation between "cryo/monitor" or "/cryo/monitor/",
the leading slash is added by the server if missing.

Hardware and matching "type" fields, case insensitive, alphabetical by vendor:
- Agilent
	> 33220A function generator "33220a", "agilent"
- F.W. Bell
	> 5180 gaussmeter "fwbell5180", "5180", "gaussmeter" (USB, no Addr needed)
- Keithley
	> 224 current source "224", "keithley224" (Addr reaches the Prologix
	  dongle; Args: gpib-address, default 15)
- Keysight
	> DSO1000 series oscilloscopes "scope", "dso1052b", "keysight"
- Lake Shore
	> Model 211 temperature monitor "lakeshore211", "ls211"
- Measurement Computing / Superlogics
	> CB-7018 / 8017 thermocouple DAQ "cb7018", "superlogics", "mcc"
	  Args: bus-address (default 1)
- Omega
	> CS8DPT benchtop controller "cs8dpt"; Addr is a modbus URL,
	  e.g. rtu:///dev/ttyUSB0 or tcp://192.168.0.10:502
	  Args: unit-id (default 1)
	> DPF700 flux meter "dpf700"
- Signal Recovery
	> DSP 7265 lock-in "dsp7265", "lockin" (Addr reaches the Prologix
	  dongle; Args: gpib-address, default 12)
- Stanford Research Systems
	> RGA100/200/300 "rga", "rga100"
- TDK-Lambda
	> Genesys supplies "genesys", "tdk"
	  Args: address (multi-drop, default 6), model ("gen40-38" or "gen80-65")`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("benchsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	mux := BuildMux(c)
	log.Println("now listening for requests at ", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
