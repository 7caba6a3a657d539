// Command templog records temperatures from a Lake Shore 211 to a CSV
// file at a fixed cadence, showing a live reading in the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/mcdo0486/gomeasure/experiment"
	"github.com/mcdo0486/gomeasure/lakeshore"

	"github.com/theckman/yacspin"
)

type logProcedure struct {
	mon      *lakeshore.Monitor
	interval time.Duration
	samples  int
	spinner  *yacspin.Spinner
}

func (p *logProcedure) Startup() error {
	id, err := p.mon.Identification()
	if err != nil {
		return fmt.Errorf("monitor not responding: %w", err)
	}
	p.spinner.Prefix(id + " ")
	return nil
}

func (p *logProcedure) Execute(e *experiment.Emitter) error {
	start := time.Now()
	for i := 0; i < p.samples; i++ {
		if e.ShouldStop() {
			return nil
		}
		temp, err := p.mon.TemperatureKelvin()
		if err != nil {
			return err
		}
		err = e.Record(map[string]float64{
			"t":             time.Since(start).Seconds(),
			"temperature_k": temp,
		})
		if err != nil {
			return err
		}
		p.spinner.Message(fmt.Sprintf("%.3f K  [%d/%d]", temp, i+1, p.samples))
		e.Progress(100 * float64(i+1) / float64(p.samples))
		select {
		case <-e.StopC():
			return nil
		case <-time.After(p.interval):
		}
	}
	return nil
}

func (p *logProcedure) Shutdown() error {
	return nil
}

func main() {
	var (
		serial   = flag.Bool("serial", false, "addr is a serial device, not host:port")
		interval = flag.Duration("interval", time.Second, "time between samples")
		samples  = flag.Int("n", 60, "number of samples to record")
		outPath  = flag.String("o", "templog.csv", "output CSV path")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: templog [flags] <addr>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	addr := flag.Arg(0)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	spinner, err := yacspin.New(yacspin.Config{
		Frequency: 100 * time.Millisecond,
		CharSet:   yacspin.CharSets[14],
		Message:   "connecting",
	})
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()

	res := experiment.NewResults(f, "templog",
		map[string]string{
			"addr":     addr,
			"interval": interval.String(),
		}, []string{"t", "temperature_k"})

	proc := &logProcedure{
		mon:      lakeshore.NewMonitor(addr, *serial),
		interval: *interval,
		samples:  *samples,
		spinner:  spinner,
	}
	worker := experiment.NewWorker(proc, experiment.NewEmitter(res, 4))
	worker.Start()

	// ctrl-c aborts the run but still flushes and closes the file
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		worker.Abort()
	}()

	err = worker.Wait()
	spinner.Stop()
	switch worker.Status() {
	case experiment.Aborted:
		fmt.Println("aborted, partial log in", *outPath)
	case experiment.Failed:
		log.Fatal(err)
	default:
		fmt.Println("wrote", *outPath)
	}
}
