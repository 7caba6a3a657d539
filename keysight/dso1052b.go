// Package keysight provides access to Keysight oscilloscopes in Go.
// Supports the DSO1000 series, tested against a DSO1052B.
package keysight

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcdo0486/gomeasure/comm"
	"github.com/mcdo0486/gomeasure/oscilloscope"
	"github.com/mcdo0486/gomeasure/scpi"
)

var jumboFrameSize = 9000

// probe attenuation factors the scope accepts
var probeFactors = []float64{0.1, 1, 10, 100, 1000}

// Scope is an interface to a keysight oscilloscope
type Scope struct {
	scpi.SCPI
}

// NewScope creates a new scope instance
func NewScope(addr string) *Scope {
	maker := comm.BackingOffTCPConnMaker(addr, 1*time.Second)
	pool := comm.NewPool(1, time.Hour, maker)
	return &Scope{scpi.SCPI{Pool: pool, Handshaking: true}}
}

func chanPrefix(channel int) string {
	return fmt.Sprintf(":CHANnel%d", channel)
}

// SetScale sets the vertical scale of a channel in volts per division
func (s *Scope) SetScale(channel int, voltsPerDiv float64) error {
	return s.Write(fmt.Sprintf("%s:SCALe %E", chanPrefix(channel), voltsPerDiv))
}

// GetScale returns the vertical scale of a channel in volts per division
func (s *Scope) GetScale(channel int) (float64, error) {
	return s.ReadFloat(chanPrefix(channel) + ":SCALe?")
}

// SetRange sets the full vertical range of a channel in volts
func (s *Scope) SetRange(channel int, voltsFullScale float64) error {
	return s.Write(fmt.Sprintf("%s:RANGe %E", chanPrefix(channel), voltsFullScale))
}

// GetRange returns the full vertical range of a channel in volts
func (s *Scope) GetRange(channel int) (float64, error) {
	return s.ReadFloat(chanPrefix(channel) + ":RANGe?")
}

// SetOffset sets the vertical offset of a channel
func (s *Scope) SetOffset(channel int, voltsOffZero float64) error {
	return s.Write(fmt.Sprintf("%s:OFFSet %E", chanPrefix(channel), voltsOffZero))
}

// GetOffset returns the vertical offset of a channel
func (s *Scope) GetOffset(channel int) (float64, error) {
	return s.ReadFloat(chanPrefix(channel) + ":OFFSet?")
}

// SetCoupling sets the input coupling of a channel, ac, dc, or gnd
func (s *Scope) SetCoupling(channel int, coupling string) error {
	coupling = strings.ToUpper(coupling)
	switch coupling {
	case "AC", "DC", "GND":
	default:
		return fmt.Errorf("coupling %q not in {ac, dc, gnd}", coupling)
	}
	return s.Write(fmt.Sprintf("%s:COUPling %s", chanPrefix(channel), coupling))
}

// GetCoupling returns the input coupling of a channel
func (s *Scope) GetCoupling(channel int) (string, error) {
	resp, err := s.ReadString(chanPrefix(channel) + ":COUPling?")
	return strings.ToLower(resp), err
}

// SetBandwidthLimit engages the 20 MHz bandwidth limit on a channel.
// If it is on, the noise is greatly reduced.
func (s *Scope) SetBandwidthLimit(channel int, on bool) error {
	mnemonic := "OFF"
	if on {
		mnemonic = "ON"
	}
	return s.Write(fmt.Sprintf("%s:BWLimit %s", chanPrefix(channel), mnemonic))
}

// SetDisplayed turns the trace of a channel on or off
func (s *Scope) SetDisplayed(channel int, on bool) error {
	mnemonic := "OFF"
	if on {
		mnemonic = "ON"
	}
	return s.Write(fmt.Sprintf("%s:DISPlay %s", chanPrefix(channel), mnemonic))
}

// GetDisplayed returns true if the trace of a channel is shown
func (s *Scope) GetDisplayed(channel int) (bool, error) {
	return s.ReadBool(chanPrefix(channel) + ":DISPlay?")
}

// SetInverted inverts the trace of a channel about its offset
func (s *Scope) SetInverted(channel int, on bool) error {
	mnemonic := "OFF"
	if on {
		mnemonic = "ON"
	}
	return s.Write(fmt.Sprintf("%s:INVert %s", chanPrefix(channel), mnemonic))
}

// SetProbeAttenuation sets the probe attenuation factor of a channel,
// one of 0.1, 1, 10, 100, 1000
func (s *Scope) SetProbeAttenuation(channel int, factor float64) error {
	ok := false
	for _, f := range probeFactors {
		if f == factor {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("probe factor %g not in {0.1, 1, 10, 100, 1000}", factor)
	}
	return s.Write(fmt.Sprintf("%s:PROBe %g", chanPrefix(channel), factor))
}

// GetProbeAttenuation returns the probe attenuation factor of a channel
func (s *Scope) GetProbeAttenuation(channel int) (float64, error) {
	return s.ReadFloat(chanPrefix(channel) + ":PROBe?")
}

// SetUnits sets the measurement units of a channel, volts, amps,
// watts, or unknown
func (s *Scope) SetUnits(channel int, units string) error {
	units = strings.ToUpper(units)
	switch units {
	case "VOLTS", "AMPS", "WATTS", "UNKNOWN":
	default:
		return fmt.Errorf("units %q not in {volts, amps, watts, unknown}", units)
	}
	return s.Write(fmt.Sprintf("%s:UNITs %s", chanPrefix(channel), units))
}

// SetVernier enables fine adjustment of the vertical scale of a channel
func (s *Scope) SetVernier(channel int, on bool) error {
	mnemonic := "OFF"
	if on {
		mnemonic = "ON"
	}
	return s.Write(fmt.Sprintf("%s:VERNier %s", chanPrefix(channel), mnemonic))
}

// SetTimebase sets the horizontal scale of the scope in seconds per division
func (s *Scope) SetTimebase(secPerDiv float64) error {
	return s.Write(fmt.Sprintf(":TIMebase:SCALe %E", secPerDiv))
}

// GetTimebase returns the horizontal scale of the scope in seconds per division
func (s *Scope) GetTimebase() (float64, error) {
	return s.ReadFloat(":TIMebase:SCALe?")
}

// SetTimebaseOffset sets the delay between trigger and the horizontal
// reference, in seconds
func (s *Scope) SetTimebaseOffset(sec float64) error {
	return s.Write(fmt.Sprintf(":TIMebase:OFFSet %E", sec))
}

// GetTimebaseOffset returns the trigger to reference delay in seconds
func (s *Scope) GetTimebaseOffset() (float64, error) {
	return s.ReadFloat(":TIMebase:OFFSet?")
}

// SetTimebaseMode sets the horizontal mode, main, window, xy, or roll
func (s *Scope) SetTimebaseMode(mode string) error {
	mode = strings.ToUpper(mode)
	switch mode {
	case "MAIN", "WINDOW", "XY", "ROLL":
	default:
		return fmt.Errorf("timebase mode %q not in {main, window, xy, roll}", mode)
	}
	return s.Write(":TIMebase:MODE " + mode)
}

// Autoscale has the scope pick vertical, horizontal, and trigger
// settings from the signals present at its inputs
func (s *Scope) Autoscale() error {
	return s.Write(":AUToscale")
}

// Run starts repetitive acquisition
func (s *Scope) Run() error {
	return s.Write(":RUN")
}

// Stop halts acquisition
func (s *Scope) Stop() error {
	return s.Write(":STOP")
}

// Single arms the scope for one acquisition, after which it stops
func (s *Scope) Single() error {
	return s.Write(":SINGle")
}

// SetAcquisitionType sets how samples are reduced to the data record,
// normal, average, or peakdetect
func (s *Scope) SetAcquisitionType(typ string) error {
	typ = strings.ToUpper(typ)
	switch typ {
	case "NORMAL", "AVERAGE", "PEAKDETECT":
	default:
		return fmt.Errorf("acquisition type %q not in {normal, average, peakdetect}", typ)
	}
	return s.Write(":ACQuire:TYPE " + typ)
}

// GetAcquisitionType returns how samples are reduced to the data record
func (s *Scope) GetAcquisitionType() (string, error) {
	return s.ReadString(":ACQuire:TYPE?")
}

// SetAverages sets the number of acquisitions folded into an averaged
// record, a power of two from 2 to 256
func (s *Scope) SetAverages(n int) error {
	switch n {
	case 2, 4, 8, 16, 32, 64, 128, 256:
	default:
		return fmt.Errorf("average count %d not a power of two in [2,256]", n)
	}
	return s.Write(fmt.Sprintf(":ACQuire:AVERages %d", n))
}

// SampleRate returns the current acquisition sample rate in Hz
func (s *Scope) SampleRate() (float64, error) {
	return s.ReadFloat(":ACQuire:SRATe?")
}

// SetMemoryDepth selects the record length, normal or long
func (s *Scope) SetMemoryDepth(depth string) error {
	depth = strings.ToUpper(depth)
	switch depth {
	case "NORMAL", "LONG":
	default:
		return fmt.Errorf("memory depth %q not in {normal, long}", depth)
	}
	return s.Write(":ACQuire:MEMDepth " + depth)
}

// SetTriggerSource triggers on edges from the given channel
func (s *Scope) SetTriggerSource(channel int) error {
	return s.Write(fmt.Sprintf(":TRIGger:EDGE:SOURce CHANnel%d", channel))
}

// SetTriggerLevel sets the edge trigger threshold in volts
func (s *Scope) SetTriggerLevel(volts float64) error {
	return s.Write(fmt.Sprintf(":TRIGger:EDGE:LEVel %E", volts))
}

// GetTriggerLevel returns the edge trigger threshold in volts
func (s *Scope) GetTriggerLevel() (float64, error) {
	return s.ReadFloat(":TRIGger:EDGE:LEVel?")
}

// SetTriggerSlope picks which edge polarity fires the trigger,
// positive or negative
func (s *Scope) SetTriggerSlope(slope string) error {
	slope = strings.ToUpper(slope)
	switch slope {
	case "POSITIVE", "NEGATIVE":
	default:
		return fmt.Errorf("trigger slope %q not in {positive, negative}", slope)
	}
	return s.Write(":TRIGger:EDGE:SLOPe " + slope)
}

// XIncrement gets the time delta of the scope's data record
func (s *Scope) XIncrement() (float64, error) {
	return s.ReadFloat(":WAVeform:XINCrement?")
}

// getBuffer transfers an IEEE 488.2 definite length block from the
// scope, handling multi-read responses
func (s *Scope) getBuffer() ([]byte, error) {
	var ret []byte
	conn, err := s.Pool.Get()
	if err != nil {
		return ret, err
	}
	defer func() { s.Pool.ReturnWithError(conn, err) }()
	_, err = conn.Write(append([]byte(":WAVeform:DATA?"), '\n'))
	if err != nil {
		return ret, err
	}
	buf := make([]byte, jumboFrameSize)
	n, err := conn.Read(buf)
	if err != nil {
		return ret, err
	}
	if n < 2 {
		return ret, fmt.Errorf("response from scope was only %d bytes, expected >2", n)
	}
	if buf[0] != '#' {
		return ret, fmt.Errorf("first byte in response from scope was %v, expected #", buf[0])
	}
	nbytesText := int(buf[1]) - 48 // shift down by 48, ASCII->int
	upper := 2 + nbytesText
	dataBuf := buf[:n]
	nbytes, err := strconv.Atoi(string(dataBuf[2:upper]))
	if err != nil {
		return ret, err
	}
	dataBuf = dataBuf[upper:]
	for len(dataBuf) < nbytes {
		buf := make([]byte, jumboFrameSize)
		n, err = conn.Read(buf)
		if err != nil {
			return ret, err
		}
		dataBuf = append(dataBuf, buf[:n]...)
	}
	// now we need to pop off the terminator
	dataBuf = dataBuf[:len(dataBuf)-1]
	return dataBuf, nil
}

// AcquireWaveform digitizes the given channels and returns the data
// with all information needed to convert to volts and time
func (s *Scope) AcquireWaveform(channels []int) (oscilloscope.Waveform, error) {
	var ret oscilloscope.Waveform
	ret.Channels = map[string]oscilloscope.Channel{}

	// the DSO1000 transfers 8 bit samples, no byte order to negotiate
	err := s.Write(":WAVeform:FORMat BYTE")
	if err != nil {
		return ret, err
	}

	chunks := []string{":DIGitize"}
	chanS := make([]string, len(channels))
	for i := range channels {
		str := fmt.Sprintf("CHANnel%d", channels[i])
		chunks = append(chunks, str)
		chanS[i] = str
	}

	// digitization takes about one record length to complete
	timebase, err := s.GetTimebase()
	if err != nil {
		return ret, err
	}
	err = s.Write(chunks...)
	if err != nil {
		return ret, err
	}
	time.Sleep(time.Duration(timebase * 12 * 1e9))

	ret.DT, err = s.XIncrement()
	if err != nil {
		return ret, err
	}
	for i := range chanS {
		// change the source so we can query for each channel
		err = s.Write(":WAVeform:SOURce", chanS[i])
		if err != nil {
			return ret, err
		}
		yoff, err := s.ReadFloat(":WAVeform:YORigin?")
		if err != nil {
			return ret, err
		}
		yscale, err := s.ReadFloat(":WAVeform:YINCrement?")
		if err != nil {
			return ret, err
		}
		yref, err := s.ReadFloat(":WAVeform:YREFerence?")
		if err != nil {
			return ret, err
		}
		buf, err := s.getBuffer()
		if err != nil {
			return ret, err
		}
		ret.Channels[chanS[i]] = oscilloscope.Channel{
			Scale:     yscale,
			Offset:    yoff,
			Reference: yref,
			Data:      []uint8(buf),
		}
	}
	return ret, nil
}
