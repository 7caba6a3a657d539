// Package oscilloscope provides type and interface definitions shared
// by the oscilloscope drivers
package oscilloscope

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Waveform describes a waveform recording from a scope
type Waveform struct {
	// DT is the temporal sample spacing in seconds
	DT float64 `json:"dt"`

	// Channels holds named data streams
	Channels map[string]Channel
}

// Channel represents a stream of data from an ADC.  To convert to
// physical units, compute (data-reference)*scale + offset
type Channel struct {
	// Data is the actual buffer, []uint8, []int16, or similar
	Data Data

	// Scale is the size of a single increment in Data's native dtype
	Scale float64

	// Offset is the offset applied to the data
	Offset float64

	// Reference is the reference value for the given channel in DN
	Reference float64
}

// Physical computes the data scaled to real units
func (c Channel) Physical() []float64 {
	switch v := c.Data.(type) {
	case []uint8:
		ret := make([]float64, len(v))
		for i := range v {
			ret[i] = ((float64(v[i]) - c.Reference) * c.Scale) + c.Offset
		}
		return ret
	case []int8:
		ret := make([]float64, len(v))
		for i := range v {
			ret[i] = ((float64(v[i]) - c.Reference) * c.Scale) + c.Offset
		}
		return ret
	case []uint16:
		ret := make([]float64, len(v))
		for i := range v {
			ret[i] = ((float64(v[i]) - c.Reference) * c.Scale) + c.Offset
		}
		return ret
	case []int16:
		ret := make([]float64, len(v))
		for i := range v {
			ret[i] = ((float64(v[i]) - c.Reference) * c.Scale) + c.Offset
		}
		return ret
	case []float64:
		ret := make([]float64, len(v))
		for i := range v {
			ret[i] = ((v[i] - c.Reference) * c.Scale) + c.Offset
		}
		return ret
	default:
		panic("attempt to convert non numerical data to physical units")
	}
}

// Data is a moniker for an empty interface, expected to be a slice of
// a concrete numerical type
type Data interface{}

// EncodeCSV converts the waveform data to physical units and writes it
// as CSV, one column of time and one per channel
func (wav *Waveform) EncodeCSV(w io.Writer) error {
	if len(wav.Channels) == 0 {
		return fmt.Errorf("waveform holds no channels")
	}
	labels := make([]string, 0, len(wav.Channels))
	for k := range wav.Channels {
		labels = append(labels, k)
	}
	data := make([][]float64, len(labels))
	for i, l := range labels {
		data[i] = wav.Channels[l].Physical()
	}
	labels = append([]string{"time"}, labels...)

	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	if err := cw.Write(labels); err != nil {
		return err
	}
	row := make([]string, len(labels))
	for i := 0; i < len(data[0]); i++ {
		row[0] = strconv.FormatFloat(float64(i)*wav.DT, 'G', -1, 64)
		for j := range data {
			row[j+1] = strconv.FormatFloat(data[j][i], 'G', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
