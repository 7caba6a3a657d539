// Package fwbell provides an interface to F.W. Bell gaussmeters over
// USB.  The 5180 speaks a fixed binary framing with a CRC-16 trailer
// rather than SCPI text.
package fwbell

import (
	"errors"
	"fmt"

	"github.com/snksoft/crc"
)

// command bytes of the 5180 protocol
const (
	cmdReadFlux     = 0x10
	cmdSetUnits     = 0x12
	cmdIdentify     = 0x18
	cmdSetRange     = 0x19
	cmdQueryRange   = 0x1A
	cmdAutoRange    = 0x20
	cmdReset        = 0x37
	probeAddr       = 0x01
	hostMarker      = 0x2B
	minFrameLen     = 8
	fluxValidMarker = 10
)

// crcParams describe the CRC-16 the meter uses, the reflected 0x8005
// polynomial seeded with all ones
var crcParams = &crc.Parameters{
	Width:      16,
	Polynomial: 0x8005,
	Init:       0xFFFF,
	ReflectIn:  true,
	ReflectOut: true,
	FinalXor:   0,
}

// buildFrame assembles a host-to-meter frame: address, host marker,
// command, payload length, payload, then the CRC appended high byte
// first.  Frames are zero padded to at least 8 bytes.
func buildFrame(command byte, data []byte) []byte {
	frame := make([]byte, 0, minFrameLen)
	frame = append(frame, probeAddr, hostMarker, command, byte(len(data)))
	frame = append(frame, data...)
	sum := uint16(crc.CalculateCRC(crcParams, frame))
	frame = append(frame, byte(sum>>8), byte(sum&0xFF))
	for len(frame) < minFrameLen {
		frame = append(frame, 0)
	}
	return frame
}

// parseFlux extracts a field reading from a measurement reply.  The
// reading is a big endian 16 bit integer scaled by the range byte.
func parseFlux(resp []byte) (float64, error) {
	if len(resp) < 11 {
		return 0, fmt.Errorf("measurement reply too short, %d bytes", len(resp))
	}
	if resp[10] != fluxValidMarker {
		return 0, errors.New("meter reports the reading is not valid")
	}
	counts := int16(uint16(resp[4])<<8 | uint16(resp[5]))
	var scale float64
	switch resp[7] {
	case 0:
		scale = 1e-5
	case 1:
		scale = 1e-4
	default:
		scale = 1e-3
	}
	return float64(counts) * scale, nil
}

// parseUnits extracts the measurement units from a measurement reply,
// e.g. "dc:gauss" or "ac:tesla"
func parseUnits(resp []byte) (string, error) {
	if len(resp) < 10 {
		return "", fmt.Errorf("measurement reply too short, %d bytes", len(resp))
	}
	prefix := "dc:"
	if resp[9] != 0 {
		prefix = "ac:"
	}
	switch resp[6] {
	case 0:
		return prefix + "gauss", nil
	case 1:
		return prefix + "tesla", nil
	case 2:
		return prefix + "am", nil
	}
	return "", fmt.Errorf("unknown unit code %d", resp[6])
}

// parseRange extracts the active range index, 0 through 2, from a
// range query reply
func parseRange(resp []byte) (int, error) {
	if len(resp) < 8 {
		return 0, fmt.Errorf("range reply too short, %d bytes", len(resp))
	}
	r := int(resp[7])
	if r > 2 {
		r = 2
	}
	return r, nil
}

// parseIdentification extracts the ASCII identification string from an
// identify reply.  The payload length byte bounds the string; trailing
// NULs are stripped.
func parseIdentification(resp []byte) (string, error) {
	if len(resp) < 4 {
		return "", fmt.Errorf("identify reply too short, %d bytes", len(resp))
	}
	n := int(resp[3])
	if 4+n > len(resp) {
		n = len(resp) - 4
	}
	raw := resp[4 : 4+n]
	for len(raw) > 0 && raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}
	return string(raw), nil
}
