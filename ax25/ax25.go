// Package ax25 implements the 2-address AX.25 UI frame codec: address
// encoding with the shift/SSID/last-bit convention, and the
// destination/source/control/PID/payload frame layout.
package ax25

import (
	"fmt"
	"strings"
)

const (
	// ControlUI is the AX.25 control byte for an unnumbered information frame.
	ControlUI = 0x03
	// PIDNoLayer3 is the AX.25 PID byte meaning "no layer 3 protocol".
	PIDNoLayer3 = 0xF0

	addressLen = 7
	frameMinLen = addressLen*2 + 2
)

// Address is an AX.25 station address: a callsign of up to 6 uppercase
// ASCII characters and an SSID in [0,15].
type Address struct {
	Callsign string
	SSID     int
}

// Encode writes the 7-byte on-wire form of addr into a fresh slice.
// last marks whether this is the final address in the chain (the
// source address in a 2-address frame).
func (addr Address) Encode(last bool) ([]byte, error) {
	cs := strings.TrimRight(addr.Callsign, " ")
	if len(cs) == 0 || len(cs) > 6 {
		return nil, fmt.Errorf("ax25: callsign %q must be 1-6 characters", addr.Callsign)
	}
	if addr.SSID < 0 || addr.SSID > 15 {
		return nil, fmt.Errorf("ax25: ssid %d out of range [0,15]", addr.SSID)
	}
	padded := cs + strings.Repeat(" ", 6-len(cs))

	out := make([]byte, addressLen)
	for i := 0; i < 6; i++ {
		out[i] = padded[i] << 1
	}
	lastBit := 0
	if last {
		lastBit = 1
	}
	out[6] = byte(0x60 | (addr.SSID << 1) | lastBit)
	return out, nil
}

// DecodeAddress parses a 7-byte on-wire address, returning whether its
// last-bit is set.
func DecodeAddress(b []byte) (addr Address, last bool, err error) {
	if len(b) != addressLen {
		return Address{}, false, fmt.Errorf("ax25: address must be %d bytes, got %d", addressLen, len(b))
	}
	chars := make([]byte, 6)
	for i := 0; i < 6; i++ {
		chars[i] = b[i] >> 1
	}
	callsign := strings.TrimRight(string(chars), " ")
	ssidByte := b[6]
	ssid := int((ssidByte >> 1) & 0x0F)
	last = ssidByte&1 != 0
	return Address{Callsign: callsign, SSID: ssid}, last, nil
}

// Frame is a decoded or to-be-encoded 2-address AX.25 UI frame.
type Frame struct {
	Destination Address
	Source      Address
	Control     byte
	PID         byte
	Payload     []byte
}

// Encode serializes f as destination (last-bit=0), source
// (last-bit=1), control, PID, payload.
func (f Frame) Encode() ([]byte, error) {
	dst, err := f.Destination.Encode(false)
	if err != nil {
		return nil, err
	}
	src, err := f.Source.Encode(true)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(dst)+len(src)+2+len(f.Payload))
	out = append(out, dst...)
	out = append(out, src...)
	out = append(out, f.Control, f.PID)
	out = append(out, f.Payload...)
	return out, nil
}

// Decode parses a 2-address AX.25 frame. It rejects frames shorter
// than the minimum header, and frames whose source address is not
// marked last (repeater/digipeater address chains are not supported).
func Decode(b []byte) (Frame, error) {
	if len(b) < frameMinLen {
		return Frame{}, fmt.Errorf("ax25: frame too short: %d bytes, want >= %d", len(b), frameMinLen)
	}
	dst, _, err := DecodeAddress(b[0:addressLen])
	if err != nil {
		return Frame{}, err
	}
	src, srcLast, err := DecodeAddress(b[addressLen : addressLen*2])
	if err != nil {
		return Frame{}, err
	}
	if !srcLast {
		return Frame{}, fmt.Errorf("ax25: unsupported frame: source address not marked last")
	}
	rest := b[addressLen*2:]
	return Frame{
		Destination: dst,
		Source:      src,
		Control:     rest[0],
		PID:         rest[1],
		Payload:     append([]byte(nil), rest[2:]...),
	}, nil
}
