// Package telemetry decodes the spacecraft's "TL" telemetry record
// from its big-endian wire format.
package telemetry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// PacketType is the 2-byte type prefix identifying a telemetry record.
const PacketType = 0x544C

// Record is a decoded telemetry packet. All fields are immutable once
// constructed.
type Record struct {
	Sequence           uint32
	Timestamp          int64
	Uptime             uint32
	BootCount          uint32
	RestartReason      uint8
	Mode               uint8
	Flags              uint8
	BatteryVoltagesMV  [3]uint16
	BatteryCurrentsMA  [3]uint16
	TemperatureRawC10  int16
	MotD               string
}

// TemperatureC returns the decoded temperature in degrees Celsius.
func (r Record) TemperatureC() float64 {
	return float64(r.TemperatureRawC10) / 10.0
}

// Decode parses a TL telemetry packet. It reports a "truncated
// payload" error on short input and a "not a TL packet" error when the
// leading u16 is not PacketType. The motd is decoded as strict UTF-8,
// falling back to a byte-preserving Latin-1 interpretation on invalid
// UTF-8 so a single corrupt character cannot discard an otherwise
// valid record.
func Decode(payload []byte) (*Record, error) {
	r := bytes.NewReader(payload)

	var packetType uint16
	if err := binary.Read(r, binary.BigEndian, &packetType); err != nil {
		return nil, fmt.Errorf("telemetry: truncated payload: %w", err)
	}
	if packetType != PacketType {
		return nil, fmt.Errorf("telemetry: not a TL packet (type %#04x)", packetType)
	}

	rec := &Record{}
	fields := []any{
		&rec.Sequence,
		&rec.Timestamp,
		&rec.Uptime,
		&rec.BootCount,
		&rec.RestartReason,
		&rec.Mode,
		&rec.Flags,
		&rec.BatteryVoltagesMV,
		&rec.BatteryCurrentsMA,
		&rec.TemperatureRawC10,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return nil, fmt.Errorf("telemetry: truncated payload: %w", err)
		}
	}

	var motdLen uint8
	if err := binary.Read(r, binary.BigEndian, &motdLen); err != nil {
		return nil, fmt.Errorf("telemetry: truncated payload: %w", err)
	}
	motdBytes := make([]byte, motdLen)
	if _, err := readFull(r, motdBytes); err != nil {
		return nil, fmt.Errorf("telemetry: truncated payload: %w", err)
	}
	rec.MotD = decodeMotD(motdBytes)

	return rec, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, fmt.Errorf("unexpected EOF")
		}
	}
	return n, nil
}

// decodeMotD decodes b as strict UTF-8, falling back to Latin-1
// (ISO-8859-1) when b is not valid UTF-8. Latin-1 maps every byte to a
// codepoint, so this fallback is lossless at the byte level.
func decodeMotD(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// charmap's ISO-8859-1 decoder cannot fail on arbitrary bytes;
		// this branch exists only to satisfy the error-returning API.
		return string(b)
	}
	return string(out)
}
