package ax25

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := Frame{
		Destination: Address{Callsign: "HA7FLR", SSID: 0},
		Source:      Address{Callsign: "GROUND", SSID: 0},
		Control:     ControlUI,
		PID:         PIDNoLayer3,
		Payload:     []byte("hello telemetry"),
	}
	enc, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Destination != f.Destination || dec.Source != f.Source {
		t.Fatalf("address mismatch: got %+v/%+v want %+v/%+v", dec.Destination, dec.Source, f.Destination, f.Source)
	}
	if dec.Control != f.Control || dec.PID != f.PID {
		t.Fatalf("control/pid mismatch")
	}
	if string(dec.Payload) != string(f.Payload) {
		t.Fatalf("payload mismatch: got %q want %q", dec.Payload, f.Payload)
	}
}

// S3: AX25Frame(dst="HA7FLR"/0, src="GROUND"/0, ctrl=0x03, pid=0xF0,
// payload=b"\x00\x01") encodes to 18 bytes; byte 13 (source SSID byte)
// has bit 0 set.
func TestS3EncodeLiteral(t *testing.T) {
	f := Frame{
		Destination: Address{Callsign: "HA7FLR", SSID: 0},
		Source:      Address{Callsign: "GROUND", SSID: 0},
		Control:     ControlUI,
		PID:         PIDNoLayer3,
		Payload:     []byte{0x00, 0x01},
	}
	enc, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) != 18 {
		t.Fatalf("got %d bytes, want 18", len(enc))
	}
	if enc[13]&1 == 0 {
		t.Fatalf("byte 13 = %#02x, want bit 0 set", enc[13])
	}
}

func TestDecodeRejectsSourceNotLast(t *testing.T) {
	f := Frame{
		Destination: Address{Callsign: "HA7FLR", SSID: 0},
		Source:      Address{Callsign: "GROUND", SSID: 0},
		Control:     ControlUI,
		PID:         PIDNoLayer3,
		Payload:     []byte{0x01},
	}
	enc, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Clear the source address last-bit (byte 13).
	enc[13] &^= 1
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error for source address without last-bit set")
	}
}

func TestEncodeRejectsLongCallsign(t *testing.T) {
	f := Frame{
		Destination: Address{Callsign: "TOOLONGCALL", SSID: 0},
		Source:      Address{Callsign: "GROUND", SSID: 0},
	}
	if _, err := f.Encode(); err == nil {
		t.Fatalf("expected error for over-length callsign")
	}
}

func TestEncodeRejectsBadSSID(t *testing.T) {
	f := Frame{
		Destination: Address{Callsign: "HA7FLR", SSID: 16},
		Source:      Address{Callsign: "GROUND", SSID: 0},
	}
	if _, err := f.Encode(); err == nil {
		t.Fatalf("expected error for out-of-range ssid")
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for short frame")
	}
}
