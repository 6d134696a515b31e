package telemetry

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

// S1 TL decode literal scenario.
func TestS1Decode(t *testing.T) {
	raw := "544c" + "00000007" + "0000000000000001" + "000001f4" + "00000002" +
		"00" + "01" + "00" +
		"0fa0" + "0fa0" + "0fa0" +
		"0064" + "0064" + "0064" +
		"00fa" + "04"
	payload, err := hex.DecodeString(raw)
	if err != nil {
		t.Fatalf("bad literal hex: %v", err)
	}
	payload = append(payload, []byte("DEMO")...)

	rec, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Sequence != 7 {
		t.Errorf("sequence = %d, want 7", rec.Sequence)
	}
	if rec.Timestamp != 1 {
		t.Errorf("timestamp = %d, want 1", rec.Timestamp)
	}
	if rec.Uptime != 500 {
		t.Errorf("uptime = %d, want 500", rec.Uptime)
	}
	if rec.BootCount != 2 {
		t.Errorf("boot_count = %d, want 2", rec.BootCount)
	}
	want := [3]uint16{4000, 4000, 4000}
	if rec.BatteryVoltagesMV != want {
		t.Errorf("battery_voltages_mv = %v, want %v", rec.BatteryVoltagesMV, want)
	}
	if got := rec.TemperatureC(); got != 25.0 {
		t.Errorf("temperature_c = %v, want 25.0", got)
	}
	if rec.MotD != "DEMO" {
		t.Errorf("motd = %q, want %q", rec.MotD, "DEMO")
	}
}

func TestDecodeRejectsWrongPacketType(t *testing.T) {
	payload := make([]byte, 30)
	payload[0], payload[1] = 0x00, 0x01
	if _, err := Decode(payload); err == nil {
		t.Fatalf("expected error for wrong packet type")
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	payload := []byte{0x54, 0x4C, 0x00, 0x00}
	if _, err := Decode(payload); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestDecodeDeterministic(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(PacketType))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	binary.Write(&buf, binary.BigEndian, int64(1))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	buf.WriteByte(0)
	buf.WriteByte(1)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, [3]uint16{4000, 4000, 4000})
	binary.Write(&buf, binary.BigEndian, [3]uint16{100, 100, 100})
	binary.Write(&buf, binary.BigEndian, int16(250))
	buf.WriteByte(2)
	buf.WriteString("hi")

	payload := buf.Bytes()
	a, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *a != *b {
		t.Fatalf("decode is not deterministic: %+v != %+v", a, b)
	}
}

func TestDecodeMotDLatin1Fallback(t *testing.T) {
	// 0xE9 alone is not valid UTF-8 but is 'é' in Latin-1.
	invalid := []byte{0xE9}
	got := decodeMotD(invalid)
	if !strings.ContainsRune(got, 'é') {
		t.Fatalf("decodeMotD(%v) = %q, want it to contain 'é'", invalid, got)
	}
}
