package telecommand

import "testing"

func TestBuildVerifyRoundTrip(t *testing.T) {
	packet := Build(0x1234, 42, []byte("payload"))
	if errStr := Verify(packet); errStr != "" {
		t.Fatalf("Verify(Build(...)) = %q, want \"\"", errStr)
	}
	for i := range packet {
		mutated := append([]byte(nil), packet...)
		mutated[i] ^= 0xFF
		if errStr := Verify(mutated); errStr == "" {
			t.Fatalf("Verify accepted packet with byte %d flipped", i)
		}
	}
}

// S2 MotD build.
func TestS2BuildSetMotD(t *testing.T) {
	packet := BuildSetMotD(7, "hi")
	wantHeader := []byte{0x55, 0x00, 0x00, 0x00, 0x00, 0x07, 0x02, 'h', 'i'}
	if len(packet) != len(wantHeader)+32 {
		t.Fatalf("packet length = %d, want %d", len(packet), len(wantHeader)+32)
	}
	for i, b := range wantHeader {
		if packet[i] != b {
			t.Fatalf("byte %d = %#02x, want %#02x", i, packet[i], b)
		}
	}
	if errStr := Verify(packet); errStr != "" {
		t.Fatalf("Verify = %q, want \"\"", errStr)
	}
	mutated := append([]byte(nil), packet...)
	mutated[len(mutated)-1] ^= 0xFF
	if errStr := Verify(mutated); errStr == "" {
		t.Fatalf("expected Verify to fail after flipping last byte")
	}
}

// S6 Bad HMAC.
func TestS6BadHMAC(t *testing.T) {
	packet := BuildSSTV(1)
	packet[len(packet)-1] ^= 0x01
	if errStr := Verify(packet); errStr == "" {
		t.Fatalf("expected non-empty error for flipped HMAC byte")
	}
}

func TestVerifyRejectsShortPacket(t *testing.T) {
	if errStr := Verify(make([]byte, 10)); errStr == "" {
		t.Fatalf("expected error for short packet")
	}
}

func TestBuildSSTVEmptyPayload(t *testing.T) {
	packet := BuildSSTV(5)
	if len(packet) != headerLen+tagLen {
		t.Fatalf("SSTV packet length = %d, want %d", len(packet), headerLen+tagLen)
	}
}
