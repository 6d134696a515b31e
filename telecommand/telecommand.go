// Package telecommand builds and verifies HMAC-SHA-256 authenticated
// telecommand packets for the spacecraft uplink.
package telecommand

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// defaultKeyHex is the build-time shared secret matching the key
// flashed to the spacecraft.
const defaultKeyHex = "13d942ddd4dd43ed5394039258c7b4c2a730b8ba1f4cc7b5dd24c3af623428e4"

// Command types recognized by this toolkit.
const (
	TypeSetMotD = 0x5500
	TypeSSTV    = 0x5533
)

const tagLen = sha256.Size // 32 bytes
const headerLen = 2 + 4    // type + sequence

// Key is the shared 256-bit HMAC key. It starts as the build-time
// constant defaultKeyHex; SetKey replaces it.
var Key [32]byte

func init() {
	raw, err := hex.DecodeString(defaultKeyHex)
	if err != nil || len(raw) != len(Key) {
		panic("telecommand: malformed default key constant")
	}
	copy(Key[:], raw)
}

// SetKey installs the shared HMAC key. Intended to be called once
// during start-up, before any Build/Verify call.
func SetKey(key [32]byte) {
	Key = key
}

func body(cmdType uint16, sequence uint32, payload []byte) []byte {
	b := make([]byte, headerLen+len(payload))
	binary.BigEndian.PutUint16(b[0:2], cmdType)
	binary.BigEndian.PutUint32(b[2:6], sequence)
	copy(b[6:], payload)
	return b
}

func tag(b []byte) []byte {
	mac := hmac.New(sha256.New, Key[:])
	mac.Write(b)
	return mac.Sum(nil)
}

// Build constructs a telecommand packet: type ‖ sequence ‖ payload ‖
// HMAC-SHA-256(type ‖ sequence ‖ payload). It re-verifies its own
// output before returning; disagreement indicates a programming fault,
// not a caller error, so it panics rather than returning an error.
func Build(cmdType uint16, sequence uint32, payload []byte) []byte {
	b := body(cmdType, sequence, payload)
	packet := append(b, tag(b)...)
	if errStr := Verify(packet); errStr != "" {
		panic(fmt.Sprintf("telecommand: self-check failed on freshly built packet: %s", errStr))
	}
	return packet
}

// BuildSetMotD builds a Set-MotD telecommand for the given sequence,
// with a length-prefixed motd payload.
func BuildSetMotD(sequence uint32, motd string) []byte {
	payload := append([]byte{byte(len(motd))}, motd...)
	return Build(TypeSetMotD, sequence, payload)
}

// BuildSSTV builds an SSTV-trigger telecommand with an empty payload.
func BuildSSTV(sequence uint32) []byte {
	return Build(TypeSSTV, sequence, nil)
}

// Verify checks a telecommand packet's HMAC tag. It returns "" on
// success, or a descriptive non-empty string on failure, rather than
// an error, so command tooling can surface it without unwinding.
func Verify(packet []byte) string {
	if len(packet) < headerLen+tagLen {
		return fmt.Sprintf("telecommand: packet too short: %d bytes, want >= %d", len(packet), headerLen+tagLen)
	}
	b := packet[:len(packet)-tagLen]
	gotTag := packet[len(packet)-tagLen:]
	wantTag := tag(b)
	if subtle.ConstantTimeCompare(gotTag, wantTag) != 1 {
		return "telecommand: HMAC verification failed"
	}
	return ""
}
