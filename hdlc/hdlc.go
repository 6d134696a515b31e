// Package hdlc extracts and composes AX.25 frames from a descrambled,
// NRZI-decoded bitstream: flag detection, bit-unstuffing, and FCS
// validation on receive; flag insertion and bit-stuffing on transmit.
package hdlc

import "github.com/cwsl/echoflare/bitstream"

const flagByte = 0x7E

var flagBits = bitstream.BytesToBitsLSB([]byte{flagByte})

// minFrameBits is the minimum bit length of a frame candidate: two
// 7-byte addresses, the control and PID bytes, and a 2-byte FCS (the
// payload may be empty; the reference decoder uses this same floor).
const minFrameBits = 8 * (7 + 7 + 2 + 2)

func findFlags(bits []int) []int {
	var flags []int
	for i := 0; i+8 <= len(bits); i++ {
		match := true
		for j := 0; j < 8; j++ {
			if bits[i+j] != flagBits[j] {
				match = false
				break
			}
		}
		if match {
			flags = append(flags, i)
		}
	}
	return flags
}

// ExtractFrames finds all 0x7E flag-delimited, bit-stuffed frames in a
// descrambled bitstream, validates each against CRC-16/X-25, and
// returns the payload bytes (excluding the 2-byte FCS) for every frame
// that checks out. Frames with a bad FCS are dropped silently; there
// is no way to distinguish them from flag pairs straddling noise.
func ExtractFrames(bits []int) [][]byte {
	flags := findFlags(bits)
	var frames [][]byte
	for i := 0; i+1 < len(flags); i++ {
		start := flags[i] + 8
		end := flags[i+1]
		if end <= start || end-start < minFrameBits {
			continue
		}
		unstuffed := bitstream.Unstuff(bits[start:end])
		data := bitstream.BitsToBytesLSB(unstuffed)
		if len(data) < 2 {
			continue
		}
		frame := data[:len(data)-2]
		fcsBytes := data[len(data)-2:]
		got := uint16(fcsBytes[0]) | uint16(fcsBytes[1])<<8
		if got != bitstream.CRC16X25(frame) {
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

// ComposeFrame builds the unscrambled, unNRZI'd bit sequence for one
// frame: preFlags flag bytes, bit-stuffed frame+FCS, postFlags flag
// bytes.
func ComposeFrame(frame []byte, preFlags, postFlags int) []int {
	fcs := bitstream.CRC16X25(frame)
	frameFCS := make([]byte, len(frame)+2)
	copy(frameFCS, frame)
	frameFCS[len(frame)] = byte(fcs)
	frameFCS[len(frame)+1] = byte(fcs >> 8)

	bits := bitstream.BytesToBitsLSB(repeat(flagByte, preFlags))
	bits = append(bits, bitstream.Stuff(bitstream.BytesToBitsLSB(frameFCS))...)
	bits = append(bits, bitstream.BytesToBitsLSB(repeat(flagByte, postFlags))...)
	return bits
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
