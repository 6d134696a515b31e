package groundstation

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cwsl/echoflare/modem"
)

// fallbackSampleRate is assumed for a /radio stream that never
// presents a parseable WAV header, matching the ground station's own
// 48kHz mono 16-bit convention.
const fallbackSampleRate = 48000

// wavPrefix describes a RIFF/WAVE header found at the start of a
// buffer: the PCM format parameters and the byte offset where sample
// data begins.
type wavPrefix struct {
	sampleRate int
	dataOffset int
}

// parseWAVPrefix scans buf for a RIFF/WAVE "fmt "+"data" chunk pair,
// tolerating extra leading bytes the way a live stream attach might.
// It returns ok=false if no complete header could be parsed yet.
func parseWAVPrefix(buf []byte) (wavPrefix, bool) {
	riff := bytes.Index(buf, []byte("RIFF"))
	if riff < 0 || riff+12 > len(buf) || string(buf[riff+8:riff+12]) != "WAVE" {
		return wavPrefix{}, false
	}

	offset := riff + 12
	var sampleRate int
	var bitsPerSample uint16
	var dataOffset = -1

	for offset+8 <= len(buf) {
		chunkID := string(buf[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(buf[offset+4 : offset+8]))
		chunkData := offset + 8
		next := chunkData + chunkSize

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || next > len(buf) {
				return wavPrefix{}, false
			}
			sampleRate = int(binary.LittleEndian.Uint32(buf[chunkData+4 : chunkData+8]))
			bitsPerSample = binary.LittleEndian.Uint16(buf[chunkData+14 : chunkData+16])
		case "data":
			dataOffset = chunkData
		}
		if dataOffset >= 0 {
			// A streamed data chunk usually runs past the captured
			// bytes; only its start offset is needed.
			break
		}
		if next > len(buf) {
			return wavPrefix{}, false
		}
		offset = next + (chunkSize & 1)
	}

	if sampleRate == 0 || dataOffset < 0 || bitsPerSample != 16 {
		return wavPrefix{}, false
	}
	return wavPrefix{sampleRate: sampleRate, dataOffset: dataOffset}, true
}

// DownloadRadioWAV streams the satellite's /radio endpoint for
// approximately seconds of audio, writing a valid WAV file to path. If
// the stream never presents a parseable WAV header, the bytes are
// assumed to be raw 48kHz mono 16-bit PCM, matching the ground
// station's tolerant fallback.
func (c *Client) DownloadRadioWAV(ctx context.Context, satellite, path string, seconds float64) error {
	reqURL := c.url("/radio?sat=" + url.QueryEscape(satellite))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &Error{Op: "download radio wav", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Metrics.ObserveGroundstationRequest("download radio wav", 0)
		return &Error{Op: "download radio wav", Err: err}
	}
	defer resp.Body.Close()
	c.Metrics.ObserveGroundstationRequest("download radio wav", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &Error{Op: "download radio wav", Status: resp.StatusCode, Body: string(body)}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Op: "download radio wav", Err: fmt.Errorf("create workdir: %w", err)}
	}

	approxBytes := int64((seconds + 5) * fallbackSampleRate * 2)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, approxBytes))
	if err != nil && err != io.EOF {
		return &Error{Op: "download radio wav", Err: fmt.Errorf("read stream: %w", err)}
	}

	sampleRate := fallbackSampleRate
	pcm := raw
	if prefix, ok := parseWAVPrefix(raw); ok {
		sampleRate = prefix.sampleRate
		pcm = raw[prefix.dataOffset:]
	} else {
		log.Printf("[GROUNDSTATION] no WAV header in /radio stream for %s, assuming raw PCM at %d Hz", satellite, fallbackSampleRate)
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
	}

	w, err := modem.NewWAVWriter(path, sampleRate)
	if err != nil {
		return &Error{Op: "download radio wav", Err: err}
	}
	if err := w.WriteSamples(samples); err != nil {
		w.Close()
		return &Error{Op: "download radio wav", Err: err}
	}
	if err := w.Close(); err != nil {
		return &Error{Op: "download radio wav", Err: err}
	}
	log.Printf("[GROUNDSTATION] captured %.1fs (%d samples) of /radio audio for %s -> %s", float64(len(samples))/float64(sampleRate), len(samples), satellite, path)
	return nil
}
