package modem

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WAVHeader is the RIFF/WAVE header for a canonical PCM file: a "fmt "
// sub-chunk followed immediately by a "data" sub-chunk.
type WAVHeader struct {
	ChunkID   [4]byte
	ChunkSize uint32
	Format    [4]byte

	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WAVWriter writes mono 16-bit PCM samples to a WAV file, patching the
// header with final sizes on Close.
type WAVWriter struct {
	file       *os.File
	sampleRate int
	dataSize   int64
}

// NewWAVWriter creates filename and writes a placeholder header.
func NewWAVWriter(filename string, sampleRate int) (*WAVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("modem: create WAV file: %w", err)
	}
	w := &WAVWriter{file: file, sampleRate: sampleRate}
	if err := w.writeHeader(0); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *WAVWriter) writeHeader(dataSize int64) error {
	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(dataSize + 36),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(w.sampleRate),
		ByteRate:      uint32(w.sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
	if err := binary.Write(w.file, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("modem: write WAV header: %w", err)
	}
	return nil
}

// WriteSamples appends mono 16-bit samples to the WAV file.
func (w *WAVWriter) WriteSamples(samples []int16) error {
	if err := binary.Write(w.file, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("modem: write samples: %w", err)
	}
	w.dataSize += int64(len(samples)) * 2
	return nil
}

// Close finalizes the WAV file by rewriting the header with the actual
// data size, then closes the underlying file on every exit path.
func (w *WAVWriter) Close() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		w.file.Close()
		return fmt.Errorf("modem: seek to rewrite header: %w", err)
	}
	if err := w.writeHeader(w.dataSize); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// ReadWAVMono16 reads a mono 16-bit PCM WAV file, returning its sample
// rate and samples. It rejects anything that is not PCM mono 16-bit.
func ReadWAVMono16(filename string) (sampleRate int, samples []int16, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, nil, fmt.Errorf("modem: open WAV file: %w", err)
	}
	defer f.Close()

	var riffHeader struct {
		ChunkID   [4]byte
		ChunkSize uint32
		Format    [4]byte
	}
	if err := binary.Read(f, binary.LittleEndian, &riffHeader); err != nil {
		return 0, nil, fmt.Errorf("modem: read RIFF header: %w", err)
	}
	if riffHeader.ChunkID != [4]byte{'R', 'I', 'F', 'F'} || riffHeader.Format != [4]byte{'W', 'A', 'V', 'E'} {
		return 0, nil, fmt.Errorf("modem: not a RIFF/WAVE file")
	}

	var fmtChunk struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
	var dataSize uint32
	var foundFmt, foundData bool

	for !foundData {
		var chunkID [4]byte
		var chunkSize uint32
		if err := binary.Read(f, binary.LittleEndian, &chunkID); err != nil {
			return 0, nil, fmt.Errorf("modem: read chunk id: %w", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			return 0, nil, fmt.Errorf("modem: read chunk size: %w", err)
		}
		switch chunkID {
		case [4]byte{'f', 'm', 't', ' '}:
			if err := binary.Read(f, binary.LittleEndian, &fmtChunk); err != nil {
				return 0, nil, fmt.Errorf("modem: read fmt chunk: %w", err)
			}
			if extra := int64(chunkSize) - 16; extra > 0 {
				if _, err := f.Seek(extra, io.SeekCurrent); err != nil {
					return 0, nil, fmt.Errorf("modem: skip fmt extension: %w", err)
				}
			}
			foundFmt = true
		case [4]byte{'d', 'a', 't', 'a'}:
			dataSize = chunkSize
			foundData = true
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return 0, nil, fmt.Errorf("modem: skip chunk %q: %w", chunkID, err)
			}
		}
	}
	if !foundFmt {
		return 0, nil, fmt.Errorf("modem: WAV file has no fmt chunk")
	}
	if fmtChunk.AudioFormat != 1 {
		return 0, nil, fmt.Errorf("modem: unsupported WAV audio format %d, want PCM", fmtChunk.AudioFormat)
	}
	if fmtChunk.NumChannels != 1 {
		return 0, nil, fmt.Errorf("modem: WAV has %d channels, want mono", fmtChunk.NumChannels)
	}
	if fmtChunk.BitsPerSample != 16 {
		return 0, nil, fmt.Errorf("modem: WAV has %d-bit samples, want 16-bit", fmtChunk.BitsPerSample)
	}

	n := int(dataSize) / 2
	samples = make([]int16, n)
	if err := binary.Read(f, binary.LittleEndian, samples); err != nil {
		return 0, nil, fmt.Errorf("modem: read PCM samples: %w", err)
	}
	return int(fmtChunk.SampleRate), samples, nil
}
