package sound

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	WAVHeaderLength = 44
	wavBlockAlign   = 4
	wavFmtLength    = 16
	wavFormatPCM    = 1
)

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WaveFmt       [8]byte
	FmtLength     uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataID        [4]byte
	DataLength    uint32
}

func (c *Clip) wavHeader() wavHeader {
	dataLength := uint32(len(c.Data))
	return wavHeader{
		RIFF: [4]byte{'R', 'I', 'F', 'F'},
		// n+16 rather than the canonical n+36, byte-compatible with existing dumps.
		ChunkSize:     dataLength + 16,
		WaveFmt:       [8]byte{'W', 'A', 'V', 'E', 'f', 'm', 't', ' '},
		FmtLength:     wavFmtLength,
		AudioFormat:   wavFormatPCM,
		Channels:      uint16(c.Channels),
		SampleRate:    c.SampleRate,
		ByteRate:      c.SampleRate * (c.BitsPerSample * c.Channels) / 8,
		BlockAlign:    wavBlockAlign,
		BitsPerSample: uint16(c.BitsPerSample),
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataLength:    dataLength,
	}
}

// WriteWAV writes the clip as a RIFF/WAVE file.
func (c *Clip) WriteWAV(w io.Writer) (int64, error) {
	header := c.wavHeader()
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return 0, err
	}
	n, err := w.Write(c.Data)
	return int64(WAVHeaderLength + n), err
}

// EncodeWAV returns the clip as a RIFF/WAVE file.
func (c *Clip) EncodeWAV() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(WAVHeaderLength + len(c.Data))
	if _, err := c.WriteWAV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
