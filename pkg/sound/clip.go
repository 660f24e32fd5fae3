// Package sound decodes audio records and wraps their PCM payload in a WAV container.
package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
)

// Clip is a decoded audio record. Header fields are passed through unvalidated.
type Clip struct {
	SubTag        [4]byte
	Channels      uint32
	SampleRate    uint32
	BitsPerSample uint32
	SampleCount   uint32 // informational
	Data          []byte // raw PCM
}

// Decode reads the 20-byte audio header; everything after it is the PCM payload.
func Decode(payload []byte) (*Clip, error) {
	if len(payload) < common.AudioContentHeaderLength {
		return nil, fmt.Errorf("%w: audio header needs %d bytes, record has %d",
			common.ErrTruncatedRecord, common.AudioContentHeaderLength, len(payload))
	}

	c := archive.NewCursor(bytes.NewReader(payload))
	clip := &Clip{}

	var err error
	if clip.SubTag, err = c.ReadTag(); err != nil {
		return nil, err
	}
	for _, field := range []*uint32{&clip.Channels, &clip.SampleRate, &clip.BitsPerSample, &clip.SampleCount} {
		if *field, err = c.ReadUint32(); err != nil {
			return nil, err
		}
	}

	clip.Data = payload[common.AudioContentHeaderLength:]
	return clip, nil
}

func (c *Clip) Format() *audio.Format {
	return &audio.Format{
		NumChannels: int(c.Channels),
		SampleRate:  int(c.SampleRate),
	}
}

// Buffer exposes the PCM payload as integer samples. 8-bit samples stay unsigned,
// 16-bit samples are signed little endian. Trailing partial samples are dropped.
func (c *Clip) Buffer() (*audio.IntBuffer, error) {
	var samples []int

	switch c.BitsPerSample {
	case 8:
		samples = make([]int, len(c.Data))
		for i, b := range c.Data {
			samples[i] = int(b)
		}
	case 16:
		samples = make([]int, len(c.Data)/2)
		for i := range samples {
			samples[i] = int(int16(binary.LittleEndian.Uint16(c.Data[i*2:])))
		}
	default:
		return nil, fmt.Errorf("unsupported PCM sample width: %d bits", c.BitsPerSample)
	}

	return &audio.IntBuffer{
		Format:         c.Format(),
		Data:           samples,
		SourceBitDepth: int(c.BitsPerSample),
	}, nil
}

// Duration is the playing time implied by the header, or zero when the header is
// implausible.
func (c *Clip) Duration() time.Duration {
	return duration(c.frames(), c.SampleRate)
}

func (c *Clip) frames() int {
	width := int(c.BitsPerSample / 8)
	if width == 0 || c.Channels == 0 {
		return 0
	}
	return len(c.Data) / width / int(c.Channels)
}

func duration(frames int, sampleRate uint32) time.Duration {
	if sampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Summary describes the PCM content of a clip.
type Summary struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Frames        int
	Duration      time.Duration
	// Peak is the largest distance of any sample from silence, as a fraction of full
	// scale. 8-bit samples are unsigned around 128.
	Peak float64
}

// Summarize scans the samples of the clip.
func (c *Clip) Summarize() (Summary, error) {
	buf, err := c.Buffer()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Channels:      buf.Format.NumChannels,
		SampleRate:    buf.Format.SampleRate,
		BitsPerSample: buf.SourceBitDepth,
	}
	if s.Channels > 0 {
		s.Frames = buf.NumFrames()
	}
	s.Duration = duration(s.Frames, c.SampleRate)

	center, fullScale := 0, 1<<15
	if buf.SourceBitDepth == 8 {
		center, fullScale = 128, 128
	}
	peak := 0
	for _, v := range buf.Data {
		d := v - center
		if d < 0 {
			d = -d
		}
		if d > peak {
			peak = d
		}
	}
	s.Peak = float64(peak) / float64(fullScale)

	return s, nil
}
