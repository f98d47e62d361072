// Package replay serves a WAV recording as an audio bus, so the firmware
// pipeline can run unchanged on a desktop.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"micmeter/core"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Bus implements core.BusDriver over decoded WAV samples. Samples are
// left-justified into 32-bit words, the layout an I2S microphone delivers.
type Bus struct {
	words      []int32
	pos        int
	sampleRate uint32
	bitDepth   int

	// Loop restarts the recording when it ends instead of returning EOF.
	Loop bool
	// Realtime paces reads to the sample rate.
	Realtime bool
	// Sleep is used for realtime pacing, time.Sleep by default.
	Sleep func(time.Duration)

	cfg       core.BusConfig
	installed bool
	pinned    bool
	reads     uint64
}

// Open decodes the WAV file at path.
func Open(path string) (*Bus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a PCM WAV stream. Only the first channel is kept.
func Decode(r io.ReadSeeker) (*Bus, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	return &Bus{
		words:      toWords(buf.Data, channels, bitDepth),
		sampleRate: d.SampleRate,
		bitDepth:   bitDepth,
		Sleep:      time.Sleep,
	}, nil
}

// FromWords creates a bus serving already formatted 32-bit words.
func FromWords(words []int32, sampleRate uint32) *Bus {
	return &Bus{words: words, sampleRate: sampleRate, bitDepth: 32, Sleep: time.Sleep}
}

// pcm8Offset is the zero level of unsigned 8-bit WAV samples.
const pcm8Offset = 128

// toWords keeps the first channel of interleaved frames and shifts each
// sample to the top of a 32-bit word. 8-bit PCM is unsigned and is
// re-centred on zero first.
func toWords(data []int, channels, bitDepth int) []int32 {
	shift := uint(32 - bitDepth)
	offset := 0
	if bitDepth == 8 {
		offset = pcm8Offset
	}
	words := make([]int32, 0, len(data)/channels)
	for i := 0; i < len(data); i += channels {
		words = append(words, int32(data[i]-offset)<<shift)
	}
	return words
}

// Install records the configuration. A sample rate mismatch is logged,
// not rejected: the recording is served as is.
func (b *Bus) Install(cfg core.BusConfig) error {
	if b.installed {
		return core.NewStatusError("install", core.StatusInvalidState, nil)
	}
	if err := cfg.Validate(); err != nil {
		return core.NewStatusError("install", core.StatusInvalidArg, err)
	}
	if cfg.SampleRate != b.sampleRate {
		core.DebugPrintln(fmt.Sprintf("replay: recording is %d Hz, bus configured for %d Hz", b.sampleRate, cfg.SampleRate))
	}
	b.cfg = cfg
	b.installed = true
	return nil
}

func (b *Bus) ConfigurePins(pins core.PinMap) error {
	if !b.installed {
		return core.NewStatusError("set_pin", core.StatusInvalidState, core.ErrNotInstalled)
	}
	if err := pins.ValidateFor(b.cfg); err != nil {
		return core.NewStatusError("set_pin", core.StatusInvalidArg, err)
	}
	b.pinned = true
	return nil
}

// Read copies the next words of the recording into buf. At the end of a
// non-looping recording it returns a short count, then 0 and io.EOF.
func (b *Bus) Read(buf []byte, timeout time.Duration) (int, error) {
	if !b.pinned {
		return 0, core.NewStatusError("read", core.StatusInvalidState, core.ErrNotInstalled)
	}
	b.reads++
	want := len(buf) / core.SampleWordSize
	n := 0
	for n < want {
		if b.pos >= len(b.words) {
			if !b.Loop || len(b.words) == 0 {
				break
			}
			b.pos = 0
		}
		core.EncodeSample(buf[n*core.SampleWordSize:], b.words[b.pos])
		b.pos++
		n++
	}
	if b.Realtime && n > 0 && b.sampleRate > 0 && b.Sleep != nil {
		b.Sleep(time.Duration(n) * time.Second / time.Duration(b.sampleRate))
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n * core.SampleWordSize, nil
}

// Exhausted reports whether a non-looping recording has been fully read.
func (b *Bus) Exhausted() bool {
	return !b.Loop && b.pos >= len(b.words)
}

// SampleRate returns the recording's sample rate.
func (b *Bus) SampleRate() uint32 {
	return b.sampleRate
}

// Len returns the number of words in the recording.
func (b *Bus) Len() int {
	return len(b.words)
}

// Reads returns how many reads were served.
func (b *Bus) Reads() uint64 {
	return b.reads
}

// WriteWAV encodes words as a mono PCM WAV file at bitDepth, keeping the
// top bits of each 32-bit word. 8-bit output is offset to unsigned.
func WriteWAV(w io.WriteSeeker, words []int32, sampleRate, bitDepth int) error {
	if bitDepth <= 0 || bitDepth > 32 {
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	shift := uint(32 - bitDepth)
	offset := 0
	if bitDepth == 8 {
		offset = pcm8Offset
	}
	data := make([]int, len(words))
	for i, v := range words {
		data[i] = int(v>>shift) + offset
	}

	e := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	if err := e.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	return e.Close()
}
