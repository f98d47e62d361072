package core

import (
	"encoding/binary"
	"math"
	"time"
)

// Amplitude is the loudness proxy computed from one block: the mean of the
// shifted sample words divided by a normalization constant. It is signed;
// the acquisition loop reports its absolute value.
type Amplitude float32

// Abs returns |a|.
func (a Amplitude) Abs() Amplitude {
	return Amplitude(math.Abs(float64(a)))
}

// SampleReader pulls one block of raw words from the bus per call and
// reduces it to an Amplitude.
type SampleReader struct {
	bus BusDriver
	buf []byte

	Shift   uint          // Right shift applied to every word
	Norm    float32       // Divisor applied to the block mean
	Timeout time.Duration // Read timeout, WaitForever by default

	// Raw, when set, receives every shifted sample of a block in order.
	Raw func(v int32)

	blocks  uint32
	samples uint32
	short   uint32
}

// NewSampleReader creates a reader for blockSize samples per read.
func NewSampleReader(bus BusDriver, blockSize int) *SampleReader {
	if blockSize <= 0 {
		blockSize = BlockSize
	}
	return &SampleReader{
		bus:     bus,
		buf:     make([]byte, blockSize*SampleWordSize),
		Shift:   SampleShift,
		Norm:    NormDivisor,
		Timeout: WaitForever,
	}
}

// BlockSize returns the number of samples requested per read.
func (r *SampleReader) BlockSize() int {
	return len(r.buf) / SampleWordSize
}

// ReadBlock issues one bus read and returns the block amplitude.
// An empty or failed transfer yields 0. A short transfer is averaged over
// the samples that arrived; it is not retried or padded.
func (r *SampleReader) ReadBlock() Amplitude {
	n, err := r.bus.Read(r.buf, r.Timeout)
	if n < 0 {
		n = 0
	}
	if n > len(r.buf) {
		n = len(r.buf)
	}
	r.blocks++
	if n < len(r.buf) {
		r.short++
		if err != nil {
			RecordRead(EvtReadError, uint32(n), uint32(StatusCode(err)))
		} else {
			RecordRead(EvtShortRead, uint32(n), uint32(len(r.buf)))
		}
	}

	samplesRead := n / SampleWordSize
	r.samples += uint32(samplesRead)
	return blockAmplitude(r.buf[:samplesRead*SampleWordSize], r.Shift, r.Norm, r.Raw)
}

// Stats returns the number of reads, samples converted and short reads so far.
func (r *SampleReader) Stats() (blocks, samples, short uint32) {
	return r.blocks, r.samples, r.short
}

// LeftJustify shifts bits-wide signed PCM samples in place to the top of
// 32-bit bus words, the layout an I2S microphone delivers.
func LeftJustify(samples []int32, bits uint) {
	if bits == 0 || bits >= 32 {
		return
	}
	shift := 32 - bits
	for i := range samples {
		samples[i] <<= shift
	}
}

// DecodeSample returns the signed word stored little-endian in b[0:4].
func DecodeSample(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// EncodeSample stores v little-endian into b[0:4].
func EncodeSample(b []byte, v int32) {
	binary.LittleEndian.PutUint32(b, uint32(v))
}

// MeanAmplitude computes sum(v >> shift) / len(samples) / norm.
// It returns 0 for an empty slice.
func MeanAmplitude(samples []int32, shift uint, norm float32) Amplitude {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, v := range samples {
		sum += int64(v >> shift)
	}
	return finishMean(sum, len(samples), norm)
}

// blockAmplitude is MeanAmplitude over the raw little-endian words in block.
func blockAmplitude(block []byte, shift uint, norm float32, raw func(int32)) Amplitude {
	count := len(block) / SampleWordSize
	if count == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < count; i++ {
		v := DecodeSample(block[i*SampleWordSize:]) >> shift
		if raw != nil {
			raw(v)
		}
		sum += int64(v)
	}
	return finishMean(sum, count, norm)
}

func finishMean(sum int64, count int, norm float32) Amplitude {
	mean := float64(sum) / float64(count)
	return Amplitude(mean / float64(norm))
}
