package core

// SampleRing is a circular buffer of sample words staged between the
// peripheral and the reader, sized like the driver's transfer buffers.
// When full, new words are dropped and counted as overruns.
type SampleRing struct {
	buf      []int32
	read     int
	write    int
	size     int
	overruns uint32
}

// NewSampleRing creates a ring able to hold capacity words.
func NewSampleRing(capacity int) *SampleRing {
	if capacity < 1 {
		capacity = 1
	}
	// One slot stays free to tell full from empty
	return &SampleRing{
		buf:  make([]int32, capacity+1),
		size: capacity + 1,
	}
}

// NewSampleRingFor sizes a ring from a bus configuration.
func NewSampleRingFor(cfg BusConfig) *SampleRing {
	return NewSampleRing(int(cfg.BufferCount) * int(cfg.BufferLen))
}

// Push appends one word. It returns false on overrun.
func (r *SampleRing) Push(v int32) bool {
	next := (r.write + 1) % r.size
	if next == r.read {
		r.overruns++
		return false
	}
	r.buf[r.write] = v
	r.write = next
	return true
}

// Write appends words and returns how many were stored
func (r *SampleRing) Write(words []int32) int {
	written := 0
	for _, v := range words {
		if !r.Push(v) {
			break
		}
		written++
	}
	// Count the rest of the batch as lost
	if lost := len(words) - written; lost > 1 {
		r.overruns += uint32(lost - 1)
	}
	return written
}

// ReadBytes drains whole words into buf as little-endian bytes and
// returns the number of bytes written.
func (r *SampleRing) ReadBytes(buf []byte) int {
	n := 0
	for n+SampleWordSize <= len(buf) && r.read != r.write {
		EncodeSample(buf[n:], r.buf[r.read])
		r.read = (r.read + 1) % r.size
		n += SampleWordSize
	}
	return n
}

// Available returns the number of words ready to read
func (r *SampleRing) Available() int {
	if r.write >= r.read {
		return r.write - r.read
	}
	return r.size - r.read + r.write
}

// Free returns the number of words that can still be pushed
func (r *SampleRing) Free() int {
	return r.size - r.Available() - 1
}

// Overruns returns how many words were dropped because the ring was full
func (r *SampleRing) Overruns() uint32 {
	return r.overruns
}

// IsEmpty returns true if the ring holds no words
func (r *SampleRing) IsEmpty() bool {
	return r.read == r.write
}

// Reset clears the ring and the overrun counter
func (r *SampleRing) Reset() {
	r.read = 0
	r.write = 0
	r.overruns = 0
}
