package core

import (
	"runtime"
	"time"
)

// Poller implements BusDriver.Read for peripherals whose words are staged in
// a SampleRing. Words arrive either from Fill, called on every poll, or from
// an interrupt handler pushing into Ring; ring access from Read runs inside
// a critical section so both can be used. Read waits until a full block is
// staged, the ring is full, or the timeout expires.
type Poller struct {
	Ring *SampleRing

	// Fill pulls pending words from the peripheral into the ring and
	// returns how many were moved. Nil when an interrupt handler feeds Ring.
	Fill func(ring *SampleRing) int

	// Now and Wait are injectable for tests.
	Now  func() time.Time
	Wait func()
}

// Read blocks until len(buf) bytes (rounded down to whole words) are staged,
// then copies them out. A ring smaller than the request returns as soon as
// it is full. With a bounded timeout it returns whatever arrived, plus
// ErrTimeout when nothing did.
func (p *Poller) Read(buf []byte, timeout time.Duration) (int, error) {
	if p.Ring == nil {
		return 0, ErrNotInstalled
	}
	want := len(buf) / SampleWordSize
	if want == 0 {
		return 0, nil
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	wait := p.Wait
	if wait == nil {
		wait = runtime.Gosched
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = now().Add(timeout)
	}
	for {
		if p.Fill != nil {
			p.Fill(p.Ring)
		}
		state := disableInterrupts()
		ready := p.Ring.Available() >= want || p.Ring.Free() == 0
		restoreInterrupts(state)
		if ready {
			break
		}
		if timeout >= 0 && !now().Before(deadline) {
			break
		}
		wait()
	}

	state := disableInterrupts()
	n := p.Ring.ReadBytes(buf[:want*SampleWordSize])
	restoreInterrupts(state)
	if n == 0 && timeout >= 0 {
		return 0, ErrTimeout
	}
	return n, nil
}
