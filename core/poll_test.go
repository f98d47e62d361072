package core

import (
	"errors"
	"testing"
	"time"
)

// fakeClock advances by step on every Wait.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Wait()          { c.now = c.now.Add(c.step) }

func TestPollerFullBlock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	next := int32(0)
	p := &Poller{
		Ring: NewSampleRing(16),
		// Hardware delivers 3 words per poll
		Fill: func(r *SampleRing) int {
			for i := 0; i < 3; i++ {
				r.Push(next)
				next++
			}
			return 3
		},
		Now:  clock.Now,
		Wait: clock.Wait,
	}

	buf := make([]byte, 8*SampleWordSize)
	n, err := p.Read(buf, WaitForever)
	if err != nil || n != len(buf) {
		t.Fatalf("Expected full block, got %d bytes, err %v", n, err)
	}
	for i := 0; i < 8; i++ {
		if got := DecodeSample(buf[i*SampleWordSize:]); got != int32(i) {
			t.Errorf("word %d = %d", i, got)
		}
	}
}

func TestPollerTimeoutPartial(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: 10 * time.Millisecond}
	delivered := false
	p := &Poller{
		Ring: NewSampleRing(16),
		Fill: func(r *SampleRing) int {
			if delivered {
				return 0
			}
			delivered = true
			r.Write([]int32{5, 6})
			return 2
		},
		Now:  clock.Now,
		Wait: clock.Wait,
	}

	n, err := p.Read(make([]byte, 64*SampleWordSize), 50*time.Millisecond)
	if err != nil {
		t.Errorf("Partial read should not fail, got %v", err)
	}
	if n != 2*SampleWordSize {
		t.Errorf("Expected 8 bytes, got %d", n)
	}
}

func TestPollerTimeoutEmpty(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: 10 * time.Millisecond}
	p := &Poller{
		Ring: NewSampleRing(16),
		Fill: func(r *SampleRing) int { return 0 },
		Now:  clock.Now,
		Wait: clock.Wait,
	}

	n, err := p.Read(make([]byte, 16), 30*time.Millisecond)
	if n != 0 || !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected 0 bytes and ErrTimeout, got %d, %v", n, err)
	}
	if StatusCode(err) != StatusTimeout {
		t.Errorf("Expected timeout status, got %d", StatusCode(err))
	}
}

func TestPollerNotInstalled(t *testing.T) {
	p := &Poller{}
	if _, err := p.Read(make([]byte, 16), 0); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Expected ErrNotInstalled, got %v", err)
	}
}

func TestPollerReturnsWhenRingFull(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	fills := 0
	p := &Poller{
		Ring: NewSampleRing(8),
		// Data keeps arriving, 4 words per poll
		Fill: func(r *SampleRing) int {
			fills++
			return r.Write([]int32{1, 2, 3, 4})
		},
		Now:  clock.Now,
		Wait: clock.Wait,
	}

	n, err := p.Read(make([]byte, 16*SampleWordSize), WaitForever)
	if err != nil {
		t.Fatalf("Unexpected error %v", err)
	}
	if n != 8*SampleWordSize {
		t.Errorf("Expected the full ring (32 bytes), got %d", n)
	}
	if fills != 2 {
		t.Errorf("Expected return after 2 fills, got %d", fills)
	}
}

func TestPollerInterruptFed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	ring := NewSampleRing(16)
	p := &Poller{Ring: ring, Now: clock.Now, Wait: func() {
		// Stands in for the RX interrupt between polls
		ring.Push(7)
		clock.Wait()
	}}

	n, err := p.Read(make([]byte, 4*SampleWordSize), WaitForever)
	if err != nil || n != 4*SampleWordSize {
		t.Errorf("Expected 4 words from the interrupt handler, got %d, %v", n, err)
	}
}
