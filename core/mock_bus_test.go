package core

import "time"

// mockBus is a test implementation of BusDriver.
// Each Read serves the next queued block; the last block repeats.
type mockBus struct {
	installErr error
	pinErr     error
	readErr    error

	blocks [][]int32

	installed bool
	pinned    bool
	cfg       BusConfig
	pins      PinMap
	reads     int
	timeouts  []time.Duration
}

func (m *mockBus) Install(cfg BusConfig) error {
	if m.installErr != nil {
		return m.installErr
	}
	m.installed = true
	m.cfg = cfg
	return nil
}

func (m *mockBus) ConfigurePins(pins PinMap) error {
	if m.pinErr != nil {
		return m.pinErr
	}
	m.pinned = true
	m.pins = pins
	return nil
}

func (m *mockBus) Read(buf []byte, timeout time.Duration) (int, error) {
	m.reads++
	m.timeouts = append(m.timeouts, timeout)
	if len(m.blocks) == 0 {
		return 0, m.readErr
	}
	block := m.blocks[0]
	if len(m.blocks) > 1 {
		m.blocks = m.blocks[1:]
	}
	n := 0
	for _, v := range block {
		if n+SampleWordSize > len(buf) {
			break
		}
		EncodeSample(buf[n:], v)
		n += SampleWordSize
	}
	return n, m.readErr
}

// fillBlock returns n samples all equal to v.
func fillBlock(n int, v int32) []int32 {
	block := make([]int32, n)
	for i := range block {
		block[i] = v
	}
	return block
}

// lineRecorder is a Sink that keeps every line.
type lineRecorder struct {
	lines  []string
	onLine func(n int)
}

func (l *lineRecorder) Println(s string) error {
	l.lines = append(l.lines, s)
	if l.onLine != nil {
		l.onLine(len(l.lines))
	}
	return nil
}
