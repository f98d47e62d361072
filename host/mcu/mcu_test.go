package mcu

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"micmeter/host/plot"
)

// pipePort serves canned board output as a serial.Port
type pipePort struct {
	r       io.Reader
	closed  bool
	flushes int
}

func newPipePort(s string) *pipePort {
	return &pipePort{r: strings.NewReader(s)}
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *pipePort) Close() error                { p.closed = true; return nil }
func (p *pipePort) Flush() error                { p.flushes++; return nil }

func connected(s string) (*MCU, *pipePort) {
	port := newPipePort(s)
	m := NewMCU()
	m.Attach(port)
	return m, port
}

func TestWaitReadyPresent(t *testing.T) {
	m, _ := connected("Configuring I2S...\r\nI2S driver installed.\r\nINMP441 is present.\r\n0.25 1600\r\n")

	st, err := m.WaitReady(time.Second)
	if err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if !st.Installed || !st.Present || !st.Decided {
		t.Errorf("Unexpected status %+v", st)
	}
	if len(st.Diagnostics) != 3 {
		t.Errorf("Expected 3 diagnostics, got %v", st.Diagnostics)
	}
}

func TestWaitReadyAbsent(t *testing.T) {
	m, _ := connected("Configuring I2S...\r\nI2S driver installed.\r\nNo INMP441 detected. Check wiring.\r\n")

	st, err := m.WaitReady(time.Second)
	if err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if !st.Decided || st.Present {
		t.Errorf("Expected absent, got %+v", st)
	}
}

func TestWaitReadyAlreadyStreaming(t *testing.T) {
	m, _ := connected("0.5 1600\r\n")

	st, err := m.WaitReady(time.Second)
	if err != nil || !st.Present {
		t.Errorf("Expected a streaming board to count as present, got %+v, %v", st, err)
	}
}

func TestWaitReadyFailure(t *testing.T) {
	m, _ := connected("Configuring I2S...\r\nFailed installing driver: 259\r\n")

	st, err := m.WaitReady(time.Second)
	if err == nil {
		t.Fatal("Expected error for halted board")
	}
	if st.Failure != "Failed installing driver: 259" {
		t.Errorf("Unexpected failure %q", st.Failure)
	}
}

func TestWaitReadyEOF(t *testing.T) {
	m, _ := connected("Configuring I2S...\r\n")

	if _, err := m.WaitReady(time.Second); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func TestStream(t *testing.T) {
	m, _ := connected("0.1 1600\r\n0.2 1600\r\n0.25 abc\r\nRetry 3\r\n\r\n0.3 1600")

	var levels []float64
	err := m.Stream(context.Background(), func(l plot.Line) error {
		if l.Kind == plot.KindData {
			levels = append(levels, l.Level)
		}
		return nil
	})
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF at end of stream, got %v", err)
	}
	if len(levels) != 3 || levels[2] != 0.3 {
		t.Errorf("Unexpected levels %v", levels)
	}
	lines, data, malformed := m.Stats()
	if lines != 6 || data != 3 || malformed != 1 {
		t.Errorf("Unexpected stats lines=%d data=%d malformed=%d", lines, data, malformed)
	}
}

func TestStreamStopsOnHandlerError(t *testing.T) {
	m, _ := connected("0.1 1600\r\n0.2 1600\r\n")
	stop := errors.New("stop")

	calls := 0
	err := m.Stream(context.Background(), func(plot.Line) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Expected stop after first line, got %v after %d calls", err, calls)
	}
}

func TestStreamCancelled(t *testing.T) {
	m, _ := connected("0.1 1600\r\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Stream(ctx, func(plot.Line) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	m := NewMCU()
	if _, err := m.ReadLine(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close on unconnected board should be a no-op, got %v", err)
	}
}

func TestClose(t *testing.T) {
	m, port := connected("")
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !port.closed || m.IsConnected() {
		t.Error("Expected port closed")
	}
}
