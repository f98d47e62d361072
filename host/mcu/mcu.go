// Package mcu talks to a micmeter board over its serial text stream.
package mcu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"micmeter/core"
	"micmeter/host/plot"
	"micmeter/host/serial"
)

// ErrNotConnected is returned by operations that need an open port.
var ErrNotConnected = errors.New("not connected to board")

// Status is what the board reported during startup.
type Status struct {
	Installed   bool   // Driver installed and pins routed
	Present     bool   // Presence probe saw a signal
	Decided     bool   // A presence report (or data) was received
	Failure     string // Install or pin failure line, if any
	Diagnostics []string
}

// MCU represents a connection to a micmeter board
type MCU struct {
	port   serial.Port
	reader *bufio.Reader

	// Counters
	lines     uint64
	data      uint64
	malformed uint64

	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens the board's serial device with default settings
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the board with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)

	// Drop whatever the driver buffered before we opened
	if err := port.Flush(); err != nil {
		core.DebugPrintln("flush failed: " + err.Error())
	}
	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port serial.Port) {
	m.port = port
	m.reader = bufio.NewReader(port)
	m.connected = true
}

// Close closes the connection to the board
func (m *MCU) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	return m.port.Close()
}

// ReadLine returns the next line without its line ending
func (m *MCU) ReadLine() (string, error) {
	if !m.connected {
		return "", ErrNotConnected
	}
	s, err := m.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && s != "" {
			// Unterminated tail, hand it out once
			err = nil
		} else {
			return "", err
		}
	}
	m.lines++
	return strings.TrimRight(s, "\r\n"), nil
}

// WaitReady reads startup diagnostics until the board has reported whether
// the microphone is present. A board that is already streaming counts as
// present on the first data line. timeout bounds the number of lines read
// through the deadline check between lines; a blocking port can still stall.
func (m *MCU) WaitReady(timeout time.Duration) (*Status, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}
	st := &Status{}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		raw, err := m.ReadLine()
		if err != nil {
			return st, fmt.Errorf("failed to read startup report: %w", err)
		}
		line, perr := plot.ParseLine(raw)
		if perr != nil {
			m.malformed++
			continue
		}
		switch line.Kind {
		case plot.KindData:
			m.data++
			st.Installed = true
			st.Present = true
			st.Decided = true
			return st, nil
		case plot.KindDiagnostic:
			st.Diagnostics = append(st.Diagnostics, line.Text)
			switch {
			case line.Text == core.MsgInstalled:
				st.Installed = true
			case line.Text == core.MsgPresent:
				st.Present = true
				st.Decided = true
				return st, nil
			case line.Text == core.MsgAbsent:
				st.Decided = true
				return st, nil
			case strings.HasPrefix(line.Text, core.MsgInstallFailed),
				strings.HasPrefix(line.Text, core.MsgPinFailed):
				st.Failure = line.Text
				st.Decided = true
				return st, fmt.Errorf("board halted: %s", line.Text)
			}
		}
	}
	return st, fmt.Errorf("no startup report after %v: %w", timeout, core.ErrTimeout)
}

// Stream passes every received line to handle until ctx is done, the port
// fails, or handle returns an error. Malformed data lines are counted and
// handed over as diagnostics.
func (m *MCU) Stream(ctx context.Context, handle func(plot.Line) error) error {
	if !m.connected {
		return ErrNotConnected
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := m.ReadLine()
		if err != nil {
			return err
		}
		line, perr := plot.ParseLine(raw)
		if perr != nil {
			m.malformed++
		}
		if line.Kind == plot.KindData {
			m.data++
		}
		if err := handle(line); err != nil {
			return err
		}
	}
}

// Stats returns lines read, data lines and malformed data lines
func (m *MCU) Stats() (lines, data, malformed uint64) {
	return m.lines, m.data, m.malformed
}

// IsConnected returns whether the board is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}
