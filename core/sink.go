package core

import "io"

// lineEnding matches what a serial plotter expects from println.
const lineEnding = "\r\n"

// Sink consumes text lines produced by the monitor.
type Sink interface {
	// Println writes s followed by a line ending.
	Println(s string) error
}

// WriterSink adapts an io.Writer (UART, USB CDC, stdout) to a Sink.
type WriterSink struct {
	W io.Writer
}

// NewWriterSink creates a Sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

func (s *WriterSink) Println(line string) error {
	_, err := io.WriteString(s.W, line+lineEnding)
	return err
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(string)

func (f SinkFunc) Println(line string) error {
	f(line)
	return nil
}

// FormatDataLine renders one steady-state line: "<level> <reference>".
func FormatDataLine(level Amplitude, reference int, precision int) string {
	return ftoa(float32(level), precision) + " " + itoa(reference)
}

// Startup diagnostics written to the sink.
const (
	MsgConfiguring   = "Configuring I2S..."
	MsgInstallFailed = "Failed installing driver: "
	MsgPinFailed     = "Failed setting pin: "
	MsgInstalled     = "I2S driver installed."
	MsgPresent       = "INMP441 is present."
	MsgAbsent        = "No INMP441 detected. Check wiring."
)
