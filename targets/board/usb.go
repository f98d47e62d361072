//go:build tinygo

// Package board holds the firmware glue shared by every microcontroller
// target: the USB CDC sink for the plotter stream, the UART debug writer
// and the LED blink codes used when the pipeline halts.
package board

import (
	"machine"
)

const lineEnding = "\r\n"

// USBSink writes monitor lines to USB CDC (machine.Serial).
// A line that cannot be written is dropped, never retried, so the capture
// loop keeps draining the bus when no host is listening.
type USBSink struct {
	dropped uint32
}

// InitUSB configures machine.Serial and returns the plotter sink.
// The USB descriptors are set by TinyGo's runtime.
func InitUSB() *USBSink {
	machine.Serial.Configure(machine.UARTConfig{})
	return &USBSink{}
}

func (s *USBSink) Println(line string) error {
	data := []byte(line + lineEnding)
	for len(data) > 0 {
		n, err := machine.Serial.Write(data)
		if err != nil || n == 0 {
			// No host or endpoint stalled
			s.dropped++
			return err
		}
		data = data[n:]
	}
	return nil
}

// Dropped returns the number of lines that could not be sent
func (s *USBSink) Dropped() uint32 {
	return s.dropped
}
