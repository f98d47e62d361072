//go:build tinygo

package board

import (
	"machine"
	"time"

	"micmeter/core"
)

// DebugUART configures uart at 115200 baud and returns a writer for
// core.SetDebugWriter. Gating is left to core.SetDebugEnabled.
func DebugUART(uart *machine.UART, tx, rx machine.Pin) (core.DebugWriter, error) {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       tx,
		RX:       rx,
	})
	if err != nil {
		return nil, err
	}
	return func(s string) {
		uart.Write([]byte(s + lineEnding))
	}, nil
}

// BlinkForever repeats a blink code on led and never returns.
func BlinkForever(led machine.Pin, count int) {
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		for i := 0; i < count; i++ {
			led.High()
			time.Sleep(150 * time.Millisecond)
			led.Low()
			time.Sleep(150 * time.Millisecond)
		}
		time.Sleep(time.Second)
	}
}
