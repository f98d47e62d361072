//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"micmeter/core"
	"micmeter/targets/board"
	"micmeter/targets/pio"
)

// Pico wiring. BCLK and WS must be consecutive GPIOs for PIO side-set.
const (
	picoClock      core.Pin = 14 // INMP441 SCK
	picoWordSelect core.Pin = 15 // INMP441 WS
	picoDataIn     core.Pin = 16 // INMP441 SD
)

func main() {
	// Initialize USB CDC immediately
	sink := board.InitUSB()

	// Debug output on UART1 GPIO4/5, separate from the plotter stream
	if w, err := board.DebugUART(machine.UART1, machine.GPIO4, machine.GPIO5); err == nil {
		core.SetDebugWriter(w)
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
		core.DebugPrintln("=== micmeter rp2040 ===")
	}

	// Register the PIO receiver as the bus driver
	core.SetBusDriver(pio.NewI2SReceiver(0, 0))

	// On a fatal setup error, dump the event ring once and park
	core.SetHaltHandler(func() {
		core.DumpEvents()
		for {
			time.Sleep(time.Second)
		}
	})

	monitor := core.NewMonitor(core.MustBus(), sink)
	monitor.Pins = core.PinMap{
		Clock:      picoClock,
		WordSelect: picoWordSelect,
		DataOut:    core.PinUnused,
		DataIn:     picoDataIn,
	}

	// Let the host open the port before the startup report
	time.Sleep(500 * time.Millisecond)

	if err := monitor.Run(context.Background()); err != nil {
		core.DebugPrintln("monitor stopped: " + err.Error())
		core.Halt()
	}
}
