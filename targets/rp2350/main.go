//go:build rp2350

package main

import (
	"context"
	"machine"
	"strconv"
	"time"

	"micmeter/core"
	"micmeter/targets/board"
	"micmeter/targets/pio"
)

// RP2350 wiring, same GPIOs as the Pico build. The state machine runs on
// PIO1 so PIO0 stays free for board add-ons.
const (
	micClock      core.Pin = 14
	micWordSelect core.Pin = 15
	micDataIn     core.Pin = 16
)

func main() {
	sink := board.InitUSB()

	// Disable the watchdog on boot to clear any state left by a previous image
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	// Debug UART1 on GPIO36 (TX) / GPIO37 (RX)
	if w, err := board.DebugUART(machine.UART1, machine.GPIO36, machine.GPIO37); err == nil {
		core.SetDebugWriter(w)
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
		core.DebugPrintln("=== micmeter rp2350 ===")
		core.DebugPrintln("Baud: 115200, TX=GPIO36, RX=GPIO37")
	}

	receiver := pio.NewI2SReceiver(1, 0)
	core.SetBusDriver(receiver)

	// Dump the event ring, then blink which setup step failed
	core.SetHaltHandler(func() {
		core.DumpEvents()
		board.BlinkForever(machine.LED, board.HaltBlinks())
	})

	monitor := core.NewMonitor(core.MustBus(), sink)
	monitor.Pins = core.PinMap{
		Clock:      micClock,
		WordSelect: micWordSelect,
		DataOut:    core.PinUnused,
		DataIn:     micDataIn,
	}

	time.Sleep(500 * time.Millisecond)

	if err := monitor.Run(context.Background()); err != nil {
		core.DebugPrintln("monitor stopped: " + err.Error() +
			" (overruns " + strconv.Itoa(int(receiver.Overruns())) + ")")
		core.Halt()
	}
}

