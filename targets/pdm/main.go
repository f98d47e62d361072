//go:build circuitplay_express

package main

import (
	"context"
	"machine"
	"time"

	"micmeter/core"
	"micmeter/targets/board"
)

func main() {
	// Startup report and data lines go to USB CDC, debug to the header UART
	sink := board.InitUSB()
	if w, err := board.DebugUART(machine.DefaultUART, machine.UART_TX_PIN, machine.UART_RX_PIN); err == nil {
		core.SetDebugWriter(w)
		core.SetDebugEnabled(true)
		core.InitAsyncDebug()
	}

	core.SetBusDriver(NewPDMDriver())

	// Blink the red LED with the failed setup step
	core.SetHaltHandler(func() {
		core.DumpEvents()
		board.BlinkForever(machine.LED, board.HaltBlinks())
	})

	monitor := core.NewMonitor(core.MustBus(), sink)
	monitor.Config.Format = core.CommFormatPDM
	monitor.Pins = core.PinMap{
		Clock:      core.Pin(machine.I2S_SCK_PIN),
		WordSelect: core.PinUnused,
		DataOut:    core.PinUnused,
		DataIn:     core.Pin(machine.I2S_SD_PIN),
	}

	time.Sleep(500 * time.Millisecond)

	if err := monitor.Run(context.Background()); err != nil {
		core.DebugPrintln("monitor stopped: " + err.Error())
		core.Halt()
	}
}
