package board

import "micmeter/core"

// HaltBlinks maps the event ring to an LED code: 1 blink when the driver
// install failed, 2 when pin routing failed, 3 for anything else.
func HaltBlinks() int {
	events := core.Events()
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		if evt.Value1 == 0 {
			continue
		}
		switch evt.EventType {
		case core.EvtInstall:
			return 1
		case core.EvtPins:
			return 2
		}
	}
	return 3
}
