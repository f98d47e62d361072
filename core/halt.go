package core

import (
	"sync/atomic"
	"time"
)

var (
	halted      uint32 // atomic bool
	haltHandler func()
)

// SetHaltHandler sets what Halt does once the firmware has given up.
// Targets can use it to blink an LED, log the event ring or reset the board.
func SetHaltHandler(handler func()) {
	haltHandler = handler
}

// Halt marks the firmware as halted and hands control to the halt handler.
// Without a handler it parks the caller forever, sleeping between checks
// so cooperative schedulers keep running.
func Halt() {
	atomic.StoreUint32(&halted, 1)
	if haltHandler != nil {
		haltHandler()
		return
	}
	for {
		time.Sleep(time.Second)
	}
}

// IsHalted returns true once Halt has been called.
func IsHalted() bool {
	return atomic.LoadUint32(&halted) != 0
}

// resetHalt clears the halted flag (tests only).
func resetHalt() {
	atomic.StoreUint32(&halted, 0)
	haltHandler = nil
}
