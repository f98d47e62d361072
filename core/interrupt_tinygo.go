//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// disableInterrupts enters a critical section and returns the previous state
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}
