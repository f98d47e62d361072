package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// AcquisitionEvent captures a pipeline event for post-mortem analysis
type AcquisitionEvent struct {
	EventType uint8  // Event type code
	Seq       uint32 // Monotonic event number
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtInstall   = 1 // Bus driver installed (v1=status)
	EvtPins      = 2 // Pins configured (v1=status)
	EvtPresence  = 3 // Presence decided (v1=1 present)
	EvtShortRead = 4 // Read returned fewer bytes (v1=got, v2=wanted)
	EvtReadError = 5 // Read failed (v1=got, v2=status)
	EvtHalt      = 6 // Monitor halted (v1=status)
	EvtOverrun   = 7 // Capture stalled on a full FIFO (v1=count, v2=staged words)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]AcquisitionEvent
	eventRingHead uint8
	eventSeq      uint32

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync inside the acquisition loop)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordRead captures an event in the ring buffer. Safe to call from
// interrupt handlers.
func RecordRead(eventType uint8, value1, value2 uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	idx := eventRingHead
	eventSeq++
	eventRing[idx] = AcquisitionEvent{
		EventType: eventType,
		Seq:       eventSeq,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtInstall:
		return "INSTALL"
	case EvtPins:
		return "SET_PIN"
	case EvtPresence:
		return "PRESENCE"
	case EvtShortRead:
		return "SHORT_READ"
	case EvtReadError:
		return "READ_ERR"
	case EvtHalt:
		return "HALT!"
	case EvtOverrun:
		return "OVERRUN"
	default:
		return "UNKNOWN"
	}
}

// Events returns the recorded events from oldest to newest
func Events() []AcquisitionEvent {
	out := make([]AcquisitionEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEvents outputs the event ring (call on halt or from a debug console)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.EventType) +
			" seq=" + utoa(evt.Seq) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = AcquisitionEvent{}
	}
	eventRingHead = 0
	eventSeq = 0
}
