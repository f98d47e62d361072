package core

import (
	"strings"
	"testing"
)

func TestEventRing(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	RecordRead(EvtInstall, 0, 0)
	RecordRead(EvtShortRead, 40, 256)

	events := Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].EventType != EvtInstall || events[1].EventType != EvtShortRead {
		t.Errorf("Events out of order: %+v", events)
	}
	if events[1].Seq != 2 || events[1].Value1 != 40 || events[1].Value2 != 256 {
		t.Errorf("Unexpected event %+v", events[1])
	}
}

func TestEventRingKeepsNewest(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	for i := 0; i < EventRingSize+5; i++ {
		RecordRead(EvtReadError, uint32(i), 0)
	}
	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Value1 != 5 || events[len(events)-1].Value1 != EventRingSize+4 {
		t.Errorf("Expected oldest 5 and newest %d, got %d and %d",
			EventRingSize+4, events[0].Value1, events[len(events)-1].Value1)
	}
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	defer ClearEvents()
	defer SetDebugWriter(func(string) {})

	var out []string
	SetDebugWriter(func(s string) { out = append(out, s) })
	RecordRead(EvtHalt, 259, 0)
	DumpEvents()

	if len(out) != 3 {
		t.Fatalf("Expected header, 1 event and footer, got %v", out)
	}
	if !strings.Contains(out[1], "HALT!") || !strings.Contains(out[1], "v1=259") {
		t.Errorf("Unexpected dump line %q", out[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)

	var out []string
	SetDebugWriter(func(s string) { out = append(out, s) })

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	if len(out) != 1 || out[0] != "shown" {
		t.Errorf("Expected only the enabled message, got %v", out)
	}
}

func TestEventName(t *testing.T) {
	testCases := map[uint8]string{
		EvtInstall:   "INSTALL",
		EvtShortRead: "SHORT_READ",
		EvtHalt:      "HALT!",
		EvtOverrun:   "OVERRUN",
		99:           "UNKNOWN",
	}
	for evt, want := range testCases {
		if got := EventName(evt); got != want {
			t.Errorf("EventName(%d) = %q, want %q", evt, got, want)
		}
	}
}
