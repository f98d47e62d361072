package core

import (
	"errors"
	"testing"
)

func TestDefaultBusConfig(t *testing.T) {
	cfg := DefaultBusConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.WordBytes() != 4 {
		t.Errorf("Expected 4-byte words, got %d", cfg.WordBytes())
	}
	if cfg.BufferBytes() != 8*64*4 {
		t.Errorf("Expected %d staging bytes, got %d", 8*64*4, cfg.BufferBytes())
	}
	if cfg.BitClock() != 10240*64 {
		t.Errorf("Expected BCLK %d, got %d", 10240*64, cfg.BitClock())
	}
}

func TestBusConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *BusConfig)
	}{
		{"zero rate", func(c *BusConfig) { c.SampleRate = 0 }},
		{"odd word size", func(c *BusConfig) { c.BitsPerSample = 12 }},
		{"unknown channel", func(c *BusConfig) { c.Channel = 9 }},
		{"single buffer", func(c *BusConfig) { c.BufferCount = 1 }},
		{"empty buffer", func(c *BusConfig) { c.BufferLen = 0 }},
		{"buffers smaller than a block", func(c *BusConfig) { c.BufferCount, c.BufferLen = 2, 16 }},
		{"transmit only", func(c *BusConfig) { c.Receive = false }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultBusConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
			if StatusCode(err) != StatusInvalidArg {
				t.Errorf("Expected status %d, got %d", StatusInvalidArg, StatusCode(err))
			}
		})
	}
}

func TestPinMapValidate(t *testing.T) {
	if err := DefaultPinMap().Validate(); err != nil {
		t.Fatalf("Default pin map invalid: %v", err)
	}

	unwired := DefaultPinMap()
	unwired.DataIn = PinUnused
	if err := unwired.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected unwired data pin to fail, got %v", err)
	}

	shared := DefaultPinMap()
	shared.WordSelect = shared.Clock
	if err := shared.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected shared pin to fail, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	inner := errors.New("dma alloc")
	err := NewStatusError("install", StatusNoMem, inner)

	if err.Error() != "install: status 257: dma alloc" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Expected StatusError to unwrap")
	}
	if StatusCode(err) != StatusNoMem {
		t.Errorf("Expected %d, got %d", StatusNoMem, StatusCode(err))
	}
	if StatusCode(nil) != StatusOK {
		t.Error("Expected nil error to map to StatusOK")
	}
	if StatusCode(errors.New("other")) != StatusFail {
		t.Error("Expected plain error to map to StatusFail")
	}
}

func TestItoa(t *testing.T) {
	testCases := map[int]string{0: "0", 7: "7", -1: "-1", 259: "259", -2147483648: "-2147483648"}
	for n, want := range testCases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestPinMapValidateForPDM(t *testing.T) {
	cfg := DefaultBusConfig()
	cfg.Format = CommFormatPDM
	pins := PinMap{Clock: 10, WordSelect: PinUnused, DataOut: PinUnused, DataIn: 8}

	if err := pins.ValidateFor(cfg); err != nil {
		t.Errorf("PDM map without word select should be valid, got %v", err)
	}
	if err := pins.ValidateFor(DefaultBusConfig()); err == nil {
		t.Error("I2S map without word select should be invalid")
	}
}
