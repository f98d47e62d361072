package core

import "time"

// Bus parameters for the INMP441 capture pipeline.
// These are build-time constants; changing them requires recompiling the firmware.
const (
	SampleRate     = 10240 // Hz
	BitsPerSample  = 32    // Word size on the bus (INMP441 sends 24 bits left-justified)
	SampleWordSize = BitsPerSample / 8
	BlockSize      = 64 // Samples per read
	BufferCount    = 8  // Number of staged transfer buffers
	BufferLen      = BlockSize

	// SampleShift drops the low-order bits that carry no data for a 24-bit sensor.
	SampleShift = 8
	// NormDivisor scales the block mean into a plotter-friendly range.
	NormDivisor = 1024.0

	// ReferenceLevel is printed next to every reading as a fixed plot line.
	ReferenceLevel = 1600

	SettleDelay  = 1 * time.Second // Wait after install before the presence check
	IdleInterval = 1 * time.Second // Loop period when no sensor was detected
)

// Default pin assignment (ESP32 style numbering, overridden per target).
const (
	PinClock      Pin = 14 // BCLK / SCK
	PinWordSelect Pin = 15 // LRCL / WS
	PinDataIn     Pin = 32 // DOUT of the microphone
	PinUnused     Pin = -1
)

// Pin is a board pin number. PinUnused marks a signal that is not wired.
type Pin int16

// ChannelFormat selects which slot(s) of each frame are captured.
type ChannelFormat uint8

const (
	ChannelOnlyLeft ChannelFormat = iota // L/R select tied to GND
	ChannelOnlyRight
	ChannelStereo
)

// CommFormat describes the frame alignment on the bus. Values are bit flags.
type CommFormat uint8

const (
	CommFormatI2S CommFormat = 1 << iota // Philips: data delayed one BCLK after WS edge
	CommFormatMSB                        // MSB first
	CommFormatPDM                        // Single data line clocked by SCK, no WS
)

// BusConfig is the immutable capture configuration handed to a BusDriver.
type BusConfig struct {
	SampleRate    uint32
	BitsPerSample uint8
	Channel       ChannelFormat
	Format        CommFormat
	BufferCount   uint8  // Number of transfer buffers
	BufferLen     uint16 // Samples per transfer buffer
	Master        bool   // We drive BCLK and WS
	Receive       bool
}

// DefaultBusConfig returns the receive-only master configuration used by the firmware.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		SampleRate:    SampleRate,
		BitsPerSample: BitsPerSample,
		Channel:       ChannelOnlyLeft,
		Format:        CommFormatI2S | CommFormatMSB,
		BufferCount:   BufferCount,
		BufferLen:     BufferLen,
		Master:        true,
		Receive:       true,
	}
}

// Validate checks the configuration for values no driver can honour.
func (c BusConfig) Validate() error {
	if c.SampleRate == 0 {
		return invalidConfig("sample rate is zero")
	}
	switch c.BitsPerSample {
	case 16, 24, 32:
	default:
		return invalidConfig("unsupported bits per sample " + itoa(int(c.BitsPerSample)))
	}
	if c.Channel > ChannelStereo {
		return invalidConfig("unknown channel format")
	}
	if c.BufferCount < 2 {
		return invalidConfig("need at least 2 buffers")
	}
	if c.BufferLen == 0 {
		return invalidConfig("buffer length is zero")
	}
	if int(c.BufferCount)*int(c.BufferLen) < BlockSize {
		return invalidConfig("staging buffers smaller than one block")
	}
	if !c.Receive {
		return invalidConfig("transmit-only mode is not supported")
	}
	return nil
}

// WordBytes returns the size of one sample word in bytes.
func (c BusConfig) WordBytes() int {
	return int(c.BitsPerSample) / 8
}

// BufferBytes returns the total staging capacity in bytes.
func (c BusConfig) BufferBytes() int {
	return int(c.BufferCount) * int(c.BufferLen) * c.WordBytes()
}

// BitClock returns the BCLK frequency: two slots per frame, one word per slot.
func (c BusConfig) BitClock() uint32 {
	return c.SampleRate * uint32(c.BitsPerSample) * 2
}

// PinMap assigns the bus signals to board pins.
type PinMap struct {
	Clock      Pin
	WordSelect Pin
	DataOut    Pin // Not used for capture
	DataIn     Pin
}

// DefaultPinMap returns the default wiring for the microphone.
func DefaultPinMap() PinMap {
	return PinMap{
		Clock:      PinClock,
		WordSelect: PinWordSelect,
		DataOut:    PinUnused,
		DataIn:     PinDataIn,
	}
}

// ValidateFor checks the pin map against cfg. PDM capture has no word select.
func (p PinMap) ValidateFor(cfg BusConfig) error {
	if cfg.Format&CommFormatPDM == 0 {
		return p.Validate()
	}
	if p.Clock < 0 || p.DataIn < 0 {
		return invalidConfig("clock and data in must be assigned")
	}
	if p.Clock == p.DataIn {
		return invalidConfig("pin assigned twice")
	}
	return nil
}

// Validate checks that the capture signals are wired and distinct.
func (p PinMap) Validate() error {
	if p.Clock < 0 || p.WordSelect < 0 || p.DataIn < 0 {
		return invalidConfig("clock, word select and data in must be assigned")
	}
	if p.Clock == p.WordSelect || p.Clock == p.DataIn || p.WordSelect == p.DataIn {
		return invalidConfig("pin assigned twice")
	}
	return nil
}
