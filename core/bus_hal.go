package core

import "time"

// WaitForever makes BusDriver.Read block until data arrives.
const WaitForever time.Duration = -1

// BusDriver is the abstract audio bus interface that core code uses.
// Target-specific implementations handle the actual peripheral.
type BusDriver interface {
	// Install configures the peripheral and allocates its transfer buffers.
	// The configuration is not changed afterwards.
	Install(cfg BusConfig) error

	// ConfigurePins routes the bus signals to board pins and starts the clock.
	ConfigurePins(pins PinMap) error

	// Read fills buf with little-endian sample words.
	// It blocks until len(buf) bytes are available or timeout expires
	// (WaitForever blocks indefinitely) and may return a short count.
	Read(buf []byte, timeout time.Duration) (int, error)
}

// Global singleton used by the firmware entry points.
var busDriver BusDriver

// SetBusDriver is called by target-specific code to register its driver.
func SetBusDriver(d BusDriver) {
	busDriver = d
}

// MustBus returns the configured driver or panics if missing.
func MustBus() BusDriver {
	if busDriver == nil {
		panic("bus driver not configured")
	}
	return busDriver
}
