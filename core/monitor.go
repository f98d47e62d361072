package core

import (
	"context"
	"runtime"
	"time"
)

// MonitorState is the acquisition loop state.
type MonitorState uint8

const (
	StateSetup  MonitorState = iota // Setup not run yet
	StateActive                     // Sensor present: read and report every block
	StateIdle                       // No sensor: sleep, never read
	StateHalted                     // Fatal setup error, terminal
)

func (s MonitorState) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Monitor owns the whole capture pipeline: bus bring-up, the presence probe
// and the steady-state loop. All mutable state lives here.
type Monitor struct {
	bus      BusDriver
	sink     Sink
	reader   *SampleReader
	detector *PresenceDetector

	Config       BusConfig
	Pins         PinMap
	Reference    int           // Fixed value printed after each reading
	Precision    int           // Decimal places for readings, -1 for shortest
	IdleInterval time.Duration // Sleep per iteration when idle

	Sleep func(time.Duration)
	Yield func()

	state      MonitorState
	err        error
	iterations uint32
	emitted    uint32
}

// NewMonitor creates a monitor with the build-time defaults.
func NewMonitor(bus BusDriver, sink Sink) *Monitor {
	return &Monitor{
		bus:          bus,
		sink:         sink,
		reader:       NewSampleReader(bus, BlockSize),
		detector:     NewPresenceDetector(),
		Config:       DefaultBusConfig(),
		Pins:         DefaultPinMap(),
		Reference:    ReferenceLevel,
		Precision:    -1,
		IdleInterval: IdleInterval,
		Sleep:        time.Sleep,
		Yield:        runtime.Gosched,
	}
}

// Reader returns the sample reader used by the loop.
func (m *Monitor) Reader() *SampleReader {
	return m.reader
}

// Detector returns the presence detector used during Setup.
func (m *Monitor) Detector() *PresenceDetector {
	return m.detector
}

// State returns the current loop state.
func (m *Monitor) State() MonitorState {
	return m.state
}

// Present returns the latched presence flag.
func (m *Monitor) Present() bool {
	return m.state == StateActive
}

// Err returns the fatal setup error, if any.
func (m *Monitor) Err() error {
	return m.err
}

// Stats returns loop iterations and data lines emitted.
func (m *Monitor) Stats() (iterations, emitted uint32) {
	return m.iterations, m.emitted
}

// Setup installs the bus, routes the pins and probes for the sensor.
// A driver failure is reported on the sink and leaves the monitor halted;
// the returned error carries the driver status code.
func (m *Monitor) Setup() error {
	if m.state != StateSetup {
		return m.err
	}
	m.say(MsgConfiguring)

	if err := m.Config.Validate(); err != nil {
		return m.fail(MsgInstallFailed, NewStatusError("install", StatusInvalidArg, err))
	}
	err := m.bus.Install(m.Config)
	RecordRead(EvtInstall, uint32(StatusCode(err)), 0)
	if err != nil {
		return m.fail(MsgInstallFailed, asStatus("install", err))
	}

	if err := m.Pins.ValidateFor(m.Config); err != nil {
		return m.fail(MsgPinFailed, NewStatusError("set_pin", StatusInvalidArg, err))
	}
	err = m.bus.ConfigurePins(m.Pins)
	RecordRead(EvtPins, uint32(StatusCode(err)), 0)
	if err != nil {
		return m.fail(MsgPinFailed, asStatus("set_pin", err))
	}
	m.say(MsgInstalled)

	if m.detector.Sleep == nil {
		m.detector.Sleep = m.Sleep
	}
	if m.detector.Detect(m.reader) {
		m.say(MsgPresent)
		m.state = StateActive
	} else {
		m.say(MsgAbsent)
		m.state = StateIdle
	}
	return nil
}

// Step runs one loop iteration.
func (m *Monitor) Step() error {
	switch m.state {
	case StateSetup:
		return m.Setup()
	case StateHalted:
		return ErrHalted
	case StateIdle:
		m.iterations++
		m.sleep(m.IdleInterval)
		return nil
	}

	m.iterations++
	level := m.reader.ReadBlock().Abs()
	// Sink errors are not surfaced in steady state; the line is dropped.
	if err := m.sink.Println(FormatDataLine(level, m.Reference, m.Precision)); err == nil {
		m.emitted++
	}
	if m.Yield != nil {
		m.Yield()
	}
	return nil
}

// Run performs Setup if needed, then loops until ctx is done.
// It returns ErrHalted if setup failed.
func (m *Monitor) Run(ctx context.Context) error {
	if m.state == StateSetup {
		if err := m.Setup(); err != nil {
			return ErrHalted
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
}

func (m *Monitor) fail(prefix string, err *StatusError) error {
	m.say(prefix + itoa(int(err.Code)))
	m.state = StateHalted
	m.err = err
	RecordRead(EvtHalt, uint32(err.Code), 0)
	DebugPrintln("monitor halted: " + err.Error())
	return err
}

func (m *Monitor) say(line string) {
	_ = m.sink.Println(line)
}

func (m *Monitor) sleep(d time.Duration) {
	if m.Sleep != nil {
		m.Sleep(d)
	}
}

func asStatus(op string, err error) *StatusError {
	if se, ok := err.(*StatusError); ok {
		return se
	}
	return NewStatusError(op, StatusCode(err), err)
}
