//go:build circuitplay_express

package main

import (
	"machine"
	"time"

	"micmeter/core"

	"tinygo.org/x/drivers/microphone"
)

const (
	// pcmBits is the width of the filtered PCM from ReadWithFilter.
	pcmBits = 10

	// pdmBitsPerSample is the PDM oversampling: the sinc filter reduces 64
	// stereo-clocked bits (four 16-bit I2S words) to one PCM sample.
	pdmBitsPerSample = 64
)

// PDMDriver implements core.BusDriver on top of the on-board PDM
// microphone. ReadWithFilter decimates the bitstream to offset-centred
// 10-bit PCM; words are staged in the same ring an I2S receiver uses so
// the reader sees identical blocks.
type PDMDriver struct {
	mic     microphone.Device
	poller  core.Poller
	scratch []int32
	cfg     core.BusConfig

	installed bool
	running   bool
}

// NewPDMDriver creates the driver but does not Install() it yet.
func NewPDMDriver() *PDMDriver {
	return &PDMDriver{}
}

func (d *PDMDriver) Install(cfg core.BusConfig) error {
	if d.installed {
		return core.NewStatusError("install", core.StatusInvalidState, nil)
	}
	if err := cfg.Validate(); err != nil {
		return core.NewStatusError("install", core.StatusInvalidArg, err)
	}
	if cfg.Channel == core.ChannelStereo || cfg.Format&core.CommFormatPDM == 0 {
		// Single PDM microphone on the board
		return core.NewStatusError("install", core.StatusInvalidArg, nil)
	}

	// The microphone driver expects the bus to be running already
	machine.I2S0.Configure(machine.I2SConfig{
		Mode:           machine.I2SModePDM,
		AudioFrequency: cfg.SampleRate * pdmBitsPerSample / 16,
		ClockSource:    machine.I2SClockSourceExternal,
		Stereo:         true,
	})

	d.cfg = cfg
	d.mic = microphone.New(machine.I2S0)
	d.scratch = make([]int32, cfg.BufferLen)
	d.poller = core.Poller{
		Ring: core.NewSampleRingFor(cfg),
		Fill: d.fill,
		Wait: func() { time.Sleep(100 * time.Microsecond) },
	}
	d.installed = true
	return nil
}

// ConfigurePins starts the PDM clock. The microphone pins are fixed by
// the board, so only the map's consistency is checked.
func (d *PDMDriver) ConfigurePins(pins core.PinMap) error {
	if !d.installed {
		return core.NewStatusError("set_pin", core.StatusInvalidState, core.ErrNotInstalled)
	}
	if err := pins.ValidateFor(d.cfg); err != nil {
		return core.NewStatusError("set_pin", core.StatusInvalidArg, err)
	}
	d.mic.Configure()
	d.running = true
	return nil
}

func (d *PDMDriver) Read(buf []byte, timeout time.Duration) (int, error) {
	if !d.running {
		return 0, core.NewStatusError("read", core.StatusInvalidState, core.ErrNotInstalled)
	}
	return d.poller.Read(buf, timeout)
}

// fill decimates up to one buffer of PCM from the microphone into the ring.
// ReadWithFilter polls the bus, so this blocks for n sample periods.
func (d *PDMDriver) fill(ring *core.SampleRing) int {
	n := ring.Free()
	if n > len(d.scratch) {
		n = len(d.scratch)
	}
	if n == 0 {
		return 0
	}
	got, err := d.mic.ReadWithFilter(d.scratch[:n])
	if err != nil {
		core.DebugAsync("pdm read: " + err.Error())
		return 0
	}
	core.LeftJustify(d.scratch[:got], pcmBits)
	return ring.Write(d.scratch[:got])
}
