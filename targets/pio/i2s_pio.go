//go:build rp2040 || rp2350

package pio

// PIO I2S receiver using tinygo-org/pio package
// The RP2040 and RP2350 have no I2S peripheral, so one state machine acts
// as bus master: it drives BCLK and WS through side-set and shifts DATA in
// on every rising BCLK edge. The joined RX FIFO holds only 8 words (~390us
// at 10240 Hz stereo), so it is drained from the PIO RX-not-empty interrupt
// into the staging ring rather than from Read.

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
	"time"

	"micmeter/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Side-set bits: bit 0 = BCLK (base pin), bit 1 = WS (base pin + 1)
const (
	sideLow      = 0b00 // BCLK low, WS left
	sideClk      = 0b01 // BCLK high, WS left
	sideWS       = 0b10 // BCLK low, WS right
	sideClkWS    = 0b11 // BCLK high, WS right
	cyclesPerBit = 2
)

// buildI2SInProgram creates the receiver program using AssemblerV0.
// Each 32-bit slot is 31 looped bits plus one unrolled bit, during which WS
// already switches: Philips framing puts the WS edge one BCLK before the MSB.
// Autopush at 32 bits yields alternating left/right words in the RX FIFO.
func buildI2SInProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 2}
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestX, 30).Side(sideLow).Encode(), // 0: set x, 30      side 0b00
		// left:
		asm.In(rp2pio.InSrcPins, 1).Side(sideClk).Encode(),     // 1: in pins, 1      side 0b01
		asm.Jmp(1, rp2pio.JmpXNZeroDec).Side(sideLow).Encode(), // 2: jmp x--, left side 0b00
		asm.In(rp2pio.InSrcPins, 1).Side(sideClkWS).Encode(),   // 3: in pins, 1    side 0b11
		asm.Set(rp2pio.SetDestX, 30).Side(sideWS).Encode(),     // 4: set x, 30     side 0b10
		// right:
		asm.In(rp2pio.InSrcPins, 1).Side(sideClkWS).Encode(),  // 5: in pins, 1      side 0b11
		asm.Jmp(5, rp2pio.JmpXNZeroDec).Side(sideWS).Encode(), // 6: jmp x--, right side 0b10
		asm.In(rp2pio.InSrcPins, 1).Side(sideClk).Encode(),    // 7: in pins, 1     side 0b01
		// .wrap
	}
}

const i2sPIOOrigin = 0 // Load at offset 0 for correct jump addresses

// I2SReceiver implements core.BusDriver on a PIO state machine
type I2SReceiver struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	offset uint8
	pioNum uint8
	smNum  uint8

	cfg       core.BusConfig
	poller    core.Poller
	installed bool
	running   bool
	slot      uint8  // 0 = next FIFO word is the left slot
	stalls    uint32 // RX stalls seen: the FIFO filled before it was drained
}

// receivers lets the PIO interrupt handlers find their driver, per PIO block
var receivers [2]*I2SReceiver

func handlePIO0IRQ(interrupt.Interrupt) { serviceRX(0) }
func handlePIO1IRQ(interrupt.Interrupt) { serviceRX(1) }

func serviceRX(pioNum uint8) {
	r := receivers[pioNum]
	if r == nil || !r.running {
		return
	}
	r.drainFIFO(r.poller.Ring)
}

// NewI2SReceiver creates a new PIO-based I2S receiver
// pioNum: 0 for PIO0, 1 for PIO1
// smNum: 0-3 for state machine number
func NewI2SReceiver(pioNum, smNum uint8) *I2SReceiver {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	return &I2SReceiver{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}
}

// Install claims the state machine, loads the program and allocates the
// staging ring. The clock does not run until ConfigurePins.
func (r *I2SReceiver) Install(cfg core.BusConfig) error {
	if r.installed {
		return core.NewStatusError("install", core.StatusInvalidState, nil)
	}
	if err := cfg.Validate(); err != nil {
		return core.NewStatusError("install", core.StatusInvalidArg, err)
	}
	// The program shifts fixed 32-bit slots
	if cfg.BitsPerSample != 32 || !cfg.Master {
		return core.NewStatusError("install", core.StatusInvalidArg, nil)
	}

	if !r.sm.TryClaim() {
		return core.NewStatusError("install", core.StatusInvalidState, nil)
	}

	program := buildI2SInProgram()
	offset, err := r.pio.AddProgram(program, i2sPIOOrigin)
	if err != nil {
		return core.NewStatusError("install", core.StatusNoMem, err)
	}
	r.offset = offset

	r.cfg = cfg
	// Filled by serviceRX, Read only consumes
	r.poller = core.Poller{
		Ring: core.NewSampleRingFor(cfg),
		Wait: func() { time.Sleep(50 * time.Microsecond) },
	}
	r.installed = true
	return nil
}

// ConfigurePins routes BCLK/WS/DATA to the state machine and starts it.
// BCLK and WS are driven by side-set, so WS must be the pin after BCLK.
func (r *I2SReceiver) ConfigurePins(pins core.PinMap) error {
	if !r.installed {
		return core.NewStatusError("set_pin", core.StatusInvalidState, core.ErrNotInstalled)
	}
	if err := pins.Validate(); err != nil {
		return core.NewStatusError("set_pin", core.StatusInvalidArg, err)
	}
	if pins.WordSelect != pins.Clock+1 || pins.Clock > 29 || pins.DataIn > 29 {
		return core.NewStatusError("set_pin", core.StatusInvalidArg, nil)
	}

	clk := machine.Pin(pins.Clock)
	ws := machine.Pin(pins.WordSelect)
	data := machine.Pin(pins.DataIn)

	clk.Configure(machine.PinConfig{Mode: r.pio.PinMode()})
	ws.Configure(machine.PinConfig{Mode: r.pio.PinMode()})
	data.Configure(machine.PinConfig{Mode: r.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(2, false, false)
	cfg.SetSidesetPins(clk)
	cfg.SetInPins(data, 1)

	// Shift left (MSB first), autopush every 32 bits
	cfg.SetInShift(false, true, 32)

	// Only receiving: give the RX side all 8 FIFO entries
	cfg.SetFIFOJoin(rp2pio.FifoJoinRx)

	program := buildI2SInProgram()
	cfg.SetWrap(r.offset+uint8(len(program))-1, r.offset)

	whole, frac := clockDivider(machine.CPUFrequency(), r.cfg.BitClock()*cyclesPerBit)
	cfg.SetClkDivIntFrac(whole, frac)

	// Initialize state machine FIRST
	r.sm.Init(r.offset, cfg)

	// THEN set pin directions (must be after Init!)
	r.sm.SetPindirsConsecutive(clk, 2, true)   // BCLK + WS = output
	r.sm.SetPindirsConsecutive(data, 1, false) // DATA = input
	r.sm.SetPinsConsecutive(clk, 2, false)

	r.slot = 0
	r.stalls = 0
	r.poller.Ring.Reset()
	r.clearStall()
	r.running = true
	r.enableRXInterrupt()
	r.sm.SetEnabled(true)
	return nil
}

// enableRXInterrupt routes this state machine's RX-not-empty flag to the
// block's IRQ 0 line.
func (r *I2SReceiver) enableRXInterrupt() {
	receivers[r.pioNum&1] = r
	r.pio.HW().IRQ_INT[0].E.SetBits(1 << r.smNum)

	var intr interrupt.Interrupt
	if r.pioNum == 0 {
		intr = interrupt.New(rp.IRQ_PIO0_IRQ_0, handlePIO0IRQ)
	} else {
		intr = interrupt.New(rp.IRQ_PIO1_IRQ_0, handlePIO1IRQ)
	}
	intr.Enable()
}

// Read blocks until a block is staged or timeout expires
func (r *I2SReceiver) Read(buf []byte, timeout time.Duration) (int, error) {
	if !r.running {
		return 0, core.NewStatusError("read", core.StatusInvalidState, core.ErrNotInstalled)
	}
	return r.poller.Read(buf, timeout)
}

// Overruns returns how many times capture lost data: words dropped because
// the ring was full plus state machine stalls on a full RX FIFO
func (r *I2SReceiver) Overruns() uint32 {
	if r.poller.Ring == nil {
		return r.stalls
	}
	return r.poller.Ring.Overruns() + r.stalls
}

// Stalls returns how often the state machine stalled on a full RX FIFO
func (r *I2SReceiver) Stalls() uint32 {
	return r.stalls
}

// Stop halts the PIO state machine and discards staged words
func (r *I2SReceiver) Stop() {
	r.pio.HW().IRQ_INT[0].E.ClearBits(1 << r.smNum)
	receivers[r.pioNum&1] = nil
	r.sm.SetEnabled(false)
	r.sm.ClearFIFOs()
	r.sm.Restart()
	r.running = false
}

// drainFIFO moves every pending word into the ring, keeping the
// configured slot(s). Runs in interrupt context.
func (r *I2SReceiver) drainFIFO(ring *core.SampleRing) int {
	if r.hasStalled() {
		r.stalls++
		core.RecordRead(core.EvtOverrun, r.stalls, uint32(ring.Available()))
		r.clearStall()
	}
	moved := 0
	for !r.sm.IsRxFIFOEmpty() {
		word := int32(r.sm.RxGet())
		slot := r.slot
		r.slot ^= 1
		switch r.cfg.Channel {
		case core.ChannelOnlyLeft:
			if slot != 0 {
				continue
			}
		case core.ChannelOnlyRight:
			if slot != 1 {
				continue
			}
		}
		if ring.Push(word) {
			moved++
		}
	}
	return moved
}

// rxStallMask selects this state machine's sticky RXSTALL bit in FDEBUG
func (r *I2SReceiver) rxStallMask() uint32 {
	return 1 << (rp.PIO0_FDEBUG_RXSTALL_Pos + uint32(r.smNum))
}

func (r *I2SReceiver) hasStalled() bool {
	return r.pio.HW().FDEBUG.HasBits(r.rxStallMask())
}

// clearStall resets the sticky flag (write 1 to clear)
func (r *I2SReceiver) clearStall() {
	r.pio.HW().FDEBUG.Set(r.rxStallMask())
}

// clockDivider returns the 16.8 fixed-point divider for a state machine
// clock of target Hz
func clockDivider(sysHz, target uint32) (uint16, uint8) {
	if target == 0 {
		return 1, 0
	}
	div := (uint64(sysHz) << 8) / uint64(target)
	whole := div >> 8
	if whole == 0 {
		return 1, 0
	}
	if whole > 0xffff {
		return 0xffff, 0
	}
	return uint16(whole), uint8(div & 0xff)
}

// GetName returns the backend name
func (r *I2SReceiver) GetName() string {
	return "PIO" + string(rune('0'+r.pioNum)) + "/SM" + string(rune('0'+r.smNum))
}
