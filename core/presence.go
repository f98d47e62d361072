package core

import "time"

// PresenceStrategy decides from live reads whether a microphone is wired.
type PresenceStrategy interface {
	Detect(r *SampleReader) bool
}

// FirstBlockNonZero treats any non-zero amplitude on a single block as a
// present sensor. Residual noise counts as present; a sensor reporting exact
// silence with no DC offset is classified absent.
type FirstBlockNonZero struct{}

func (FirstBlockNonZero) Detect(r *SampleReader) bool {
	return r.ReadBlock() != 0.0
}

// AveragedBlocks averages |amplitude| over several blocks and compares it
// against Threshold. It is only used when selected explicitly.
type AveragedBlocks struct {
	Blocks    int
	Threshold Amplitude
}

func (s AveragedBlocks) Detect(r *SampleReader) bool {
	n := s.Blocks
	if n <= 0 {
		n = 1
	}
	var total float64
	for i := 0; i < n; i++ {
		total += float64(r.ReadBlock().Abs())
	}
	return Amplitude(total/float64(n)) > s.Threshold
}

// PresenceDetector runs the strategy once after the settle delay and
// latches the result for the lifetime of the process.
type PresenceDetector struct {
	Strategy PresenceStrategy
	Settle   time.Duration
	Sleep    func(time.Duration)

	decided bool
	present bool
}

// NewPresenceDetector creates a detector using the exact-zero heuristic.
func NewPresenceDetector() *PresenceDetector {
	return &PresenceDetector{
		Strategy: FirstBlockNonZero{},
		Settle:   SettleDelay,
	}
}

// Detect returns the presence flag, probing the bus on the first call only.
func (d *PresenceDetector) Detect(r *SampleReader) bool {
	if d.decided {
		return d.present
	}
	if d.Settle > 0 {
		sleep := d.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(d.Settle)
	}
	strategy := d.Strategy
	if strategy == nil {
		strategy = FirstBlockNonZero{}
	}
	d.present = strategy.Detect(r)
	d.decided = true

	var v uint32
	if d.present {
		v = 1
	}
	RecordRead(EvtPresence, v, 0)
	return d.present
}

// Decided reports whether the probe has already run.
func (d *PresenceDetector) Decided() bool {
	return d.decided
}
