package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"micmeter/core"
	"micmeter/host/config"
	"micmeter/host/mcu"
	"micmeter/host/plot"
	"micmeter/host/replay"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	mode       = flag.String("mode", "", "serial or replay (overrides config)")
	device     = flag.String("device", "", "Serial device path")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	file       = flag.String("file", "", "WAV file for replay mode")
	loop       = flag.Bool("loop", false, "Restart the recording when it ends")
	realtime   = flag.Bool("realtime", false, "Pace replay to the recording's sample rate")
	raw        = flag.Bool("raw", false, "Print every shifted sample (replay mode)")
	width      = flag.Int("width", 0, "Plot width in columns")
	precision  = flag.Int("precision", -1, "Decimals per reading, -1 for shortest")
	plotOn     = flag.Bool("plot", false, "Render readings as a bar plot")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	core.SetDebugEnabled(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.Mode {
	case config.ModeSerial:
		err = runSerial(ctx, cfg)
	case config.ModeReplay:
		err = runReplay(ctx, cfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies flags that were set on top of the file or the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["mode"] {
		cfg.Mode = *mode
	} else if set["file"] && !set["device"] {
		cfg.Mode = config.ModeReplay
	}
	if set["device"] {
		cfg.Serial.Device = *device
	}
	if set["baud"] {
		cfg.Serial.Baud = *baud
	}
	if set["file"] {
		cfg.Replay.File = *file
	}
	if set["loop"] {
		cfg.Replay.Loop = *loop
	}
	if set["realtime"] {
		cfg.Replay.Realtime = *realtime
	}
	if set["raw"] {
		cfg.Replay.Raw = *raw
	}
	if set["width"] {
		cfg.Plot.Width = *width
	}
	if set["precision"] {
		cfg.Plot.Precision = *precision
	}
	if set["plot"] {
		cfg.Plot.Enabled = *plotOn
	}
	return cfg, cfg.Validate()
}

func newPlotter(cfg *config.Config) *plot.Plotter {
	p := plot.NewPlotter(os.Stdout, cfg.Plot.Width)
	p.Precision = cfg.Plot.Precision
	return p
}

// runSerial reads a board and echoes or plots its stream.
func runSerial(ctx context.Context, cfg *config.Config) error {
	board := mcu.NewMCU()
	fmt.Fprintf(os.Stderr, "Connecting to %s...\n", cfg.Serial.Device)
	if err := board.ConnectWithConfig(cfg.PortConfig()); err != nil {
		return err
	}
	var closeOnce sync.Once
	closeBoard := func() { closeOnce.Do(func() { board.Close() }) }
	defer closeBoard()

	// Unblock the pending read on Ctrl-C
	go func() {
		<-ctx.Done()
		closeBoard()
	}()

	st, err := board.WaitReady(5 * time.Second)
	if err != nil && !errors.Is(err, core.ErrTimeout) {
		return err
	}
	for _, d := range st.Diagnostics {
		fmt.Fprintln(os.Stderr, d)
	}
	if st.Decided && !st.Present {
		return errors.New("board reports no microphone")
	}

	var handle func(plot.Line) error
	if cfg.Plot.Enabled {
		p := newPlotter(cfg)
		handle = func(l plot.Line) error {
			switch l.Kind {
			case plot.KindData:
				_, err := fmt.Fprintln(os.Stdout, p.Render(l.Level, l.Reference))
				return err
			case plot.KindDiagnostic:
				fmt.Fprintln(os.Stderr, "# "+l.Text)
			}
			return nil
		}
	} else {
		handle = func(l plot.Line) error {
			switch l.Kind {
			case plot.KindData:
				_, err := fmt.Fprintf(os.Stdout, "%g %g\n", l.Level, l.Reference)
				return err
			case plot.KindDiagnostic:
				fmt.Fprintln(os.Stderr, l.Text)
			}
			return nil
		}
	}

	err = board.Stream(ctx, handle)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// runReplay runs the acquisition pipeline against a WAV file.
func runReplay(ctx context.Context, cfg *config.Config) error {
	bus, err := replay.Open(cfg.Replay.File)
	if err != nil {
		return err
	}
	bus.Loop = cfg.Replay.Loop
	bus.Realtime = cfg.Replay.Realtime
	core.DebugPrintln("replay: " + strconv.Itoa(bus.Len()) + " samples at " + strconv.Itoa(int(bus.SampleRate())) + " Hz")

	var sink core.Sink = core.NewWriterSink(os.Stdout)
	if cfg.Plot.Enabled {
		sink = newPlotter(cfg)
	}

	m := core.NewMonitor(bus, sink)
	m.Precision = cfg.Plot.Precision
	// No hardware to settle and nothing to wait for when idle
	m.Sleep = func(time.Duration) {}
	if cfg.Replay.Raw {
		m.Reader().Raw = func(v int32) { fmt.Fprintln(os.Stderr, v) }
	}

	if err := m.Setup(); err != nil {
		return err
	}
	if m.State() == core.StateIdle {
		return nil
	}
	for !bus.Exhausted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(); err != nil {
			return err
		}
	}

	blocks, samples, short := m.Reader().Stats()
	core.DebugPrintln("replay done: " + strconv.Itoa(int(blocks)) + " blocks, " +
		strconv.Itoa(int(samples)) + " samples, " + strconv.Itoa(int(short)) + " short")
	return nil
}
