package plot

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Plotter renders data lines as horizontal bars. The scale follows the
// largest value seen so far, so the reference line stays visible and loud
// readings above it are not clipped.
type Plotter struct {
	Width     int  // Bar area width in columns
	Precision int  // Decimals printed for the level, -1 for shortest
	Diag      bool // Echo diagnostics

	out   io.Writer
	scale float64
	count uint64
}

// NewPlotter creates a plotter writing to out.
func NewPlotter(out io.Writer, width int) *Plotter {
	if width < 10 {
		width = 10
	}
	return &Plotter{Width: width, Precision: 4, Diag: true, out: out}
}

// Render draws one bar: '#' up to the level and '|' at the reference.
func (p *Plotter) Render(level, reference float64) string {
	level = math.Abs(level)
	if m := math.Max(level, reference); m > p.scale {
		p.scale = m
	}
	bar := []byte(strings.Repeat(" ", p.Width))
	if p.scale > 0 {
		filled := int(math.Round(level / p.scale * float64(p.Width)))
		for i := 0; i < filled && i < p.Width; i++ {
			bar[i] = '#'
		}
		if reference > 0 {
			pos := int(math.Round(reference/p.scale*float64(p.Width))) - 1
			if pos >= 0 && pos < p.Width {
				bar[pos] = '|'
			}
		}
	}
	return fmt.Sprintf("%s %s", bar, formatLevel(level, p.Precision))
}

// Feed parses one received line and writes its rendering.
func (p *Plotter) Feed(raw string) error {
	line, err := ParseLine(raw)
	switch line.Kind {
	case KindData:
		p.count++
		_, werr := fmt.Fprintln(p.out, p.Render(line.Level, line.Reference))
		return werr
	case KindDiagnostic:
		if p.Diag {
			if _, werr := fmt.Fprintln(p.out, "# "+line.Text); werr != nil {
				return werr
			}
		}
	}
	return err
}

// Println implements core.Sink so the plotter can sit directly behind a
// monitor running on the host.
func (p *Plotter) Println(s string) error {
	return p.Feed(s)
}

// Count returns the number of data lines plotted.
func (p *Plotter) Count() uint64 {
	return p.count
}

func formatLevel(v float64, precision int) string {
	if precision < 0 {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.*f", precision, v)
}
