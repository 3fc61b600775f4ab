package scanner

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Spinner renders scan progress as a single status line with a bouncing
// indicator: "[   =    ] Scanning .../models/User.php".
type Spinner struct {
	w        io.Writer
	Size     int
	Interval time.Duration
	// Plain prints one line per message instead of redrawing in place.
	Plain bool

	step   int
	addend int
	width  int
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w, Size: 8, Interval: 100 * time.Millisecond, addend: 1}
}

// Frame returns the indicator for the current step and advances it.
func (sp *Spinner) Frame() string {
	size := max(sp.Size, 1)
	before := sp.step % size
	after := size - 1 - before
	frame := "[" + strings.Repeat(" ", before) + "=" + strings.Repeat(" ", after) + "]"

	if after == 0 {
		sp.addend = -1
	}
	if before == 0 {
		sp.addend = 1
	}
	sp.step += sp.addend
	return frame
}

// Run draws updates from ch until a final update arrives or ch is closed,
// and returns the last update seen.
func (sp *Spinner) Run(ch <-chan Progress) Progress {
	ticker := time.NewTicker(sp.Interval)
	defer ticker.Stop()

	var last Progress
	printed := ""
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				sp.end(last)
				return last
			}
			last = p
			if p.Done() {
				sp.end(p)
				return p
			}
			if sp.Plain && p.Message != "" && p.Message != printed {
				fmt.Fprintln(sp.w, p.Message)
				printed = p.Message
			}
		case <-ticker.C:
			if !sp.Plain && last.Message != "" {
				sp.draw(sp.Frame() + " " + last.Message)
			}
		}
	}
}

func (sp *Spinner) draw(line string) {
	pad := ""
	if n := sp.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(sp.w, "\r"+line+pad)
	sp.width = len(line)
}

func (sp *Spinner) end(p Progress) {
	if sp.Plain {
		if p.Message != "" {
			fmt.Fprintln(sp.w, p.Message)
		}
		return
	}
	sp.draw(p.Message)
	fmt.Fprintln(sp.w)
}
