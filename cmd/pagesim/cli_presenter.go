package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sibexico/pagesim/replacement"
	"github.com/sibexico/pagesim/timeline"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
)

// textPresenter prints one table row per rendered step
type textPresenter struct {
	w     io.Writer
	color bool

	finished chan struct{}
	once     sync.Once
}

func newTextPresenter(w io.Writer, color bool) *textPresenter {
	return &textPresenter{
		w:        w,
		color:    color,
		finished: make(chan struct{}),
	}
}

func (p *textPresenter) paint(code, text string) string {
	if !p.color {
		return text
	}
	return code + text + ansiReset
}

// formatFrames renders slots as a fixed-width row; the written slot is
// bracketed and hit slots are starred
func (p *textPresenter) formatFrames(step replacement.Step) string {
	hits := make(map[int]bool, len(step.HitSlots))
	for _, slot := range step.HitSlots {
		hits[slot] = true
	}

	cells := make([]string, len(step.FramesAfter))
	for slot, page := range step.FramesAfter {
		cell := "-"
		if page != replacement.EmptySlot {
			cell = strconv.Itoa(page)
		}
		switch {
		case step.IsFault && slot == step.ReplacedSlot:
			cell = p.paint(ansiRed, "["+cell+"]")
		case hits[slot]:
			cell = p.paint(ansiGreen, "*"+cell+"*")
		default:
			cell = " " + cell + " "
		}
		cells[slot] = cell
	}
	return strings.Join(cells, " ")
}

func (p *textPresenter) formatRow(step replacement.Step) string {
	outcome := p.paint(ansiGreen, "HIT")
	if step.IsFault {
		outcome = p.paint(ansiRed, "FAULT")
		if step.EvictedPage != replacement.NoPage {
			outcome += fmt.Sprintf(" (evicted %d)", step.EvictedPage)
		}
	}
	return fmt.Sprintf("T%-3d page %-4d %s  %s", step.Index, step.Page, p.formatFrames(step), outcome)
}

func (p *textPresenter) Render(step replacement.Step) {
	fmt.Fprintln(p.w, p.formatRow(step))
}

func (p *textPresenter) Unrender(step replacement.Step) {
	fmt.Fprintln(p.w, p.paint(ansiDim, fmt.Sprintf("T%-3d undone", step.Index)))
}

func (p *textPresenter) Reset(result *replacement.SimulationResult) {
	if result == nil {
		return
	}
	fmt.Fprintf(p.w, "%s, %d frames, %d references\n", result.Algorithm, result.FrameCount, result.Len())
}

// StateChanged closes finished once the timeline reaches its end
func (p *textPresenter) StateChanged(state timeline.State) {
	if state.Phase == timeline.PhaseEnd && !state.Playing {
		p.once.Do(func() { close(p.finished) })
	}
}

// Done is closed when the last step has been rendered
func (p *textPresenter) Done() <-chan struct{} {
	return p.finished
}

func printSummary(w io.Writer, result *replacement.SimulationResult) {
	stats := replacement.ComputeStatistics(result)
	fmt.Fprintf(w, "Total page faults: %d\n", stats.TotalFaults)
	fmt.Fprintf(w, "Total hits: %d\n", stats.TotalHits)
	fmt.Fprintf(w, "Hit ratio: %.2f%%\n", stats.HitRatio*100)
}

func printComparison(w io.Writer, cmp replacement.Comparison, current replacement.Algorithm) {
	fmt.Fprintln(w, "Algorithm comparison:")
	for _, row := range cmp.Results {
		marker := " "
		if row.Algorithm == current {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %-13s %d faults\n", marker, row.Algorithm, row.Faults)
	}
	fmt.Fprintf(w, "Fewest faults: %s\n", cmp.Best)
}
