package timeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sibexico/pagesim/replacement"
)

// DefaultInterval is the auto-play delay used when none is given
const DefaultInterval = time.Second

// Phase is the cursor's position class
type Phase int

const (
	PhaseIdle Phase = iota // cursor == 0
	PhaseMid               // 0 < cursor < len
	PhaseEnd               // cursor == len
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMid:
		return "mid"
	case PhaseEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "mid":
		*p = PhaseMid
	case "end":
		*p = PhaseEnd
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// State is a snapshot of the navigator
type State struct {
	Position   int   `json:"position"`
	Length     int   `json:"length"`
	Phase      Phase `json:"phase"`
	Playing    bool  `json:"playing"`
	CanAdvance bool  `json:"canAdvance"`
	CanRetreat bool  `json:"canRetreat"`
}

// TickerFunc starts a periodic tick source and returns its channel and a
// function that stops it
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

func systemTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Option configures a Navigator
type Option func(*Navigator)

// WithTicker replaces the wall-clock ticker used by auto-play
func WithTicker(f TickerFunc) Option {
	return func(n *Navigator) {
		if f != nil {
			n.newTicker = f
		}
	}
}

// WithLogger sets the logger for transitions
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Navigator is a cursor over one SimulationResult.
//
// Advance renders steps[cursor] then moves the cursor forward; Retreat moves
// it back and unrenders the step now beyond it. TogglePlay drives Advance
// from a ticker until the end. At most one ticker runs per navigator, and
// Reset always stops it before swapping the result.
type Navigator struct {
	mu        sync.Mutex
	result    *replacement.SimulationResult
	cursor    int
	presenter Presenter

	playing bool
	stop    chan struct{}
	playGen uint64

	newTicker TickerFunc
	logger    *slog.Logger
}

// New creates a navigator with no result loaded
func New(presenter Presenter, opts ...Option) *Navigator {
	if presenter == nil {
		presenter = nopPresenter{}
	}
	n := &Navigator{
		presenter: presenter,
		newTicker: systemTicker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Reset replaces the held result and rewinds to Idle, Paused
func (n *Navigator) Reset(result *replacement.SimulationResult) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()
	n.result = result
	n.cursor = 0

	n.logger.Debug("timeline reset", "steps", result.Len())

	if obs, ok := n.presenter.(Observer); ok {
		obs.Reset(result)
	}
	n.notifyLocked()
}

// Advance renders the next step. It returns false at the end.
func (n *Navigator) Advance() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	moved := n.advanceLocked()
	if moved {
		n.notifyLocked()
	}
	return moved
}

func (n *Navigator) advanceLocked() bool {
	if n.cursor >= n.result.Len() {
		return false
	}

	n.presenter.Render(n.result.Steps[n.cursor])
	n.cursor++

	// End while playing forces Paused
	if n.cursor == n.result.Len() && n.playing {
		n.stopLocked()
		n.logger.Debug("auto-play reached end", "steps", n.cursor)
	}
	return true
}

// Retreat unrenders the last rendered step. It returns false at position 0.
func (n *Navigator) Retreat() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cursor == 0 {
		return false
	}

	n.cursor--
	n.presenter.Unrender(n.result.Steps[n.cursor])
	n.notifyLocked()
	return true
}

// TogglePlay starts auto-play at the given interval, or cancels it if it is
// running. It returns whether the navigator is playing afterwards.
// Starting at the end is refused.
func (n *Navigator) TogglePlay(interval time.Duration) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.playing {
		n.stopLocked()
		n.notifyLocked()
		return false
	}

	if n.cursor >= n.result.Len() {
		return false
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	ticks, stopTicker := n.newTicker(interval)
	stop := make(chan struct{})
	n.playGen++
	n.playing = true
	n.stop = stop
	go n.play(n.playGen, ticks, stopTicker, stop)

	n.logger.Debug("auto-play started", "interval", interval, "position", n.cursor)
	n.notifyLocked()
	return true
}

// Stop cancels auto-play. It returns false if nothing was playing.
func (n *Navigator) Stop() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.playing {
		return false
	}
	n.stopLocked()
	n.notifyLocked()
	return true
}

// Close stops auto-play
func (n *Navigator) Close() error {
	n.Stop()
	return nil
}

func (n *Navigator) play(gen uint64, ticks <-chan time.Time, stopTicker func(), stop <-chan struct{}) {
	defer stopTicker()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
			if !n.tick(gen) {
				return
			}
		}
	}
}

// tick advances on behalf of the auto-play loop identified by gen.
// A loop that was cancelled (or replaced) while waiting for the lock does
// nothing.
func (n *Navigator) tick(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.playing || n.playGen != gen {
		return false
	}
	if n.advanceLocked() {
		n.notifyLocked()
	}
	return n.playing
}

func (n *Navigator) stopLocked() {
	if !n.playing {
		return
	}
	n.playing = false
	close(n.stop)
	n.stop = nil
}

func (n *Navigator) notifyLocked() {
	if obs, ok := n.presenter.(Observer); ok {
		obs.StateChanged(n.stateLocked())
	}
}

// State returns a snapshot of the cursor and play state
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stateLocked()
}

func (n *Navigator) stateLocked() State {
	length := n.result.Len()
	state := State{
		Position:   n.cursor,
		Length:     length,
		Playing:    n.playing,
		CanAdvance: n.cursor < length,
		CanRetreat: n.cursor > 0,
	}
	switch {
	case n.cursor == 0:
		state.Phase = PhaseIdle
	case n.cursor < length:
		state.Phase = PhaseMid
	default:
		state.Phase = PhaseEnd
	}
	return state
}

// Position returns the cursor
func (n *Navigator) Position() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// Playing reports whether auto-play is active
func (n *Navigator) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// Result returns the held result, or nil before the first Reset
func (n *Navigator) Result() *replacement.SimulationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.result
}

// Rendered returns the steps currently on screen, oldest first
func (n *Navigator) Rendered() []replacement.Step {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cursor == 0 {
		return nil
	}
	steps := make([]replacement.Step, n.cursor)
	copy(steps, n.result.Steps[:n.cursor])
	return steps
}

// Narration describes the last rendered step
func (n *Navigator) Narration() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cursor == 0 {
		return "Awaiting simulation..."
	}
	return n.result.Steps[n.cursor-1].Narration()
}
