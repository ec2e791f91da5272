package timeline

import (
	"github.com/sibexico/pagesim/replacement"
)

// Presenter renders the timeline one step at a time.
// Calls arrive on the goroutine that moved the cursor, while the navigator
// holds its lock; a Presenter must not call back into the Navigator.
type Presenter interface {
	// Render shows the step the cursor just moved past
	Render(step replacement.Step)

	// Unrender removes the most recently rendered step
	Unrender(step replacement.Step)
}

// Observer is an optional Presenter extension notified of resets and of
// every state transition (cursor moves, play/pause).
type Observer interface {
	Reset(result *replacement.SimulationResult)
	StateChanged(state State)
}

// PresenterFuncs adapts plain functions into a Presenter. Nil fields are
// skipped.
type PresenterFuncs struct {
	OnRender   func(step replacement.Step)
	OnUnrender func(step replacement.Step)
}

// Render calls OnRender
func (p PresenterFuncs) Render(step replacement.Step) {
	if p.OnRender != nil {
		p.OnRender(step)
	}
}

// Unrender calls OnUnrender
func (p PresenterFuncs) Unrender(step replacement.Step) {
	if p.OnUnrender != nil {
		p.OnUnrender(step)
	}
}

type nopPresenter struct{}

func (nopPresenter) Render(replacement.Step)   {}
func (nopPresenter) Unrender(replacement.Step) {}
