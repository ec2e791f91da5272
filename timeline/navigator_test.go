package timeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sibexico/pagesim/replacement"
)

// recorder is a Presenter + Observer that logs every callback
type recorder struct {
	mu      sync.Mutex
	events  []string
	states  []State
	resets  int
	renders chan int
}

func newRecorder() *recorder {
	return &recorder{renders: make(chan int, 128)}
}

func (r *recorder) Render(step replacement.Step) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf("R%d", step.Index))
	r.mu.Unlock()
	r.renders <- step.Index
}

func (r *recorder) Unrender(step replacement.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("U%d", step.Index))
}

func (r *recorder) Reset(result *replacement.SimulationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	r.events = nil
}

func (r *recorder) StateChanged(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) waitRender(t *testing.T) int {
	t.Helper()
	select {
	case idx := <-r.renders:
		return idx
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for render")
		return 0
	}
}

// manualTicker hands out tick channels the test fires by hand
type manualTicker struct {
	mu       sync.Mutex
	started  []time.Duration
	channels []chan time.Time
	stopped  []chan struct{}
}

func (m *manualTicker) New(interval time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time)
	stopped := make(chan struct{})
	var once sync.Once
	m.started = append(m.started, interval)
	m.channels = append(m.channels, ch)
	m.stopped = append(m.stopped, stopped)
	return ch, func() { once.Do(func() { close(stopped) }) }
}

func (m *manualTicker) fire(t *testing.T, i int) {
	t.Helper()
	m.mu.Lock()
	ch := m.channels[i]
	m.mu.Unlock()
	select {
	case ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("Auto-play loop is not receiving ticks")
	}
}

func (m *manualTicker) waitStopped(t *testing.T, i int) {
	t.Helper()
	m.mu.Lock()
	stopped := m.stopped[i]
	m.mu.Unlock()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Ticker %d was not stopped", i)
	}
}

func (m *manualTicker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.started)
}

func simulate(t *testing.T, refs ...int) *replacement.SimulationResult {
	t.Helper()
	result, err := replacement.SimulateFIFO(refs, 2)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	return result
}

func TestResetState(t *testing.T) {
	rec := newRecorder()
	nav := New(rec)
	nav.Reset(simulate(t, 1, 2, 3))

	state := nav.State()
	if state.Phase != PhaseIdle || state.Position != 0 || state.Length != 3 {
		t.Errorf("Unexpected state after reset: %+v", state)
	}
	if !state.CanAdvance || state.CanRetreat || state.Playing {
		t.Errorf("Expected forward-only paused state, got %+v", state)
	}
	if rec.resets != 1 {
		t.Errorf("Expected 1 reset notification, got %d", rec.resets)
	}
}

func TestAdvanceThenRetreatReturnsToStart(t *testing.T) {
	rec := newRecorder()
	nav := New(rec)
	result := simulate(t, 7, 0, 1, 2, 0, 3)
	nav.Reset(result)

	n := result.Len()
	for i := 0; i < n; i++ {
		if !nav.Advance() {
			t.Fatalf("Advance %d refused", i)
		}
	}
	if nav.Advance() {
		t.Error("Advance past the end should be refused")
	}
	if state := nav.State(); state.Phase != PhaseEnd || state.CanAdvance || !state.CanRetreat {
		t.Errorf("Expected End state, got %+v", state)
	}

	for i := 0; i < n; i++ {
		if !nav.Retreat() {
			t.Fatalf("Retreat %d refused", i)
		}
	}
	if nav.Retreat() {
		t.Error("Retreat before the start should be refused")
	}
	if nav.Position() != 0 {
		t.Errorf("Expected cursor 0, got %d", nav.Position())
	}

	// rendered then unrendered sequence is a palindrome on step index
	events := rec.Events()
	if len(events) != 2*n {
		t.Fatalf("Expected %d events, got %v", 2*n, events)
	}
	for i := 0; i < n; i++ {
		forward := events[i][1:]
		backward := events[2*n-1-i][1:]
		if forward != backward {
			t.Errorf("Event %d (%s) does not mirror event %d (%s)", i, events[i], 2*n-1-i, events[2*n-1-i])
		}
	}
}

func TestMidPhaseAndNarration(t *testing.T) {
	nav := New(nil)
	nav.Reset(simulate(t, 4, 4, 5))

	if got := nav.Narration(); got != "Awaiting simulation..." {
		t.Errorf("Unexpected narration at start: %q", got)
	}

	nav.Advance()
	nav.Advance()
	if state := nav.State(); state.Phase != PhaseMid {
		t.Errorf("Expected Mid, got %s", state.Phase)
	}
	if got := nav.Narration(); got != "At time T2, page 4 was already in memory (Hit)." {
		t.Errorf("Unexpected narration: %q", got)
	}

	rendered := nav.Rendered()
	if len(rendered) != 2 || rendered[1].Index != 2 {
		t.Errorf("Expected 2 rendered steps, got %+v", rendered)
	}
}

func TestNoResultIsInert(t *testing.T) {
	nav := New(nil)

	if nav.Advance() || nav.Retreat() {
		t.Error("Navigation without a result should be refused")
	}
	if nav.TogglePlay(time.Millisecond) {
		t.Error("Play without a result should be refused")
	}
	if state := nav.State(); state.Phase != PhaseIdle || state.CanAdvance {
		t.Errorf("Unexpected state %+v", state)
	}
}

func TestAutoPlayRunsToEndAndPauses(t *testing.T) {
	ticker := &manualTicker{}
	rec := newRecorder()
	nav := New(rec, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1, 2, 3))

	if !nav.TogglePlay(250 * time.Millisecond) {
		t.Fatal("Expected auto-play to start")
	}
	if ticker.started[0] != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %v", ticker.started[0])
	}

	for expected := 1; expected <= 3; expected++ {
		ticker.fire(t, 0)
		if idx := rec.waitRender(t); idx != expected {
			t.Errorf("Expected step %d rendered, got %d", expected, idx)
		}
	}

	ticker.waitStopped(t, 0)
	state := nav.State()
	if state.Playing {
		t.Error("Reaching the end should pause")
	}
	if state.Phase != PhaseEnd {
		t.Errorf("Expected End, got %s", state.Phase)
	}
}

func TestTogglePlayCancels(t *testing.T) {
	ticker := &manualTicker{}
	rec := newRecorder()
	nav := New(rec, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1, 2, 3, 4))

	nav.TogglePlay(time.Second)
	ticker.fire(t, 0)
	rec.waitRender(t)

	if nav.TogglePlay(time.Second) {
		t.Error("Second toggle should pause")
	}
	ticker.waitStopped(t, 0)

	if nav.Playing() {
		t.Error("Expected paused")
	}
	if nav.Position() != 1 {
		t.Errorf("Expected cursor 1, got %d", nav.Position())
	}

	// manual stepping still works while paused
	if !nav.Advance() || !nav.Retreat() {
		t.Error("Manual navigation refused after pause")
	}
}

func TestAtMostOneTicker(t *testing.T) {
	ticker := &manualTicker{}
	rec := newRecorder()
	nav := New(rec, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1, 2, 3, 4, 5))

	nav.TogglePlay(time.Second) // start #0
	nav.TogglePlay(time.Second) // stop #0
	nav.TogglePlay(time.Second) // start #1

	ticker.waitStopped(t, 0)
	if ticker.count() != 2 {
		t.Fatalf("Expected 2 tickers started, got %d", ticker.count())
	}

	ticker.fire(t, 1)
	if idx := rec.waitRender(t); idx != 1 {
		t.Errorf("Expected step 1 rendered, got %d", idx)
	}

	if !nav.Stop() {
		t.Error("Stop should report it cancelled auto-play")
	}
	if nav.Stop() {
		t.Error("Second Stop should be a no-op")
	}
	ticker.waitStopped(t, 1)
}

func TestResetCancelsAutoPlay(t *testing.T) {
	ticker := &manualTicker{}
	rec := newRecorder()
	nav := New(rec, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1, 2, 3))

	nav.TogglePlay(time.Second)
	ticker.fire(t, 0)
	rec.waitRender(t)

	nav.Reset(simulate(t, 9, 8))
	ticker.waitStopped(t, 0)

	state := nav.State()
	if state.Playing || state.Position != 0 || state.Length != 2 {
		t.Errorf("Expected Idle, Paused on new result, got %+v", state)
	}
}

func TestTogglePlayAtEndIsRefused(t *testing.T) {
	ticker := &manualTicker{}
	nav := New(nil, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1))
	nav.Advance()

	if nav.TogglePlay(time.Second) {
		t.Error("Play at the end should be refused")
	}
	if ticker.count() != 0 {
		t.Error("No ticker should start at the end")
	}
}

func TestDefaultIntervalForNonPositive(t *testing.T) {
	ticker := &manualTicker{}
	nav := New(nil, WithTicker(ticker.New))
	nav.Reset(simulate(t, 1, 2))

	nav.TogglePlay(0)
	defer nav.Close()

	if ticker.started[0] != DefaultInterval {
		t.Errorf("Expected default interval, got %v", ticker.started[0])
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	rec := newRecorder()
	nav := New(rec)
	nav.Reset(simulate(t, 1, 2))
	nav.Advance()
	nav.Advance()
	nav.Retreat()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	phases := []Phase{PhaseIdle, PhaseMid, PhaseEnd, PhaseMid}
	if len(rec.states) != len(phases) {
		t.Fatalf("Expected %d state notifications, got %d", len(phases), len(rec.states))
	}
	for i, phase := range phases {
		if rec.states[i].Phase != phase {
			t.Errorf("Notification %d: expected %s, got %s", i, phase, rec.states[i].Phase)
		}
	}
}

func TestIndependentNavigators(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.Reset(simulate(t, 1, 2, 3))
	b.Reset(simulate(t, 4, 5))

	a.Advance()
	a.Advance()

	if b.Position() != 0 {
		t.Errorf("Navigators share state: b at %d", b.Position())
	}
}

func TestPresenterFuncs(t *testing.T) {
	var rendered, unrendered int
	nav := New(PresenterFuncs{
		OnRender:   func(replacement.Step) { rendered++ },
		OnUnrender: func(replacement.Step) { unrendered++ },
	})
	nav.Reset(simulate(t, 1, 2))
	nav.Advance()
	nav.Retreat()

	if rendered != 1 || unrendered != 1 {
		t.Errorf("Expected 1/1 callbacks, got %d/%d", rendered, unrendered)
	}

	// nil fields are skipped
	nav = New(PresenterFuncs{})
	nav.Reset(simulate(t, 1))
	nav.Advance()
}

func TestPhaseText(t *testing.T) {
	for _, phase := range []Phase{PhaseIdle, PhaseMid, PhaseEnd} {
		text, err := phase.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		var decoded Phase
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) failed: %v", text, err)
		}
		if decoded != phase {
			t.Errorf("Expected %s, got %s", phase, decoded)
		}
	}

	var p Phase
	if err := p.UnmarshalText([]byte("paused")); err == nil {
		t.Error("Expected error for unknown phase")
	}
}
