package dfa

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultStepDelay is how long an animated step stays in transition.
const DefaultStepDelay = 500 * time.Millisecond

var (
	ErrEndOfInput     = errors.New("dfa: end of input")
	ErrNoTransition   = errors.New("dfa: no transition")
	ErrStepInProgress = errors.New("dfa: step in progress")
	ErrStaleStep      = errors.New("dfa: automaton changed during step")
)

// Action describes one consumed input symbol. Condition is the index of
// the symbol in the input.
type Action struct {
	From      StateID
	Condition int
	Symbol    string
	To        StateID
}

// SetInput replaces the input and rewinds the cursor.
func (d *DFA) SetInput(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.input = []rune(s)
	d.resetLocked()
}

// Start rewinds the cursor to the initial state before the first symbol.
func (d *DFA) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *DFA) resetLocked() {
	d.index = -1
	d.current = d.initial
	d.inTransition = false
	d.generation++
}

// Input returns the input string.
func (d *DFA) Input() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.input)
}

// CurrentIndex returns the index of the last consumed symbol, -1 before
// the first.
func (d *DFA) CurrentIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index
}

// CurrentState returns the state the cursor is in.
func (d *DFA) CurrentState() StateID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// InTransition reports whether an animated step is waiting to commit.
func (d *DFA) InTransition() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inTransition
}

// IsStarted reports whether at least one symbol has been consumed.
func (d *DFA) IsStarted() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index != -1
}

// IsEnd reports whether every input symbol has been consumed.
func (d *DFA) IsEnd() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isEndLocked()
}

func (d *DFA) isEndLocked() bool {
	return d.index >= len(d.input)-1
}

// IsInputValid reports whether the run has ended in an accepting state.
func (d *DFA) IsInputValid() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isEndLocked() && !d.inTransition && d.accept[d.current]
}

// prepare resolves the next action without changing anything.
func (d *DFA) prepare() (Action, error) {
	if d.stepping {
		return Action{}, ErrStepInProgress
	}
	if d.isEndLocked() {
		return Action{From: d.current, Condition: d.index, To: d.current}, ErrEndOfInput
	}
	i := d.index + 1
	ch := string(d.input[i])
	a := Action{From: d.current, Condition: i, Symbol: ch}
	to, ok := d.nextLocked(d.current, ch)
	if !ok {
		return a, fmt.Errorf("%w from %s on %q", ErrNoTransition, d.stateName(d.current), ch)
	}
	a.To = to
	return a, nil
}

// Next consumes one symbol and commits immediately. At the end of input
// it returns a no-op action and ErrEndOfInput; without a transition it
// returns ErrNoTransition and leaves the cursor alone.
func (d *DFA) Next() (Action, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, err := d.prepare()
	if err != nil {
		return a, err
	}
	d.index = a.Condition
	d.current = a.To
	d.logger.Debug("step", "from", d.stateName(a.From), "symbol", a.Symbol, "to", d.stateName(a.To))
	return a, nil
}

// Step consumes one symbol with an animation window: the cursor advances
// and the automaton reports InTransition, still in the old state, until
// delay elapses (DefaultStepDelay when delay <= 0). The new state is then
// committed. If ctx ends first the step is rolled back and ctx.Err() is
// returned. A step that finds the automaton rewound or edited when it
// wakes returns ErrStaleStep and commits nothing.
func (d *DFA) Step(ctx context.Context, delay time.Duration) (Action, error) {
	if delay <= 0 {
		delay = DefaultStepDelay
	}

	d.mu.Lock()
	a, err := d.prepare()
	if err != nil {
		d.mu.Unlock()
		return a, err
	}
	gen := d.generation
	d.stepping = true
	d.inTransition = true
	d.index = a.Condition
	d.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	var cancelled bool
	select {
	case <-ctx.Done():
		cancelled = true
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stepping = false
	if d.generation != gen {
		if d.inTransition {
			d.inTransition = false
			d.index = a.Condition - 1
		}
		return a, ErrStaleStep
	}
	d.inTransition = false
	if cancelled {
		d.index = a.Condition - 1
		return a, ctx.Err()
	}
	d.current = a.To
	d.logger.Debug("step", "from", d.stateName(a.From), "symbol", a.Symbol, "to", d.stateName(a.To))
	return a, nil
}

// Run steps until the end of input, calling onStep after each commit. A
// zero delay steps without animation.
func (d *DFA) Run(ctx context.Context, delay time.Duration, onStep func(Action)) error {
	for !d.IsEnd() {
		var (
			a   Action
			err error
		)
		if delay == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
			a, err = d.Next()
		} else {
			a, err = d.Step(ctx, delay)
		}
		if err != nil {
			return err
		}
		if onStep != nil {
			onStep(a)
		}
	}
	return nil
}
