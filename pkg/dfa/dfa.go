// Package dfa provides an editable deterministic finite automaton with an
// execution cursor that can be stepped instantly or with an animation
// delay.
package dfa

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownState   = errors.New("dfa: unknown state")
	ErrUnknownSymbol  = errors.New("dfa: unknown symbol")
	ErrDuplicateState = errors.New("dfa: duplicate state id")
	ErrIndexRange     = errors.New("dfa: index out of range")
)

// StateID identifies a state. Generated ids are UUID strings.
type StateID string

// SymbolID identifies an alphabet symbol.
type SymbolID string

// State is a node of the automaton.
type State struct {
	ID   StateID
	Name string
}

// Symbol is an alphabet entry. Char is normally a single character.
type Symbol struct {
	ID   SymbolID
	Char string
}

// DFA is safe for concurrent use. Layout and export code should work from
// a Snapshot rather than reading the DFA piecemeal.
type DFA struct {
	mu sync.RWMutex

	states      []State
	alphabet    []Symbol
	transitions map[StateID]map[SymbolID]StateID
	initial     StateID
	accept      map[StateID]bool

	input        []rune
	index        int
	current      StateID
	inTransition bool
	stepping     bool
	generation   uint64

	logger *slog.Logger
}

// Option configures a DFA.
type Option func(*DFA)

// WithLogger sets the logger used for step tracing.
func WithLogger(l *slog.Logger) Option {
	return func(d *DFA) { d.logger = l }
}

// New returns an empty automaton.
func New(opts ...Option) *DFA {
	d := &DFA{
		transitions: make(map[StateID]map[SymbolID]StateID),
		accept:      make(map[StateID]bool),
		index:       -1,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// AddState appends a state with a fresh id.
func (d *DFA) AddState(name string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := State{ID: StateID(uuid.NewString()), Name: name}
	d.states = append(d.states, s)
	return s
}

// AddStateWithID appends a state with a caller-chosen id, as used when
// loading documents. An empty id gets a fresh one.
func (d *DFA) AddStateWithID(id StateID, name string) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == "" {
		id = StateID(uuid.NewString())
	}
	if d.stateIndex(id) >= 0 {
		return State{}, fmt.Errorf("%w: %s", ErrDuplicateState, id)
	}
	s := State{ID: id, Name: name}
	d.states = append(d.states, s)
	return s, nil
}

// RenameState changes the display name of a state.
func (d *DFA) RenameState(id StateID, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.stateIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	d.states[i].Name = name
	return nil
}

// RemoveState deletes a state together with every transition into or out
// of it. Removing the initial state clears it.
func (d *DFA) RemoveState(id StateID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.stateIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	d.states = append(d.states[:i], d.states[i+1:]...)
	delete(d.transitions, id)
	for _, row := range d.transitions {
		for sym, to := range row {
			if to == id {
				delete(row, sym)
			}
		}
	}
	delete(d.accept, id)
	if d.initial == id {
		d.initial = ""
	}
	d.resetLocked()
	return nil
}

// MoveState moves the state at index from to index to, shifting the rest.
func (d *DFA) MoveState(from, to int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.states)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexRange, from, to, n)
	}
	s := d.states[from]
	d.states = append(d.states[:from], d.states[from+1:]...)
	d.states = append(d.states[:to], append([]State{s}, d.states[to:]...)...)
	return nil
}

// AddSymbol appends an alphabet symbol. Empty and duplicate symbols are
// accepted here and reported by Validate.
func (d *DFA) AddSymbol(char string) Symbol {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Symbol{ID: SymbolID(uuid.NewString()), Char: char}
	d.alphabet = append(d.alphabet, s)
	d.generation++
	return s
}

// SetSymbol changes the character of a symbol.
func (d *DFA) SetSymbol(id SymbolID, char string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.symbolIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, id)
	}
	d.alphabet[i].Char = char
	d.generation++
	return nil
}

// RemoveSymbol deletes a symbol and the transitions labelled with it.
func (d *DFA) RemoveSymbol(id SymbolID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.symbolIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, id)
	}
	d.alphabet = append(d.alphabet[:i], d.alphabet[i+1:]...)
	for _, row := range d.transitions {
		delete(row, id)
	}
	d.generation++
	return nil
}

// SetAlphabet replaces the alphabet with chars, dropping repeats. Symbols
// whose character survives keep their id and transitions.
func (d *DFA) SetAlphabet(chars []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	old := make(map[string]Symbol, len(d.alphabet))
	for _, s := range d.alphabet {
		if _, ok := old[s.Char]; !ok {
			old[s.Char] = s
		}
	}
	seen := make(map[string]bool, len(chars))
	keep := make(map[SymbolID]bool, len(chars))
	next := make([]Symbol, 0, len(chars))
	for _, c := range chars {
		if seen[c] {
			continue
		}
		seen[c] = true
		s, ok := old[c]
		if !ok {
			s = Symbol{ID: SymbolID(uuid.NewString()), Char: c}
		}
		keep[s.ID] = true
		next = append(next, s)
	}
	for _, row := range d.transitions {
		for id := range row {
			if !keep[id] {
				delete(row, id)
			}
		}
	}
	d.alphabet = next
	d.generation++
}

// SetTransition defines δ(from, symbol) = to.
func (d *DFA) SetTransition(from StateID, symbol SymbolID, to StateID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stateIndex(from) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, from)
	}
	if d.stateIndex(to) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, to)
	}
	if d.symbolIndex(symbol) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	row := d.transitions[from]
	if row == nil {
		row = make(map[SymbolID]StateID)
		d.transitions[from] = row
	}
	row[symbol] = to
	d.generation++
	return nil
}

// SetTransitionChar is SetTransition addressed by symbol character.
func (d *DFA) SetTransitionChar(from StateID, char string, to StateID) error {
	s, ok := d.SymbolByChar(char)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, char)
	}
	return d.SetTransition(from, s.ID, to)
}

// RemoveTransition undefines δ(from, symbol).
func (d *DFA) RemoveTransition(from StateID, symbol SymbolID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row := d.transitions[from]; row != nil {
		delete(row, symbol)
		d.generation++
	}
}

// SetInitial sets the start state and rewinds the cursor.
func (d *DFA) SetInitial(id StateID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stateIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	d.initial = id
	d.resetLocked()
	return nil
}

// SetAccept marks or unmarks an accepting state.
func (d *DFA) SetAccept(id StateID, accept bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stateIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	if accept {
		d.accept[id] = true
	} else {
		delete(d.accept, id)
	}
	return nil
}

// States returns the states in order.
func (d *DFA) States() []State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]State(nil), d.states...)
}

// Alphabet returns the symbols in order.
func (d *DFA) Alphabet() []Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Symbol(nil), d.alphabet...)
}

// Initial returns the start state id, empty when unset.
func (d *DFA) Initial() StateID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.initial
}

// IsAccept reports whether id is an accepting state.
func (d *DFA) IsAccept(id StateID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.accept[id]
}

// State looks a state up by id.
func (d *DFA) State(id StateID) (State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.stateIndex(id); i >= 0 {
		return d.states[i], true
	}
	return State{}, false
}

// StateByName returns the first state called name.
func (d *DFA) StateByName(name string) (State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.states {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

// SymbolByChar returns the first symbol with the given character.
func (d *DFA) SymbolByChar(char string) (Symbol, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.symbolByChar(char)
}

// NextState returns δ(from, char).
func (d *DFA) NextState(from StateID, char string) (StateID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nextLocked(from, char)
}

func (d *DFA) nextLocked(from StateID, char string) (StateID, bool) {
	sym, ok := d.symbolByChar(char)
	if !ok {
		return "", false
	}
	to, ok := d.transitions[from][sym.ID]
	return to, ok
}

func (d *DFA) symbolByChar(char string) (Symbol, bool) {
	for _, s := range d.alphabet {
		if s.Char == char {
			return s, true
		}
	}
	return Symbol{}, false
}

func (d *DFA) stateIndex(id StateID) int {
	for i, s := range d.states {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (d *DFA) symbolIndex(id SymbolID) int {
	for i, s := range d.alphabet {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (d *DFA) stateName(id StateID) string {
	if i := d.stateIndex(id); i >= 0 && d.states[i].Name != "" {
		return d.states[i].Name
	}
	return string(id)
}

// String returns a short summary of the automaton.
func (d *DFA) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("DFA: %d states, %d symbols\n", len(d.states), len(d.alphabet)))
	names := make([]string, len(d.states))
	for i, s := range d.states {
		names[i] = s.Name
	}
	sb.WriteString(fmt.Sprintf("  States: %v\n", names))
	chars := make([]string, len(d.alphabet))
	for i, s := range d.alphabet {
		chars[i] = s.Char
	}
	sb.WriteString(fmt.Sprintf("  Alphabet: %v\n", chars))
	sb.WriteString(fmt.Sprintf("  Initial: %s\n", d.stateName(d.initial)))
	return sb.String()
}
