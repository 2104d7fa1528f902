package dfa

// Snapshot is an immutable copy of a DFA and its cursor.
type Snapshot struct {
	States       []State
	Alphabet     []Symbol
	Transitions  map[StateID]map[SymbolID]StateID
	Initial      StateID
	Accept       map[StateID]bool
	Input        string
	CurrentIndex int
	CurrentState StateID
	InTransition bool
}

// Snapshot copies the automaton under its read lock.
func (d *DFA) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Snapshot{
		States:       append([]State(nil), d.states...),
		Alphabet:     append([]Symbol(nil), d.alphabet...),
		Transitions:  make(map[StateID]map[SymbolID]StateID, len(d.transitions)),
		Initial:      d.initial,
		Accept:       make(map[StateID]bool, len(d.accept)),
		Input:        string(d.input),
		CurrentIndex: d.index,
		CurrentState: d.current,
		InTransition: d.inTransition,
	}
	for from, row := range d.transitions {
		cp := make(map[SymbolID]StateID, len(row))
		for sym, to := range row {
			cp[sym] = to
		}
		s.Transitions[from] = cp
	}
	for id, ok := range d.accept {
		s.Accept[id] = ok
	}
	return s
}

// Next returns δ(from, symbol).
func (s Snapshot) Next(from StateID, symbol SymbolID) (StateID, bool) {
	to, ok := s.Transitions[from][symbol]
	return to, ok
}

// HasState reports whether id names a state.
func (s Snapshot) HasState(id StateID) bool {
	for _, st := range s.States {
		if st.ID == id {
			return true
		}
	}
	return false
}

// StateName returns the name of id, or id itself when it has none.
func (s Snapshot) StateName(id StateID) string {
	for _, st := range s.States {
		if st.ID == id && st.Name != "" {
			return st.Name
		}
	}
	return string(id)
}

// CurrentSymbol returns the input symbol at the cursor.
func (s Snapshot) CurrentSymbol() (string, bool) {
	r := []rune(s.Input)
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(r) {
		return "", false
	}
	return string(r[s.CurrentIndex]), true
}
