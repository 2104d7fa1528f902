package dfa

import "fmt"

// Reason classifies a validation failure.
type Reason int

const (
	NoInitialState Reason = iota + 1
	NoAcceptState
	UnnamedState
	EmptySymbol
	DuplicateSymbol
	MissingTransition
)

func (r Reason) String() string {
	switch r {
	case NoInitialState:
		return "no initial state defined"
	case NoAcceptState:
		return "no accept state defined"
	case UnnamedState:
		return "unnamed state present"
	case EmptySymbol:
		return "empty alphabet symbol"
	case DuplicateSymbol:
		return "duplicate alphabet symbol"
	case MissingTransition:
		return "missing transition"
	}
	return "unknown"
}

// ValidationError reports why an automaton cannot be run. It describes a
// normal editing state, not a fault.
type ValidationError struct {
	Reason Reason
	State  StateID
	Symbol string
	msg    string
}

func (e *ValidationError) Error() string {
	if e.Reason == MissingTransition {
		return fmt.Sprintf("dfa: %s for (%s, %q)", e.Reason, e.State, e.Symbol)
	}
	return "dfa: " + e.Reason.String()
}

// Message returns a sentence suitable for showing to the user.
func (e *ValidationError) Message() string { return e.msg }

// Validate returns nil or the first failing check as a *ValidationError.
func (d *DFA) Validate() error {
	return d.Snapshot().Validate()
}

// Validate checks the snapshot in a fixed order and reports only the
// first failure.
func (s Snapshot) Validate() error {
	if s.Initial == "" || !s.HasState(s.Initial) {
		return &ValidationError{Reason: NoInitialState, msg: "Define an initial state"}
	}

	hasAccept := false
	for _, st := range s.States {
		if s.Accept[st.ID] {
			hasAccept = true
			break
		}
	}
	if !hasAccept {
		return &ValidationError{Reason: NoAcceptState, msg: "Define at least one accept state"}
	}

	for _, st := range s.States {
		if st.Name == "" {
			return &ValidationError{Reason: UnnamedState, State: st.ID, msg: "Every state needs a name"}
		}
	}

	seen := make(map[string]bool, len(s.Alphabet))
	for _, sym := range s.Alphabet {
		if sym.Char == "" {
			return &ValidationError{Reason: EmptySymbol, msg: "Alphabet symbols cannot be empty"}
		}
		if seen[sym.Char] {
			return &ValidationError{
				Reason: DuplicateSymbol,
				Symbol: sym.Char,
				msg:    fmt.Sprintf("Symbol %q appears more than once in the alphabet", sym.Char),
			}
		}
		seen[sym.Char] = true
	}

	for _, st := range s.States {
		for _, sym := range s.Alphabet {
			to, ok := s.Next(st.ID, sym.ID)
			if !ok || !s.HasState(to) {
				return &ValidationError{
					Reason: MissingTransition,
					State:  st.ID,
					Symbol: sym.Char,
					msg:    fmt.Sprintf("Define a transition from %s on %q", s.StateName(st.ID), sym.Char),
				}
			}
		}
	}
	return nil
}
