// Package dfafile reads and writes automaton documents and exports them to
// Graphviz DOT and PNG.
package dfafile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/graph"
)

var ErrUnknownReference = errors.New("dfafile: unknown state reference")

// Document is the on-disk form of an automaton, its input and its layout.
type Document struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	States      []State      `json:"states" yaml:"states"`
	Alphabet    []string     `json:"alphabet" yaml:"alphabet"`
	Initial     string       `json:"initial,omitempty" yaml:"initial,omitempty"`
	Accept      []string     `json:"accept,omitempty" yaml:"accept,omitempty"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Input       string       `json:"input,omitempty" yaml:"input,omitempty"`
	Layout      *Layout      `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// State is a document state. References elsewhere in the document may use
// either the id or the name; an empty id gets a generated one on Build.
type State struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

type Transition struct {
	From  string `json:"from" yaml:"from"`
	Input string `json:"input" yaml:"input"`
	To    string `json:"to" yaml:"to"`
}

// Layout stores the view transform and node positions keyed by state id.
type Layout struct {
	Scale     float64             `json:"scale,omitempty" yaml:"scale,omitempty"`
	Rotation  float64             `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Translate [2]float64          `json:"translate" yaml:"translate,flow"`
	Positions map[string]Position `json:"positions,omitempty" yaml:"positions,omitempty"`
}

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Build creates an automaton from the document with the cursor rewound
// over the document input.
func (doc *Document) Build(opts ...dfa.Option) (*dfa.DFA, error) {
	d := dfa.New(opts...)
	refs := make(map[string]dfa.StateID, 2*len(doc.States))
	for _, s := range doc.States {
		st, err := d.AddStateWithID(dfa.StateID(s.ID), s.Name)
		if err != nil {
			return nil, err
		}
		refs[string(st.ID)] = st.ID
		if _, ok := refs[s.Name]; !ok && s.Name != "" {
			refs[s.Name] = st.ID
		}
	}
	resolve := func(ref string) (dfa.StateID, error) {
		if id, ok := refs[ref]; ok {
			return id, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownReference, ref)
	}

	// Kept verbatim, duplicates included, so validation can report them.
	for _, c := range doc.Alphabet {
		d.AddSymbol(c)
	}
	for _, t := range doc.Transitions {
		from, err := resolve(t.From)
		if err != nil {
			return nil, err
		}
		to, err := resolve(t.To)
		if err != nil {
			return nil, err
		}
		if err := d.SetTransitionChar(from, t.Input, to); err != nil {
			return nil, fmt.Errorf("transition %s --%s--> %s: %w", t.From, t.Input, t.To, err)
		}
	}
	for _, ref := range doc.Accept {
		id, err := resolve(ref)
		if err != nil {
			return nil, err
		}
		if err := d.SetAccept(id, true); err != nil {
			return nil, err
		}
	}
	if doc.Initial != "" {
		id, err := resolve(doc.Initial)
		if err != nil {
			return nil, err
		}
		if err := d.SetInitial(id); err != nil {
			return nil, err
		}
	}
	d.SetInput(doc.Input)
	return d, nil
}

// ApplyLayout restores saved node positions of d's states into g and the
// saved view into t. Either may be nil. Position keys are state ids or
// names; unknown keys are ignored and unplaced states are left to the
// graph's automatic placement.
func (doc *Document) ApplyLayout(d *dfa.DFA, g *graph.Graph, t *geometry.Transform2D) {
	if doc.Layout == nil {
		return
	}
	if g != nil && len(doc.Layout.Positions) > 0 {
		pos := make(map[dfa.StateID]geometry.Point, len(doc.Layout.Positions))
		for key, p := range doc.Layout.Positions {
			st, ok := d.State(dfa.StateID(key))
			if !ok {
				if st, ok = d.StateByName(key); !ok {
					continue
				}
			}
			pos[st.ID] = geometry.Point{X: p.X, Y: p.Y}
		}
		g.SetPositions(pos)
	}
	if t != nil && doc.Layout.Scale > 0 {
		t.SetScale(doc.Layout.Scale, doc.Layout.Scale)
		t.SetRotation(doc.Layout.Rotation)
		t.SetTranslation(doc.Layout.Translate[0], doc.Layout.Translate[1])
	}
}

// FromSnapshot captures an automaton as a document. States are written
// with their ids and references use ids.
func FromSnapshot(snap dfa.Snapshot) *Document {
	doc := &Document{
		Initial: string(snap.Initial),
		Input:   snap.Input,
	}
	for _, s := range snap.States {
		doc.States = append(doc.States, State{ID: string(s.ID), Name: s.Name})
		if snap.Accept[s.ID] {
			doc.Accept = append(doc.Accept, string(s.ID))
		}
	}
	for _, sym := range snap.Alphabet {
		doc.Alphabet = append(doc.Alphabet, sym.Char)
	}
	// Ordered by state then alphabet so output is stable.
	for _, s := range snap.States {
		for _, sym := range snap.Alphabet {
			if to, ok := snap.Next(s.ID, sym.ID); ok {
				doc.Transitions = append(doc.Transitions, Transition{
					From:  string(s.ID),
					Input: sym.Char,
					To:    string(to),
				})
			}
		}
	}
	return doc
}

// SetLayout records node positions from g and the view from t. Either may
// be nil.
func (doc *Document) SetLayout(g *graph.Graph, t *geometry.Transform2D) {
	l := &Layout{Scale: 1}
	if t != nil {
		l.Scale = t.Zoom()
		l.Rotation = t.Rotation
		l.Translate = t.Translation
	}
	if g != nil {
		pos := g.Positions()
		l.Positions = make(map[string]Position, len(pos))
		for id, p := range pos {
			l.Positions[string(id)] = Position{X: p.X, Y: p.Y}
		}
	}
	doc.Layout = l
}

// Open builds the automaton, a graph carrying the saved positions, and
// applies the saved view to t when it is not nil.
func (doc *Document) Open(logger *slog.Logger, t *geometry.Transform2D) (*dfa.DFA, *graph.Graph, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d, err := doc.Build(dfa.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	g := graph.NewGraph(logger)
	doc.ApplyLayout(d, g, t)
	return d, g, nil
}
