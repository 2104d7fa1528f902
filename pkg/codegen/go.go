// Package codegen turns an automaton into standalone source code.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/ha1tch/dfaviz/pkg/dfa"
)

// ErrSymbolNotRune is returned for alphabets with multi-character symbols;
// generated code consumes input one rune at a time.
var ErrSymbolNotRune = errors.New("codegen: symbol is not a single character")

// GoOptions names the generated code. Empty fields are derived from the
// automaton name.
type GoOptions struct {
	Name    string // automaton name, used in the header and for Type
	Package string
	Type    string
}

type goCase struct {
	Symbol string
	To     string
}

type goState struct {
	Const string
	Name  string
	Cases []goCase
}

type goModel struct {
	Source    string
	Package   string
	Type      string
	Lower     string
	Initial   string
	States    []goState
	Accepting []string
}

var goTemplate = template.Must(template.New("go").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`// Code generated by dfaviz from {{.Source}}. DO NOT EDIT.

package {{.Package}}

// {{.Type}}State is a state of {{.Type}}.
type {{.Type}}State uint16

const (
{{- range $i, $s := .States}}
	{{$s.Const}}{{if eq $i 0}} {{$.Type}}State = iota{{end}}
{{- end}}
)

var {{.Lower}}StateNames = [...]string{
{{- range .States}}
	{{printf "%q" .Name}},
{{- end}}
}

func (s {{.Type}}State) String() string {
	if int(s) < len({{.Lower}}StateNames) {
		return {{.Lower}}StateNames[s]
	}
	return "unknown"
}

// {{.Type}} consumes input one symbol at a time.
type {{.Type}} struct {
	state {{.Type}}State
}

// New{{.Type}} returns the automaton in its initial state.
func New{{.Type}}() *{{.Type}} {
	return &{{.Type}}{state: {{.Initial}}}
}

// State returns the current state.
func (f *{{.Type}}) State() {{.Type}}State {
	return f.state
}

// Step consumes one symbol. It reports false and keeps the state when
// there is no transition.
func (f *{{.Type}}) Step(symbol rune) bool {
	switch f.state {
{{- range .States}}{{if .Cases}}
	case {{.Const}}:
		switch symbol {
{{- range .Cases}}
		case {{.Symbol}}:
			f.state = {{.To}}
			return true
{{- end}}
		}
{{- end}}{{end}}
	}
	return false
}

// IsAccepting reports whether the current state accepts.
func (f *{{.Type}}) IsAccepting() bool {
{{- if .Accepting}}
	switch f.state {
	case {{join .Accepting ", "}}:
		return true
	}
{{- end}}
	return false
}

// Reset returns the automaton to its initial state.
func (f *{{.Type}}) Reset() {
	f.state = {{.Initial}}
}

// Match resets the automaton and reports whether it accepts input.
func (f *{{.Type}}) Match(input string) bool {
	f.Reset()
	for _, r := range input {
		if !f.Step(r) {
			return false
		}
	}
	return f.IsAccepting()
}
`))

// GenerateGo returns gofmt-ed Go source for a valid automaton: a state
// type with one constant per state and a runner with Step, IsAccepting,
// Reset and Match.
func GenerateGo(snap dfa.Snapshot, opts GoOptions) ([]byte, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	for _, sym := range snap.Alphabet {
		if utf8.RuneCountInString(sym.Char) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrSymbolNotRune, sym.Char)
		}
	}

	m := goModel{
		Source:  opts.Name,
		Package: packageName(opts.Package, opts.Name),
		Type:    opts.Type,
	}
	if m.Source == "" {
		m.Source = "an unnamed automaton"
	}
	if m.Type == "" {
		m.Type = toPascalCase(opts.Name)
	}
	if m.Type == "" {
		m.Type = "DFA"
	}
	m.Lower = lowerFirst(m.Type)

	consts := stateConsts(snap, m.Type+"State")
	m.Initial = consts[snap.Initial]
	for _, s := range snap.States {
		gs := goState{Const: consts[s.ID], Name: snap.StateName(s.ID)}
		for _, sym := range snap.Alphabet {
			to, ok := snap.Next(s.ID, sym.ID)
			if !ok {
				continue
			}
			r, _ := utf8.DecodeRuneInString(sym.Char)
			gs.Cases = append(gs.Cases, goCase{Symbol: strconv.QuoteRune(r), To: consts[to]})
		}
		m.States = append(m.States, gs)
		if snap.Accept[s.ID] {
			m.Accepting = append(m.Accepting, consts[s.ID])
		}
	}

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, m); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: formatting generated code: %w", err)
	}
	return src, nil
}

// stateConsts names each state's constant from its name, falling back to
// its id and then its position when names collide or have no letters.
func stateConsts(snap dfa.Snapshot, prefix string) map[dfa.StateID]string {
	out := make(map[dfa.StateID]string, len(snap.States))
	taken := make(map[string]bool, len(snap.States))
	for i, s := range snap.States {
		name := ""
		for _, candidate := range []string{toPascalCase(s.Name), toPascalCase(string(s.ID)), strconv.Itoa(i)} {
			if candidate != "" && !taken[candidate] {
				name = candidate
				break
			}
		}
		if name == "" {
			name = fmt.Sprintf("%d_%d", i, len(taken))
		}
		taken[name] = true
		out[s.ID] = prefix + name
	}
	return out
}
