package codegen

import (
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/dfaviz/pkg/dfa"
)

func evenZeros(t *testing.T) *dfa.DFA {
	t.Helper()
	d := dfa.New()
	_, err := d.AddStateWithID("q0", "even")
	require.NoError(t, err)
	_, err = d.AddStateWithID("q1", "odd")
	require.NoError(t, err)
	d.SetAlphabet([]string{"0", "1"})
	require.NoError(t, d.SetTransitionChar("q0", "0", "q1"))
	require.NoError(t, d.SetTransitionChar("q0", "1", "q0"))
	require.NoError(t, d.SetTransitionChar("q1", "0", "q0"))
	require.NoError(t, d.SetTransitionChar("q1", "1", "q1"))
	require.NoError(t, d.SetInitial("q0"))
	require.NoError(t, d.SetAccept("q0", true))
	return d
}

func TestGenerateGo(t *testing.T) {
	src, err := GenerateGo(evenZeros(t).Snapshot(), GoOptions{Name: "even-zeros"})
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), "even.go", src, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "evenzeros", f.Name.Name)

	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(src))

	code := string(src)
	for _, want := range []string{
		"// Code generated by dfaviz from even-zeros. DO NOT EDIT.",
		"EvenZerosStateEven EvenZerosState = iota",
		"var evenZerosStateNames = [...]string{",
		"func NewEvenZeros() *EvenZeros {",
		"\tcase EvenZerosStateOdd:\n\t\tswitch symbol {\n\t\tcase '0':\n\t\t\tf.state = EvenZerosStateEven",
		"\tcase EvenZerosStateEven:\n\t\treturn true",
		"func (f *EvenZeros) Match(input string) bool {",
	} {
		assert.Contains(t, code, want)
	}
}

func TestGenerateGoOptions(t *testing.T) {
	src, err := GenerateGo(evenZeros(t).Snapshot(), GoOptions{Package: "parity", Type: "Parity"})
	require.NoError(t, err)
	code := string(src)
	assert.Contains(t, code, "package parity")
	assert.Contains(t, code, "from an unnamed automaton")
	assert.Contains(t, code, "ParityStateOdd")
}

func TestGenerateGoRejects(t *testing.T) {
	d := evenZeros(t)
	require.NoError(t, d.SetAccept("q0", false))
	_, err := GenerateGo(d.Snapshot(), GoOptions{})
	var verr *dfa.ValidationError
	assert.ErrorAs(t, err, &verr)

	d = evenZeros(t)
	d.SetAlphabet([]string{"0", "10"})
	require.NoError(t, d.SetTransitionChar("q0", "10", "q0"))
	require.NoError(t, d.SetTransitionChar("q1", "10", "q1"))
	_, err = GenerateGo(d.Snapshot(), GoOptions{})
	assert.ErrorIs(t, err, ErrSymbolNotRune)
}

func TestStateConstsAvoidCollisions(t *testing.T) {
	snap := dfa.Snapshot{States: []dfa.State{
		{ID: "a", Name: "start state"},
		{ID: "b", Name: "start-state"},
		{ID: "StartState", Name: "start_state"},
		{ID: "+", Name: "*"},
	}}
	got := stateConsts(snap, "S")
	assert.Equal(t, map[dfa.StateID]string{
		"a":          "SStartState",
		"b":          "SB",
		"StartState": "S2",
		"+":          "S3",
	}, got)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "EvenZeros", toPascalCase("even-zeros"))
	assert.Equal(t, "Q0", toPascalCase("q0"))
	assert.Equal(t, "", toPascalCase("+-*"))
	assert.Equal(t, "evenZeros", lowerFirst("EvenZeros"))
	assert.Equal(t, "evenzeros", packageName("", "Even Zeros"))
	assert.Equal(t, "v2", packageName("2v2", ""))
	assert.Equal(t, "automaton", packageName("", "123"))
}
