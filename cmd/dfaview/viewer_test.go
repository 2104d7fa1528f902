package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/dfafile"
	"github.com/ha1tch/dfaviz/pkg/geometry"
)

const evenZeros = `name: even-zeros
states:
  - {id: q0, name: even}
  - {id: q1, name: odd}
alphabet: ["0", "1"]
initial: q0
accept: [q0]
transitions:
  - {from: q0, input: "0", to: q1}
  - {from: q0, input: "1", to: q0}
  - {from: q1, input: "0", to: q0}
  - {from: q1, input: "1", to: q1}
input: "0110"
`

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(w, h)
	return s
}

func newTestViewer(t *testing.T, body string) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := newSimScreen(t, 60, 20)
	path := filepath.Join(t.TempDir(), "even.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	doc, err := dfafile.Load(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.StepDelay = time.Millisecond
	cfg.Debounce = 10 * time.Millisecond
	v, err := NewViewer(screen, path, doc, cfg, nil)
	require.NoError(t, err)
	return v, screen
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		sb.WriteRune(r)
	}
	return sb.String()
}

// awaitStatus runs frames until the status changes from what it was.
func awaitStatus(t *testing.T, v *Viewer) string {
	t.Helper()
	v.status = ""
	require.Eventually(t, func() bool {
		v.renderer.Frame()
		return v.status != ""
	}, 2*time.Second, 5*time.Millisecond)
	return v.status
}

func TestCanvasSize(t *testing.T) {
	w, h := canvasSize(80, 25)
	assert.Equal(t, 80, w)
	assert.Equal(t, 46, h)

	w, h = canvasSize(0, 1)
	assert.Equal(t, 1, w)
	assert.Equal(t, 2, h)
}

func TestBlit(t *testing.T) {
	s := newSimScreen(t, 4, 4)
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.SetRGBA(0, 0, color.RGBA{0xff, 0, 0, 0xff})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 0xff, 0xff})
	img.SetRGBA(1, 2, color.RGBA{0, 0xff, 0, 0xff})
	blit(s, img)

	r, _, style, _ := s.GetContent(0, 0)
	assert.Equal(t, '▀', r)
	fg, bg, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0xff, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0xff), bg)

	// An odd last row repeats its pixel in both halves.
	_, _, style, _ = s.GetContent(1, 1)
	fg, bg, _ = style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 0xff, 0), fg)
	assert.Equal(t, fg, bg)
}

func TestMarkInput(t *testing.T) {
	tests := []struct {
		input string
		index int
		want  string
	}{
		{"", -1, "(empty)"},
		{"0110", -1, "0110"},
		{"0110", 0, "[0]110"},
		{"0110", 2, "01[1]0"},
		{"0110", 3, "011[0]"},
	}
	for _, tt := range tests {
		got := markInput(dfa.Snapshot{Input: tt.input, CurrentIndex: tt.index})
		assert.Equal(t, tt.want, got, "%q at %d", tt.input, tt.index)
	}
}

func TestPresent(t *testing.T) {
	v, screen := newTestViewer(t, evenZeros)
	v.setStatus("hello", false)
	v.renderer.Frame()
	v.present(v.renderer.Image())

	r, _, _, _ := screen.GetContent(0, 0)
	assert.Equal(t, '▀', r)
	assert.Contains(t, row(screen, 18), "Space:Step")
	status := row(screen, 19)
	assert.Contains(t, status, "even.yaml  state: even  input: 0110")
	assert.Contains(t, status, "hello")
}

func TestStepLoop(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.stepLoop(ctx) }()

	want := []string{
		"even --0--> odd",
		"odd --1--> odd",
		"odd --1--> odd",
		"odd --0--> even, accepted in even",
		"restarted, even --0--> odd",
	}
	for _, w := range want {
		v.requestStep()
		assert.Equal(t, w, awaitStatus(t, v))
	}
	assert.False(t, v.statusErr)

	cancel()
	assert.NoError(t, <-done)
}

func TestStepLoopReportsInvalid(t *testing.T) {
	v, _ := newTestViewer(t, strings.Replace(evenZeros, "accept: [q0]\n", "", 1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.stepLoop(ctx)

	v.requestStep()
	assert.Contains(t, awaitStatus(t, v), "Define at least one accept state")
	assert.True(t, v.statusErr)
}

func TestStepLoopRejects(t *testing.T) {
	v, _ := newTestViewer(t, strings.Replace(evenZeros, `input: "0110"`, `input: "0"`, 1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.stepLoop(ctx)

	v.requestStep()
	assert.Equal(t, "even --0--> odd, rejected in odd", awaitStatus(t, v))
	assert.True(t, v.statusErr)
	v.requestStep()
	assert.Equal(t, "restarted, even --0--> odd, rejected in odd", awaitStatus(t, v))
	assert.True(t, v.statusErr)
}

func TestStepLoopEmptyInput(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	v.setInput("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.stepLoop(ctx)

	v.requestStep()
	assert.Equal(t, "accepted in even", awaitStatus(t, v))
	assert.False(t, v.statusErr)
}

func TestEditInput(t *testing.T) {
	v, screen := newTestViewer(t, evenZeros)
	key := func(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }
	special := func(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

	assert.False(t, v.handleKey(key('i')))
	v.renderer.Frame()
	assert.Equal(t, "input: 0110_", v.prompt)

	assert.False(t, v.handleKey(special(tcell.KeyBackspace2)))
	assert.False(t, v.handleKey(key('1')))
	assert.False(t, v.handleKey(key('q')), "q is text while editing")
	v.renderer.Frame()
	assert.Equal(t, "input: 0111q_", v.prompt)
	v.present(v.renderer.Image())
	assert.Contains(t, row(screen, 19), "input: 0111q_")
	assert.Contains(t, row(screen, 19), "Esc:Cancel")

	v.handleKey(special(tcell.KeyBackspace))
	assert.False(t, v.handleKey(special(tcell.KeyEnter)))
	assert.Equal(t, `input set to "0111"`, awaitStatus(t, v))
	assert.Empty(t, v.prompt)
	assert.Empty(t, v.stepReq, "Enter applies the edit without stepping")
	d := v.current.Load()
	assert.Equal(t, "0111", d.Input())
	assert.Equal(t, -1, d.CurrentIndex())

	v.handleKey(key('i'))
	v.handleKey(key('0'))
	assert.False(t, v.handleKey(special(tcell.KeyEscape)), "Esc leaves editing without quitting")
	assert.Equal(t, "input unchanged", awaitStatus(t, v))
	assert.Equal(t, "0111", d.Input())
	assert.False(t, v.editing)
}

func TestSetInputAbandonsStep(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	v.cfg.StepDelay = 200 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.stepLoop(ctx)

	d := v.current.Load()
	v.requestStep()
	require.Eventually(t, d.InTransition, time.Second, time.Millisecond)
	v.renderer.Defer(func() { v.setInput("1") })
	v.renderer.Frame()
	assert.Equal(t, "step abandoned, automaton changed", awaitStatus(t, v))
	assert.Equal(t, "1", d.Input())
	assert.Equal(t, -1, d.CurrentIndex())
}

func TestHandleKey(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	key := func(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

	assert.True(t, v.handleKey(key('q')))
	assert.True(t, v.handleKey(key('Q')))
	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, v.handleKey(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))

	assert.False(t, v.handleKey(key(' ')))
	assert.False(t, v.handleKey(key(' ')))
	assert.Len(t, v.stepReq, 1)

	d := v.current.Load()
	_, err := d.Next()
	require.NoError(t, err)
	assert.False(t, v.handleKey(key('r')))
	assert.Equal(t, -1, d.CurrentIndex())
	assert.Equal(t, "restarted", awaitStatus(t, v))
}

func TestSaveWritesLayout(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	require.NoError(t, v.diagram.Graph().MoveNode("q1", geometry.Point{X: 250, Y: 40}))

	v.handleKey(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	assert.Equal(t, "saved even.yaml", awaitStatus(t, v))

	doc, err := dfafile.Load(v.path)
	require.NoError(t, err)
	assert.Equal(t, "even-zeros", doc.Name)
	require.NotNil(t, doc.Layout)
	assert.Equal(t, dfafile.Position{X: 250, Y: 40}, doc.Layout.Positions["q1"])
	assert.Equal(t, "0110", doc.Input)
}

func TestApplyKeepsPositions(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	require.NoError(t, v.diagram.Graph().MoveNode("q0", geometry.Point{X: 5, Y: 7}))

	same, err := dfafile.Load(v.path)
	require.NoError(t, err)
	v.status = ""
	v.apply(same)
	assert.Empty(t, v.status)

	grown := strings.Replace(evenZeros, "  - {id: q1, name: odd}\n", "  - {id: q1, name: odd}\n  - {id: q2, name: dead}\n", 1)
	require.NoError(t, os.WriteFile(v.path, []byte(grown), 0o644))
	doc, err := dfafile.Load(v.path)
	require.NoError(t, err)
	v.apply(doc)

	assert.Equal(t, "reloaded even.yaml", v.status)
	assert.Same(t, v.current.Load(), v.diagram.DFA())
	assert.Len(t, v.diagram.DFA().States(), 3)
	v.renderer.Frame()
	assert.Contains(t, v.diagram.Graph().Nodes, dfa.StateID("q2"))
	assert.Equal(t, geometry.Point{X: 5, Y: 7}, v.diagram.Graph().Positions()["q0"])
}

func TestApplyReportsErrors(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	before := v.diagram.DFA()
	doc, err := dfafile.ParseYAML([]byte(strings.Replace(evenZeros, "initial: q0", "initial: q9", 1)))
	require.NoError(t, err)

	v.apply(doc)
	assert.True(t, v.statusErr)
	assert.Contains(t, v.status, "reload:")
	assert.Same(t, before, v.diagram.DFA())
}

func TestNodeClicked(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	v.nodeClicked("q0")
	assert.Equal(t, "even (q0), 2 outgoing, initial, accepting", v.status)
	v.nodeClicked("q1")
	assert.Equal(t, "odd (q1), 2 outgoing", v.status)
}

func TestHandleMouse(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	before := v.renderer.Transform().Zoom()

	v.handleMouse(tcell.NewEventMouse(1, 1, tcell.WheelUp, tcell.ModNone))
	assert.Greater(t, v.renderer.Transform().Zoom(), before)

	v.handleMouse(tcell.NewEventMouse(1, 19, tcell.ButtonNone, tcell.ModNone))
	assert.True(t, v.overChrome)
	v.handleMouse(tcell.NewEventMouse(1, 2, tcell.ButtonNone, tcell.ModNone))
	assert.False(t, v.overChrome)
}

func TestHandleResize(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	assert.False(t, v.handleEvent(tcell.NewEventResize(40, 12)))
	v.renderer.Frame()
	w, h := v.renderer.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}

func TestWatchReloads(t *testing.T) {
	v, _ := newTestViewer(t, evenZeros)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.watch(ctx) }()

	renamed := strings.Replace(evenZeros, "name: even-zeros", "name: renamed", 1)
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(v.path, []byte(renamed), 0o644))
		time.Sleep(30 * time.Millisecond)
		v.renderer.Frame()
		return v.doc.Name == "renamed"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "reloaded even.yaml", v.status)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunQuits(t *testing.T) {
	v, screen := newTestViewer(t, evenZeros)
	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background(), true) }()

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not quit")
	}
}
