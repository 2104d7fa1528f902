package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/dfafile"
	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/graph"
	"github.com/ha1tch/dfaviz/pkg/render"
)

// Viewer shows one document in the terminal and steps it on request.
//
// The renderer's goroutine owns the diagram, doc and the status fields.
// Other goroutines reach them through renderer.Defer.
type Viewer struct {
	screen   tcell.Screen
	renderer *render.Renderer
	canvas   *render.ImageCanvas
	diagram  *graph.Diagram
	doc      *dfafile.Document
	current  atomic.Pointer[dfa.DFA]
	path     string
	cfg      Config
	logger   *slog.Logger

	status    string
	statusErr bool
	// prompt replaces the status line while the input is being edited.
	prompt string

	// Owned by the event goroutine.
	editing bool
	edit    []rune

	stepReq    chan struct{}
	mouse      mouseTracker
	overChrome bool
}

// NewViewer lays out doc on a renderer sized to the screen.
func NewViewer(screen tcell.Screen, path string, doc *dfafile.Document, cfg Config, logger *slog.Logger) (*Viewer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, h := screen.Size()
	cw, ch := canvasSize(w, h)
	r := render.NewRenderer(cw, ch,
		render.WithHitTestMode(cfg.hitTestMode()),
		render.WithFitZoom(cfg.FitZoom),
		render.WithLogger(logger),
	)
	canvas := render.NewImageCanvas(geometry.Point{})
	if err := r.SetCanvas(canvas); err != nil {
		return nil, err
	}

	d, g, err := doc.Open(logger, r.Transform())
	if err != nil {
		return nil, err
	}
	v := &Viewer{
		screen:   screen,
		renderer: r,
		canvas:   canvas,
		doc:      doc,
		path:     path,
		cfg:      cfg,
		logger:   logger,
		stepReq:  make(chan struct{}, 1),
	}
	v.current.Store(d)
	v.diagram = graph.NewDiagram(r, d,
		graph.WithGraph(g),
		graph.WithLogger(logger),
		graph.WithNodeClick(v.nodeClicked),
	)
	v.diagram.Attach()
	if doc.Layout == nil {
		_ = v.diagram.Sync()
		r.FitContentToView(nil)
	}
	return v, nil
}

// Run shows the viewer until the user quits or ctx ends.
func (v *Viewer) Run(ctx context.Context, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Mouse events reach the canvas from the PollEvent goroutine.
	v.renderer.QueueEvents()
	g.Go(func() error {
		err := v.renderer.Run(ctx, render.RunConfig{FPS: float64(v.cfg.FPS), Present: v.present})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		for {
			ev := v.screen.PollEvent()
			if ev == nil || ctx.Err() != nil {
				return nil
			}
			if v.handleEvent(ev) {
				cancel()
				return nil
			}
		}
	})
	g.Go(func() error { return v.stepLoop(ctx) })
	g.Go(func() error {
		// Wake PollEvent so the event goroutine sees the cancellation.
		<-ctx.Done()
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})
	if watch {
		g.Go(func() error { return v.watch(ctx) })
	}
	return g.Wait()
}

func (v *Viewer) present(img *image.RGBA) {
	blit(v.screen, img)
	if v.prompt != "" {
		drawChrome(v.screen, v.prompt, "Enter:Apply  Esc:Cancel", false)
	} else {
		drawChrome(v.screen, statusLine(v.path, v.diagram.DFA().Snapshot()), v.status, v.statusErr)
	}
	v.screen.Show()
}

// setStatus must run on the renderer goroutine.
func (v *Viewer) setStatus(msg string, isErr bool) {
	v.status, v.statusErr = msg, isErr
	if isErr {
		v.logger.Warn(msg)
	} else {
		v.logger.Info(msg)
	}
}

// report sets the status from any goroutine.
func (v *Viewer) report(msg string, isErr bool) {
	v.renderer.Defer(func() { v.setStatus(msg, isErr) })
}

func (v *Viewer) handleEvent(ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		cw, ch := canvasSize(w, h)
		v.renderer.Defer(func() {
			if err := v.renderer.SetSize(cw, ch); err != nil {
				v.setStatus(err.Error(), true)
			}
		})
		v.screen.Sync()
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventInterrupt:
	}
	return false
}

func (v *Viewer) handleKey(ev *tcell.EventKey) (quit bool) {
	if v.editing {
		return v.editKey(ev)
	}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRight, tcell.KeyEnter:
		v.requestStep()
	case tcell.KeyRune:
		switch unicode.ToLower(ev.Rune()) {
		case 'q':
			return true
		case ' ':
			v.requestStep()
		case 'r':
			v.current.Load().Start()
			v.report("restarted", false)
		case 'i':
			v.editing = true
			v.edit = []rune(v.current.Load().Input())
			v.showPrompt()
		case 'f':
			v.renderer.Defer(func() { v.renderer.FitContentToView(nil) })
		case 's':
			v.renderer.Defer(v.save)
		}
	}
	return false
}

// editKey edits the pending input. Enter applies it, Esc drops it.
func (v *Viewer) editKey(ev *tcell.EventKey) (quit bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		v.editing = false
		v.renderer.Defer(func() {
			v.prompt = ""
			v.setStatus("input unchanged", false)
		})
	case tcell.KeyEnter:
		v.editing = false
		in := string(v.edit)
		v.renderer.Defer(func() {
			v.prompt = ""
			v.setInput(in)
		})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.edit); n > 0 {
			v.edit = v.edit[:n-1]
		}
		v.showPrompt()
	case tcell.KeyRune:
		v.edit = append(v.edit, ev.Rune())
		v.showPrompt()
	}
	return false
}

func (v *Viewer) showPrompt() {
	p := "input: " + string(v.edit) + "_"
	v.renderer.Defer(func() { v.prompt = p })
}

// setInput replaces the input and rewinds. It must run on the renderer
// goroutine.
func (v *Viewer) setInput(in string) {
	v.current.Load().SetInput(in)
	v.setStatus(fmt.Sprintf("input set to %q", in), false)
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	_, h := v.screen.Size()
	if y >= h-chromeRows {
		if !v.overChrome {
			v.overChrome = true
			v.canvas.Dispatch(v.mouse.leave())
		}
		return
	}
	v.overChrome = false
	for _, e := range v.mouse.translate(x, y, ev.Buttons(), ev.When()) {
		v.canvas.Dispatch(e)
	}
}

// requestStep queues one step. Requests made while a step is queued are
// dropped.
func (v *Viewer) requestStep() {
	select {
	case v.stepReq <- struct{}{}:
	default:
	}
}

func (v *Viewer) stepLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.stepReq:
		}
		d := v.current.Load()
		if err := d.Validate(); err != nil {
			var verr *dfa.ValidationError
			if errors.As(err, &verr) {
				v.report(verr.Message(), true)
			} else {
				v.report(err.Error(), true)
			}
			continue
		}

		// Stepping past the end replays the input from the start.
		restarted := d.IsEnd()
		if restarted {
			d.Start()
		}
		a, err := d.Step(ctx, v.cfg.StepDelay)
		switch {
		case errors.Is(err, dfa.ErrEndOfInput):
			v.report(verdict(d), !d.IsInputValid())
		case errors.Is(err, dfa.ErrStaleStep):
			v.report("step abandoned, automaton changed", false)
		case ctx.Err() != nil:
			return nil
		case err != nil:
			v.report(err.Error(), true)
		default:
			snap := d.Snapshot()
			msg := fmt.Sprintf("%s --%s--> %s", snap.StateName(a.From), a.Symbol, snap.StateName(a.To))
			if restarted {
				msg = "restarted, " + msg
			}
			end := d.IsEnd()
			if end {
				msg += ", " + verdict(d)
			}
			v.report(msg, end && !d.IsInputValid())
		}
	}
}

func verdict(d *dfa.DFA) string {
	name := d.Snapshot().StateName(d.CurrentState())
	if d.IsInputValid() {
		return "accepted in " + name
	}
	return "rejected in " + name
}

func (v *Viewer) nodeClicked(id dfa.StateID) {
	snap := v.diagram.DFA().Snapshot()
	msg := fmt.Sprintf("%s (%s), %d outgoing", snap.StateName(id), id, len(snap.Transitions[id]))
	switch {
	case snap.Initial == id && snap.Accept[id]:
		msg += ", initial, accepting"
	case snap.Initial == id:
		msg += ", initial"
	case snap.Accept[id]:
		msg += ", accepting"
	}
	v.setStatus(msg, false)
}

// save writes the automaton back with the current layout and view.
func (v *Viewer) save() {
	doc := dfafile.FromSnapshot(v.diagram.DFA().Snapshot())
	doc.Name, doc.Description = v.doc.Name, v.doc.Description
	doc.SetLayout(v.diagram.Graph(), v.renderer.Transform())
	if err := dfafile.Save(v.path, doc); err != nil {
		v.setStatus(fmt.Sprintf("save: %v", err), true)
		return
	}
	v.doc = doc
	v.setStatus("saved "+filepath.Base(v.path), false)
}

// apply swaps in a reloaded document. Without a saved layout the current
// node positions are kept. It must run on the renderer goroutine.
func (v *Viewer) apply(doc *dfafile.Document) {
	if reflect.DeepEqual(doc, v.doc) {
		return
	}
	d, g, err := doc.Open(v.logger, v.renderer.Transform())
	if err != nil {
		v.setStatus(fmt.Sprintf("reload: %v", err), true)
		return
	}
	if doc.Layout == nil {
		g.SetPositions(v.diagram.Graph().Positions())
	}
	v.diagram.Reset(d, g)
	v.current.Store(d)
	v.doc = doc
	v.setStatus("reloaded "+filepath.Base(v.path), false)
}

// statusLine describes the file, the current state and the input with the
// symbol under the cursor bracketed.
func statusLine(path string, snap dfa.Snapshot) string {
	state := snap.StateName(snap.CurrentState)
	if snap.InTransition {
		if sym, ok := snap.CurrentSymbol(); ok {
			state += " on " + sym
		}
	}
	return fmt.Sprintf("%s  state: %s  input: %s", filepath.Base(path), state, markInput(snap))
}

func markInput(snap dfa.Snapshot) string {
	r := []rune(snap.Input)
	if len(r) == 0 {
		return "(empty)"
	}
	i := snap.CurrentIndex
	if i < 0 || i >= len(r) {
		return string(r)
	}
	return string(r[:i]) + "[" + string(r[i]) + "]" + string(r[i+1:])
}
