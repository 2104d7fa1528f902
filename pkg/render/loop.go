package render

import (
	"context"
	"image"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFPS paces Run when RunConfig.FPS is zero.
const DefaultFPS = 24

// RunConfig configures the frame loop.
type RunConfig struct {
	FPS float64
	// Present is called with the visible surface after every frame.
	Present func(img *image.RGBA)
}

// Post hands a host event to the renderer. While Run is active, or after
// QueueEvents, the event is queued for the loop goroutine; otherwise it is
// handled immediately.
func (r *Renderer) Post(ev Event) {
	if !r.queueing.Load() {
		r.HandleEvent(ev)
		return
	}
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("event queue full, dropping event", "type", ev.Type.String())
	}
}

// QueueEvents makes Post queue from now on, even before Run starts. Hosts
// that dispatch from their own goroutine call it before starting that
// goroutine and Run.
func (r *Renderer) QueueEvents() { r.queueing.Store(true) }

// Defer schedules fn to run at the start of the next frame. It is safe to
// call from any goroutine.
func (r *Renderer) Defer(fn func()) {
	r.mu.Lock()
	r.deferred = append(r.deferred, fn)
	r.mu.Unlock()
}

// OnFrame registers fn to run on every frame, after deferred work and
// before drawing.
func (r *Renderer) OnFrame(fn func()) {
	r.mu.Lock()
	r.frameHooks = append(r.frameHooks, fn)
	r.mu.Unlock()
}

// Frame runs one tick: queued events, deferred work, frame hooks, then
// Draw.
func (r *Renderer) Frame() {
	r.drainEvents()
	r.mu.Lock()
	fns := r.deferred
	r.deferred = nil
	hooks := append([]func(){}, r.frameHooks...)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	for _, h := range hooks {
		h()
	}
	r.Draw()
}

func (r *Renderer) drainEvents() {
	for {
		select {
		case ev := <-r.events:
			r.HandleEvent(ev)
		default:
			return
		}
	}
}

// Run drives frames until ctx is done, handling posted events between
// ticks. It returns ctx.Err().
func (r *Renderer) Run(ctx context.Context, cfg RunConfig) error {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	lim := rate.NewLimiter(rate.Limit(fps), 1)

	prev := r.queueing.Swap(true)
	defer r.queueing.Store(prev)
	r.logger.Debug("frame loop started", "fps", fps)

	for {
		res := lim.Reserve()
		timer := time.NewTimer(res.Delay())
	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				res.Cancel()
				return ctx.Err()
			case ev := <-r.events:
				r.HandleEvent(ev)
			case <-timer.C:
				break wait
			}
		}

		r.Frame()
		if cfg.Present != nil {
			if img := r.Image(); img != nil {
				cfg.Present(img)
			}
		}
	}
}
