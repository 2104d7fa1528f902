package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ha1tch/dfaviz/pkg/dfafile"
)

// watch reloads the document when it changes on disk. The directory is
// watched because many editors save by replacing the file.
func (v *Viewer) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	name := filepath.Clean(v.path)
	if err := w.Add(filepath.Dir(name)); err != nil {
		return fmt.Errorf("watch %s: %w", name, err)
	}
	v.logger.Debug("watching", "path", name)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(v.cfg.Debounce)
			} else {
				timer.Reset(v.cfg.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			v.logger.Warn("watch", "err", err)
		case <-fire:
			fire = nil
			v.reload()
		}
	}
}

func (v *Viewer) reload() {
	doc, err := dfafile.Load(v.path)
	if err != nil {
		v.report(fmt.Sprintf("reload: %v", err), true)
		return
	}
	v.renderer.Defer(func() { v.apply(doc) })
}
