package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const (
	clearScreen   = "\x1b[H\x1b[2J"
	debounceDelay = 100 * time.Millisecond
)

// watch renders inputs, then clears the screen and renders them again
// whenever one of them changes, until interrupted. Directories are
// watched rather than files so that editors replacing a file on save
// are noticed.
func (r *renderer) watch(ctx context.Context, w io.Writer, inputs []string) error {
	watched := make(map[string]bool)
	for _, input := range inputs {
		if isURL(input) {
			return errors.Errorf("--watch only applies to files, not %s", input)
		}
		abs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		watched[abs] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer fsw.Close()
	dirs := make(map[string]bool)
	for path := range watched {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return errors.Wrapf(err, "watching %s", dir)
		}
		dirs[dir] = true
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := r.app.component("watch")

	rebuild := func() {
		io.WriteString(w, clearScreen)
		if err := r.renderAll(ctx, w, inputs); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
	rebuild()

	timer := time.NewTimer(debounceDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				log.WithField("path", event.Name).Debug("change detected")
				timer.Reset(debounceDelay)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case <-timer.C:
			rebuild()
		}
	}
}
