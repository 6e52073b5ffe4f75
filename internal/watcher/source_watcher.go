// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"expvar"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	errorCount = expvar.NewInt("source_watcher_errors_total")
)

type watch struct {
	ps     []Processor
	mtime  time.Time // Zero when the path did not exist at the last look.
	parent string    // Directory that discovered this entry, if not observed directly.
}

// SourceWatcher implements a Watcher over the real filesystem.  Changes are
// reported by fsnotify when available, and by polling each watched path.
type SourceWatcher struct {
	watcher    *fsnotify.Watcher
	pollTicker *time.Ticker

	watchedMu sync.Mutex // protects `watched'
	watched   map[string]*watch

	stopTicks chan struct{} // Closed to stop the poll loop.

	ticksDone  chan struct{} // Closed when the poll loop has exited.
	eventsDone chan struct{} // Closed when the fsnotify loop has exited.

	closeOnce sync.Once
}

// NewSourceWatcher returns a new SourceWatcher.  A zero pollInterval disables
// the poll loop unless fsnotify is also unavailable.
func NewSourceWatcher(pollInterval time.Duration, enableFsnotify bool) (*SourceWatcher, error) {
	var f *fsnotify.Watcher
	if enableFsnotify {
		var err error
		f, err = fsnotify.NewWatcher()
		if err != nil {
			glog.Warning(err)
		}
	}
	if f == nil && pollInterval == 0 {
		glog.Infof("fsnotify disabled and no poll interval specified; defaulting to 250ms poll")
		pollInterval = time.Millisecond * 250
	}
	w := &SourceWatcher{
		watcher: f,
		watched: make(map[string]*watch),
	}
	if pollInterval > 0 {
		w.pollTicker = time.NewTicker(pollInterval)
		w.stopTicks = make(chan struct{})
		w.ticksDone = make(chan struct{})
		go w.runTicks()
	}
	if f != nil {
		w.eventsDone = make(chan struct{})
		go w.runEvents()
	}
	return w, nil
}

func (w *SourceWatcher) runTicks() {
	defer close(w.ticksDone)
	for {
		select {
		case <-w.pollTicker.C:
			w.Poll()
		case <-w.stopTicks:
			w.pollTicker.Stop()
			return
		}
	}
}

// Poll checks every watched path for changes and sends events for them.
func (w *SourceWatcher) Poll() {
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	for name, wt := range w.watched {
		if wt.parent != "" {
			continue
		}
		w.pollLocked(name, wt)
	}
}

// pollLocked polls one directly observed path.  w.watchedMu must be held.
func (w *SourceWatcher) pollLocked(name string, wt *watch) {
	fi, err := os.Stat(name)
	if err != nil {
		if !os.IsNotExist(err) {
			glog.V(1).Info(err)
			return
		}
		if !wt.mtime.IsZero() {
			glog.V(2).Infof("sending delete for %s", name)
			sendEvent(wt.ps, Event{Delete, name})
			wt.mtime = time.Time{}
		}
		return
	}
	if fi.IsDir() {
		w.pollDirectoryLocked(name, wt)
		return
	}
	switch {
	case wt.mtime.IsZero():
		glog.V(2).Infof("sending create for %s", name)
		sendEvent(wt.ps, Event{Create, name})
	case fi.ModTime().After(wt.mtime):
		glog.V(2).Infof("sending update for %s", name)
		sendEvent(wt.ps, Event{Update, name})
	}
	wt.mtime = fi.ModTime()
}

func (w *SourceWatcher) pollDirectoryLocked(dir string, dw *watch) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		glog.V(1).Info(err)
		return
	}
	present := make(map[string]bool, len(matches))
	for _, match := range matches {
		fi, err := os.Stat(match)
		if err != nil || fi.IsDir() {
			continue
		}
		present[match] = true
		child, ok := w.watched[match]
		switch {
		case !ok:
			glog.V(2).Infof("sending create for %s", match)
			sendEvent(dw.ps, Event{Create, match})
			w.watched[match] = &watch{ps: dw.ps, mtime: fi.ModTime(), parent: dir}
		case fi.ModTime().After(child.mtime):
			glog.V(2).Infof("sending update for %s", match)
			sendEvent(dw.ps, Event{Update, match})
			child.mtime = fi.ModTime()
		}
	}
	for name, child := range w.watched {
		if child.parent == dir && !present[name] {
			glog.V(2).Infof("sending delete for %s", name)
			sendEvent(dw.ps, Event{Delete, name})
			delete(w.watched, name)
		}
	}
}

func sendEvent(ps []Processor, e Event) {
	for _, p := range ps {
		p.ProcessFileEvent(context.TODO(), e)
	}
}

// dispatch routes an fsnotify event to the processors watching the path or
// its directory.
func (w *SourceWatcher) dispatch(e Event) {
	w.watchedMu.Lock()
	wt, ok := w.watched[e.Pathname]
	if !ok {
		wt, ok = w.watched[filepath.Dir(e.Pathname)]
	}
	var ps []Processor
	if ok {
		ps = wt.ps
	}
	w.watchedMu.Unlock()
	if !ok {
		glog.V(2).Infof("No watch for path %q", e.Pathname)
		return
	}
	sendEvent(ps, e)
}

// runEvents assumes that w.watcher is not nil
func (w *SourceWatcher) runEvents() {
	defer close(w.eventsDone)

	go func() {
		for err := range w.watcher.Errors {
			errorCount.Add(1)
			glog.Errorf("fsnotify error: %s", err)
		}
	}()

	for e := range w.watcher.Events {
		glog.V(2).Infof("watcher event %v", e)
		switch {
		case e.Op&fsnotify.Create == fsnotify.Create:
			w.dispatch(Event{Create, e.Name})
		case e.Op&fsnotify.Write == fsnotify.Write,
			e.Op&fsnotify.Chmod == fsnotify.Chmod:
			w.dispatch(Event{Update, e.Name})
		case e.Op&fsnotify.Remove == fsnotify.Remove,
			e.Op&fsnotify.Rename == fsnotify.Rename:
			// The new name of a rename receives its own Create.
			w.dispatch(Event{Delete, e.Name})
		default:
			glog.V(1).Infof("ignoring fsnotify op %v", e.Op)
		}
	}
	glog.Infof("Shutting down source watcher.")
}

// Close shuts down the SourceWatcher.  It is safe to call this from multiple clients.
func (w *SourceWatcher) Close() (err error) {
	w.closeOnce.Do(func() {
		if w.watcher != nil {
			err = w.watcher.Close()
			<-w.eventsDone
		}
		if w.pollTicker != nil {
			close(w.stopTicks)
			<-w.ticksDone
		}
	})
	return err
}

// Observe adds a file or directory to the watch list.  Events for the path,
// or for files directly inside it, are sent to processor.  The current state
// of the path is the baseline, so nothing already present is reported.
func (w *SourceWatcher) Observe(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolute path of %q", path)
	}
	if w.watcher != nil {
		if err := w.watcher.Add(absPath); err != nil {
			if !os.IsPermission(err) {
				return errors.Wrapf(err, "Failed to create a new watch on %q", absPath)
			}
			glog.V(2).Infof("Skipping permission denied error on adding a watch.")
		}
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	wt, ok := w.watched[absPath]
	if !ok || wt.parent != "" {
		wt = &watch{}
		w.watched[absPath] = wt
		w.baselineLocked(absPath, wt)
	}
	for _, p := range wt.ps {
		if p == processor {
			return nil
		}
	}
	wt.ps = append(wt.ps, processor)
	for _, child := range w.watched {
		if child.parent == absPath {
			child.ps = wt.ps
		}
	}
	glog.V(1).Infof("Observing %s", absPath)
	return nil
}

func (w *SourceWatcher) baselineLocked(path string, wt *watch) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	wt.mtime = fi.ModTime()
	if !fi.IsDir() {
		return
	}
	matches, err := filepath.Glob(filepath.Join(path, "*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		if fi, err := os.Stat(match); err == nil && !fi.IsDir() {
			if _, ok := w.watched[match]; !ok {
				w.watched[match] = &watch{mtime: fi.ModTime(), parent: path}
			}
		}
	}
}

// Unobserve removes processor from the path's watch list.  The path is no
// longer watched once it has no processors.
func (w *SourceWatcher) Unobserve(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolute path of %q", path)
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	wt, ok := w.watched[absPath]
	if !ok {
		return nil
	}
	for i, p := range wt.ps {
		if p == processor {
			wt.ps = append(wt.ps[:i:i], wt.ps[i+1:]...)
			break
		}
	}
	for _, child := range w.watched {
		if child.parent == absPath {
			child.ps = wt.ps
		}
	}
	if len(wt.ps) > 0 {
		return nil
	}
	delete(w.watched, absPath)
	for name, child := range w.watched {
		if child.parent == absPath {
			delete(w.watched, name)
		}
	}
	if w.watcher != nil {
		if err := w.watcher.Remove(absPath); err != nil {
			glog.V(1).Infof("Removing watch on %s: %s", absPath, err)
		}
	}
	return nil
}

// IsWatching indicates if the path was observed, directly or through its
// directory.
func (w *SourceWatcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.watchedMu.Lock()
	_, ok := w.watched[absPath]
	w.watchedMu.Unlock()
	return ok
}
