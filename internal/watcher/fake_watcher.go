// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/golang/glog"
)

// FakeWatcher implements an in-memory Watcher for tests; events are injected
// rather than observed.
type FakeWatcher struct {
	mu      sync.Mutex
	watches map[string][]Processor
	closed  bool
}

// NewFakeWatcher returns a fake Watcher for use in tests.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{watches: make(map[string][]Processor)}
}

func (w *FakeWatcher) Observe(name string, p Processor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, q := range w.watches[name] {
		if q == p {
			return nil
		}
	}
	w.watches[name] = append(w.watches[name], p)
	return nil
}

// Unobserve removes an observer.  If it's the last observer for a name, the
// name is no longer watched.
func (w *FakeWatcher) Unobserve(name string, p Processor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ps := w.watches[name]
	for i, q := range ps {
		if q == p {
			ps = append(ps[:i:i], ps[i+1:]...)
			break
		}
	}
	if len(ps) == 0 {
		delete(w.watches, name)
	} else {
		w.watches[name] = ps
	}
	return nil
}

// Inject delivers an event to the processors observing its path, or the
// path's directory.
func (w *FakeWatcher) Inject(e Event) {
	w.mu.Lock()
	ps, ok := w.watches[e.Pathname]
	if !ok {
		ps, ok = w.watches[filepath.Dir(e.Pathname)]
	}
	w.mu.Unlock()
	if !ok {
		glog.Warningf("not watching %s", e.Pathname)
		return
	}
	for _, p := range ps {
		p.ProcessFileEvent(context.Background(), e)
	}
}

// Closed reports whether Close has been called.
func (w *FakeWatcher) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *FakeWatcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Poll does nothing in the fake watcher.
func (w *FakeWatcher) Poll() {
}
