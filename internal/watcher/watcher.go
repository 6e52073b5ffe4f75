// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package watcher notifies processors when watched source files or
// directories change.
package watcher

import "context"

type OpType int

const (
	_ OpType = iota
	Create
	Update
	Delete
)

var opNames = map[OpType]string{
	Create: "create",
	Update: "update",
	Delete: "delete",
}

func (o OpType) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Event is a change to a watched path, or to a file inside a watched directory.
type Event struct {
	Op       OpType
	Pathname string
}

// Watcher describes an interface for filesystem watching.
type Watcher interface {
	Observe(name string, processor Processor) error
	Unobserve(name string, processor Processor) error
	Poll()
	Close() error
}

// Processor describes an interface for receiving watcher.Events
type Processor interface {
	ProcessFileEvent(context.Context, Event)
}
