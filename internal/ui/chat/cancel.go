// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// cancelManager holds the cancel function for the in-flight request.
//
// It is held by pointer on the Model: Bubble Tea copies models on every
// Update, and copying a struct that embeds a sync.Mutex is a vet error.
// Sharing one manager across copies also means esc pressed on a newer
// model copy still cancels the request started by an older one.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for the current request, cancelling
// any previous one first.
func (c *cancelManager) set(fn context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = fn
}

// fire cancels the in-flight request, if any. Returns whether a
// request was actually cancelled.
func (c *cancelManager) fire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

// clear drops the cancel function without invoking it. Called when the
// stream finishes on its own.
func (c *cancelManager) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
}
