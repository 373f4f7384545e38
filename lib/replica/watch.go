// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package replica

// Watch returns a channel that receives a signal after every state
// change, local or remote. The channel is buffered one deep and
// notifications coalesce: a burst of changes while the consumer is
// busy collapses into a single pending signal, and the snapshot read
// after draining it reflects all of them. Callers must not close the
// channel; hand it back with Unwatch.
func (e *Engine) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	e.watchMu.Lock()
	e.watchers[ch] = struct{}{}
	e.watchMu.Unlock()
	return ch
}

// Unwatch deregisters a channel returned by Watch and closes it.
func (e *Engine) Unwatch(ch <-chan struct{}) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	for registered := range e.watchers {
		if registered == ch {
			delete(e.watchers, registered)
			close(registered)
			return
		}
	}
}

// notify signals every watcher. Non-blocking sends onto the buffered
// channels give the coalescing behavior: a watcher with a signal
// already pending needs no second one.
func (e *Engine) notify() {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	for ch := range e.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
