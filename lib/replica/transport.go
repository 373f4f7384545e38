// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package replica

import (
	"context"
	"sync"
)

// Transport broadcasts opaque payloads to the other replicas of a
// group. The engine neither discovers peers nor retries delivery;
// the gossip layer behind this interface owns both, and anti-entropy
// re-delivery is what the CRDT merge's idempotence is for.
type Transport interface {
	Broadcast(ctx context.Context, payload []byte) error
}

// Loopback is an in-process Transport hub for tests and single-
// process demos: every payload broadcast by one endpoint is
// delivered synchronously to every other endpoint's handler.
type Loopback struct {
	mu        sync.Mutex
	endpoints []*LoopbackEndpoint
}

// NewLoopback returns an empty hub.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Endpoint adds a participant and returns its Transport. Wire the
// engine in with SetHandler.
func (l *Loopback) Endpoint() *LoopbackEndpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	endpoint := &LoopbackEndpoint{hub: l}
	l.endpoints = append(l.endpoints, endpoint)
	return endpoint
}

// LoopbackEndpoint is one participant on a Loopback hub.
type LoopbackEndpoint struct {
	hub     *Loopback
	mu      sync.Mutex
	handler func(ctx context.Context, payload []byte) error
}

// SetHandler installs the inbound delivery callback, typically
// Engine.HandleIncoming.
func (e *LoopbackEndpoint) SetHandler(handler func(ctx context.Context, payload []byte) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// Broadcast implements Transport: deliver to every other endpoint.
// The first delivery error aborts the fan-out, mirroring a transport
// that reports publish failure.
func (e *LoopbackEndpoint) Broadcast(ctx context.Context, payload []byte) error {
	e.hub.mu.Lock()
	peers := make([]*LoopbackEndpoint, 0, len(e.hub.endpoints)-1)
	for _, endpoint := range e.hub.endpoints {
		if endpoint != e {
			peers = append(peers, endpoint)
		}
	}
	e.hub.mu.Unlock()

	for _, peer := range peers {
		peer.mu.Lock()
		handler := peer.handler
		peer.mu.Unlock()
		if handler == nil {
			continue
		}
		if err := handler(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}
