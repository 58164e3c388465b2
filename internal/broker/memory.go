package broker

import (
	"context"
	"sync"
)

// Memory is an in-process Broker for single-node deployments.
type Memory struct {
	mu   sync.Mutex
	subs map[string]map[Subscriber]struct{}
}

// NewMemory creates an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[Subscriber]struct{})}
}

// Subscribe adds sub to the channel's subscriber set.
func (m *Memory) Subscribe(_ context.Context, channel string, sub Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.subs[channel]
	if !ok {
		set = make(map[Subscriber]struct{})
		m.subs[channel] = set
	}
	set[sub] = struct{}{}
	return nil
}

// Unsubscribe removes sub from the channel's subscriber set.
func (m *Memory) Unsubscribe(_ context.Context, channel string, sub Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.subs[channel]
	if !ok {
		return nil
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(m.subs, channel)
	}
	return nil
}

// Publish delivers b to every current subscriber of the channel. Delivery
// happens outside the lock against a snapshot of the subscriber set.
func (m *Memory) Publish(_ context.Context, channel string, b Broadcast) error {
	m.mu.Lock()
	targets := make([]Subscriber, 0, len(m.subs[channel]))
	for sub := range m.subs[channel] {
		targets = append(targets, sub)
	}
	m.mu.Unlock()

	for _, sub := range targets {
		sub.Deliver(b)
	}
	return nil
}

// Close implements Broker.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[string]map[Subscriber]struct{})
	return nil
}
