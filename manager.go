/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"sort"
	"sync"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/errors"
)

// Manager shares one client between DAOs. It hands out one DAO per
// database/container pair and keeps pre-built DAOs registered under a key.
type Manager struct {
	client datastore.Client
	opts   []Option

	mu         sync.RWMutex
	containers map[string]*DAO
	registered map[string]*DAO
}

// NewManager creates a manager. opts are applied to every DAO it creates.
func NewManager(client datastore.Client, opts ...Option) *Manager {
	return &Manager{
		client:     client,
		opts:       opts,
		containers: make(map[string]*DAO),
		registered: make(map[string]*DAO),
	}
}

// Client returns the shared client.
func (m *Manager) Client() datastore.Client {
	return m.client
}

// DAO returns the DAO for a database/container pair, creating it on first use.
func (m *Manager) DAO(databaseID, containerID string, opts ...Option) *DAO {
	key := databaseID + "/" + containerID

	m.mu.RLock()
	d, ok := m.containers[key]
	m.mu.RUnlock()
	if ok {
		return d
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.containers[key]; ok {
		return d
	}
	all := append(append([]Option{}, m.opts...), opts...)
	d = NewWithClient(m.client, databaseID, containerID, all...)
	m.containers[key] = d
	return d
}

// Register stores a pre-built DAO under key.
func (m *Manager) Register(key string, d *DAO) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.registered[key]; exists {
		return errors.NewAlreadyExistsError("dao", key)
	}
	m.registered[key] = d
	return nil
}

// Lookup returns the DAO registered under key.
func (m *Manager) Lookup(key string) (*DAO, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, exists := m.registered[key]
	if !exists {
		return nil, errors.NewNotFoundError("dao", key)
	}
	return d, nil
}

// Remove drops the DAO registered under key.
func (m *Manager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.registered[key]; !exists {
		return errors.NewNotFoundError("dao", key)
	}
	delete(m.registered, key)
	return nil
}

// Keys lists registered keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.registered))
	for k := range m.registered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TotalCost sums the running cost of every DAO the manager knows about.
func (m *Manager) TotalCost() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[*DAO]bool)
	var total float64
	for _, group := range []map[string]*DAO{m.containers, m.registered} {
		for _, d := range group {
			if seen[d] {
				continue
			}
			seen[d] = true
			total += d.AggregateCost()
		}
	}
	return total
}
