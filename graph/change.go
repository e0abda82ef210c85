// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ChangeErrorType classifies a ChangeError.
type ChangeErrorType int

// ChangeErrorType values.
const (
	ChangeNotFound ChangeErrorType = iota + 1
	CommitFailed
)

func (t ChangeErrorType) String() string {
	switch t {
	case ChangeNotFound:
		return "change not found"
	case CommitFailed:
		return "could not accept change"
	}
	return fmt.Sprintf("ChangeErrorType(%d)", int(t))
}

// ChangeError is returned by ChangeManager operations.
type ChangeError struct {
	Type     ChangeErrorType
	ChangeID ChangeID
	// Err is the underlying cause, if any.
	Err error
}

func (e *ChangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("change %d: %v: %v", e.ChangeID, e.Type, e.Err)
	}
	return fmt.Sprintf("change %d: %v", e.ChangeID, e.Type)
}

// Unwrap returns the underlying cause.
func (e *ChangeError) Unwrap() error {
	return e.Err
}

// A Change is a pending set of writes branched from a base commit. Its writes
// are invisible to readers until the change is submitted.
type Change struct {
	id      ChangeID
	base    *GraphView
	builder *CommitBuilder
}

// ID returns the change's identifier.
func (c *Change) ID() ChangeID {
	return c.id
}

// Base returns the snapshot the change was branched from.
func (c *Change) Base() *GraphView {
	return c.base
}

// Access returns an accessor to the change.
func (c *Change) Access() ChangeAccessor {
	return ChangeAccessor{change: c}
}

// ChangeAccessor is a handle to a pending Change. The zero value is not
// valid.
type ChangeAccessor struct {
	change *Change
}

// Valid returns true if the accessor refers to a change.
func (a ChangeAccessor) Valid() bool {
	return a.change != nil
}

// ID returns the ID of the change. It returns 0 for an invalid accessor.
func (a ChangeAccessor) ID() ChangeID {
	if a.change == nil {
		return 0
	}
	return a.change.id
}

// Builder returns the builder that collects the change's writes.
func (a ChangeAccessor) Builder() *CommitBuilder {
	return a.change.builder
}

// ChangeManager tracks the pending changes of one Graph. It is safe for
// concurrent access.
type ChangeManager struct {
	graph  *Graph
	lock   sync.Mutex
	locked struct {
		changes map[ChangeID]*Change
		nextID  ChangeID
	}
}

// NewChangeManager constructs a ChangeManager for the given graph.
func NewChangeManager(g *Graph) *ChangeManager {
	m := &ChangeManager{graph: g}
	m.locked.changes = make(map[ChangeID]*Change)
	m.locked.nextID = 1
	return m
}

// Graph returns the graph whose changes are managed.
func (m *ChangeManager) Graph() *Graph {
	return m.graph
}

// NewChange creates a change branched from the graph's latest commit.
func (m *ChangeManager) NewChange() *Change {
	base := m.graph.View()
	m.lock.Lock()
	defer m.lock.Unlock()
	c := &Change{
		id:      m.locked.nextID,
		base:    base,
		builder: m.graph.NewCommitBuilder(),
	}
	m.locked.nextID++
	m.locked.changes[c.id] = c
	return c
}

// OpenTransaction returns a write transaction on the given change.
func (m *ChangeManager) OpenTransaction(id ChangeID) (PendingCommitWriteTx, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	c, ok := m.locked.changes[id]
	if !ok {
		return PendingCommitWriteTx{}, &ChangeError{Type: ChangeNotFound, ChangeID: id}
	}
	return PendingCommitWriteTx{accessor: c.Access()}, nil
}

// Submit commits the change's writes to the graph and forgets the change. The
// change is forgotten even if the commit fails.
func (m *ChangeManager) Submit(id ChangeID) (CommitHash, error) {
	c, err := m.remove(id)
	if err != nil {
		return 0, err
	}
	hash, err := m.graph.Commit(c.builder)
	if err != nil {
		return 0, &ChangeError{Type: CommitFailed, ChangeID: id, Err: err}
	}
	logrus.WithFields(logrus.Fields{
		"graph":    m.graph.name,
		"changeID": id,
		"commit":   hash,
	}).Info("Submitted change")
	return hash, nil
}

// Delete discards the change and its writes.
func (m *ChangeManager) Delete(id ChangeID) error {
	_, err := m.remove(id)
	return err
}

func (m *ChangeManager) remove(id ChangeID) (*Change, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	c, ok := m.locked.changes[id]
	if !ok {
		return nil, &ChangeError{Type: ChangeNotFound, ChangeID: id}
	}
	delete(m.locked.changes, id)
	return c, nil
}

// List returns the IDs of the pending changes in ascending order.
func (m *ChangeManager) List() []ChangeID {
	m.lock.Lock()
	res := make([]ChangeID, 0, len(m.locked.changes))
	for id := range m.locked.changes {
		res = append(res, id)
	}
	m.lock.Unlock()
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Transaction is an open read or write context on a Graph.
type Transaction interface {
	// View returns the snapshot the transaction reads from.
	View() *GraphView
	// Writing returns true for transactions writing a pending commit.
	Writing() bool
}

// FrozenCommitTx is a read-only transaction over a committed snapshot.
type FrozenCommitTx struct {
	view *GraphView
}

// NewFrozenCommitTx returns a read-only transaction over the given view.
func NewFrozenCommitTx(view *GraphView) FrozenCommitTx {
	return FrozenCommitTx{view: view}
}

// View implements Transaction.
func (tx FrozenCommitTx) View() *GraphView {
	return tx.view
}

// Writing implements Transaction.
func (tx FrozenCommitTx) Writing() bool {
	return false
}

// PendingCommitWriteTx is a transaction writing into a pending Change. It
// reads from the change's base snapshot.
type PendingCommitWriteTx struct {
	accessor ChangeAccessor
}

// View implements Transaction.
func (tx PendingCommitWriteTx) View() *GraphView {
	return tx.accessor.change.base
}

// Writing implements Transaction.
func (tx PendingCommitWriteTx) Writing() bool {
	return true
}

// ChangeAccessor returns the accessor of the change being written.
func (tx PendingCommitWriteTx) ChangeAccessor() ChangeAccessor {
	return tx.accessor
}
