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

// Package graph is an in-memory, versioned property graph store. Every commit
// produces an immutable snapshot (a GraphView) made of the data parts written
// so far and the set of entities deleted so far (Tombstones). Deleted entities
// stay physically present in their data parts; readers must consult the
// snapshot's Tombstones on every row.
package graph

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// A Commit is a point in the history of a Graph.
type Commit struct {
	hash       CommitHash
	parent     CommitHash
	parts      []*DataPart
	tombstones *Tombstones
}

// Hash returns the commit's identifier.
func (c *Commit) Hash() CommitHash {
	return c.hash
}

// Parent returns the hash of the previous commit, or 0 for the first commit.
func (c *Commit) Parent() CommitHash {
	return c.parent
}

// A Graph is a named, versioned graph. It is safe for concurrent access.
// Writes go through a CommitBuilder and are published atomically by Commit.
type Graph struct {
	name   string
	schema *Schema
	lock   sync.Mutex
	locked struct {
		// Ordered from oldest to newest. Never empty.
		commits  []*Commit
		byHash   map[CommitHash]*Commit
		nextNode NodeID
		nextEdge EdgeID
	}
}

// New constructs an empty Graph with a single, empty commit.
func New(name string) *Graph {
	g := &Graph{
		name:   name,
		schema: newSchema(),
	}
	root := &Commit{
		hash:       CommitHash(xxhash.Sum64String(name)),
		tombstones: NewTombstones(),
	}
	g.locked.commits = []*Commit{root}
	g.locked.byHash = map[CommitHash]*Commit{root.hash: root}
	return g
}

// Name returns the graph's name.
func (g *Graph) Name() string {
	return g.name
}

// Schema returns the graph's label, edge type and property type registry.
func (g *Graph) Schema() *Schema {
	return g.schema
}

// View returns a snapshot of the latest commit.
func (g *Graph) View() *GraphView {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.viewLocked(g.locked.commits[len(g.locked.commits)-1])
}

// ViewAt returns a snapshot of the commit with the given hash. A zero hash
// selects the latest commit.
func (g *Graph) ViewAt(hash CommitHash) (*GraphView, error) {
	if hash == 0 {
		return g.View(), nil
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	c, ok := g.locked.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("graph %v: commit %v not found", g.name, hash)
	}
	return g.viewLocked(c), nil
}

func (g *Graph) viewLocked(c *Commit) *GraphView {
	return &GraphView{graph: g, commit: c}
}

// Commits returns the hashes of every commit, oldest first.
func (g *Graph) Commits() []CommitHash {
	g.lock.Lock()
	defer g.lock.Unlock()
	res := make([]CommitHash, len(g.locked.commits))
	for i, c := range g.locked.commits {
		res[i] = c.hash
	}
	return res
}

// OpenTransaction returns a read-only transaction over the latest commit.
func (g *Graph) OpenTransaction() FrozenCommitTx {
	return FrozenCommitTx{view: g.View()}
}

// NewCommitBuilder returns a builder for a commit on top of whatever the
// latest commit is when Commit is called.
func (g *Graph) NewCommitBuilder() *CommitBuilder {
	return newCommitBuilder(g)
}

func (g *Graph) allocNodeID() NodeID {
	g.lock.Lock()
	defer g.lock.Unlock()
	id := g.locked.nextNode
	g.locked.nextNode++
	return id
}

func (g *Graph) allocEdgeID() EdgeID {
	g.lock.Lock()
	defer g.lock.Unlock()
	id := g.locked.nextEdge
	g.locked.nextEdge++
	return id
}

// Commit publishes the builder's content as a new commit and returns its
// hash. The builder must not be used afterwards. Committing an empty builder
// still creates a commit. Deleting a node or edge that is neither live in the
// latest commit nor created by the builder fails the whole commit.
func (g *Graph) Commit(b *CommitBuilder) (CommitHash, error) {
	if b.graph != g {
		return 0, fmt.Errorf("graph %v: commit builder belongs to graph %v", g.name, b.graph.name)
	}
	if b.done {
		return 0, fmt.Errorf("graph %v: commit builder already committed", g.name)
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	head := g.locked.commits[len(g.locked.commits)-1]
	part := b.dataPart()
	parts := head.parts
	if !part.empty() {
		parts = make([]*DataPart, len(head.parts), len(head.parts)+1)
		copy(parts, head.parts)
		parts = append(parts, part)
	}
	if err := g.validateDeletions(head.tombstones, parts, b); err != nil {
		return 0, err
	}
	tombstones := head.tombstones
	if len(b.deletedNodes) > 0 || len(b.deletedEdges) > 0 {
		tombstones = head.tombstones.clone()
		for _, id := range b.deletedEdges {
			tombstones.addEdge(id)
		}
		for _, id := range b.deletedNodes {
			tombstones.addNode(id)
			// Edges incident to a deleted node go with it.
			for _, p := range parts {
				for _, e := range p.OutEdges(id) {
					tombstones.addEdge(e.EdgeID)
				}
				for _, e := range p.InEdges(id) {
					tombstones.addEdge(e.EdgeID)
				}
			}
		}
	}
	c := &Commit{
		hash:       b.hash(head.hash, uint64(len(g.locked.commits))),
		parent:     head.hash,
		parts:      parts,
		tombstones: tombstones,
	}
	g.locked.commits = append(g.locked.commits, c)
	g.locked.byHash[c.hash] = c
	b.done = true
	logrus.WithFields(logrus.Fields{
		"graph":        g.name,
		"commit":       c.hash,
		"parent":       c.parent,
		"nodes":        part.NodeCount(),
		"edges":        part.EdgeCount(),
		"deletedNodes": len(b.deletedNodes),
		"deletedEdges": len(b.deletedEdges),
	}).Debug("Committed")
	return c.hash, nil
}

// validateDeletions checks that every entity 'b' deletes exists in 'parts' and
// is not already deleted.
func (g *Graph) validateDeletions(tombstones *Tombstones, parts []*DataPart, b *CommitBuilder) error {
	for _, id := range b.deletedNodes {
		found := false
		for _, p := range parts {
			if _, found = p.node(id); found {
				break
			}
		}
		if !found || tombstones.ContainsNode(id) {
			return fmt.Errorf("graph %v: does not contain node with ID %v", g.name, id)
		}
	}
	for _, id := range b.deletedEdges {
		found := false
		for _, p := range parts {
			if _, found = p.edge(id); found {
				break
			}
		}
		if !found || tombstones.ContainsEdge(id) {
			return fmt.Errorf("graph %v: does not contain edge with ID %v", g.name, id)
		}
	}
	return nil
}
