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
	"github.com/google/btree"
)

const tombstoneDegree = 16

type nodeItem NodeID

func (a nodeItem) Less(b btree.Item) bool {
	return a < b.(nodeItem)
}

type edgeItem EdgeID

func (a edgeItem) Less(b btree.Item) bool {
	return a < b.(edgeItem)
}

// Tombstones is the set of logically deleted nodes and edges as of some
// commit. A Tombstones value reachable from a GraphView is never modified;
// commits derive a new set with clone.
type Tombstones struct {
	nodes *btree.BTree
	edges *btree.BTree
}

// NewTombstones returns an empty set.
func NewTombstones() *Tombstones {
	return &Tombstones{
		nodes: btree.New(tombstoneDegree),
		edges: btree.New(tombstoneDegree),
	}
}

// clone returns a copy of t that can be modified without affecting t.
func (t *Tombstones) clone() *Tombstones {
	return &Tombstones{
		nodes: t.nodes.Clone(),
		edges: t.edges.Clone(),
	}
}

func (t *Tombstones) addNode(id NodeID) {
	t.nodes.ReplaceOrInsert(nodeItem(id))
}

func (t *Tombstones) addEdge(id EdgeID) {
	t.edges.ReplaceOrInsert(edgeItem(id))
}

// ContainsNode returns true if the node has been deleted.
func (t *Tombstones) ContainsNode(id NodeID) bool {
	if t.nodes.Len() == 0 {
		return false
	}
	return t.nodes.Has(nodeItem(id))
}

// ContainsEdge returns true if the edge has been deleted.
func (t *Tombstones) ContainsEdge(id EdgeID) bool {
	if t.edges.Len() == 0 {
		return false
	}
	return t.edges.Has(edgeItem(id))
}

// NodeCount returns the number of deleted nodes.
func (t *Tombstones) NodeCount() int {
	return t.nodes.Len()
}

// EdgeCount returns the number of deleted edges.
func (t *Tombstones) EdgeCount() int {
	return t.edges.Len()
}

// Nodes returns the deleted nodes in ascending order.
func (t *Tombstones) Nodes() []NodeID {
	res := make([]NodeID, 0, t.nodes.Len())
	t.nodes.Ascend(func(i btree.Item) bool {
		res = append(res, NodeID(i.(nodeItem)))
		return true
	})
	return res
}

// Edges returns the deleted edges in ascending order.
func (t *Tombstones) Edges() []EdgeID {
	res := make([]EdgeID, 0, t.edges.Len())
	t.edges.Ascend(func(i btree.Item) bool {
		res = append(res, EdgeID(i.(edgeItem)))
		return true
	})
	return res
}
