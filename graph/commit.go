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
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// CommitBuilder accumulates the writes of one commit. IDs for new nodes and
// edges are allocated from the Graph immediately, so they are stable even
// before the commit is published. A CommitBuilder is not safe for concurrent
// use.
type CommitBuilder struct {
	graph        *Graph
	nodes        []NodeRecord
	edges        []EdgeRecord
	nodeProps    map[PropertyTypeID]map[NodeID]interface{}
	edgeProps    map[PropertyTypeID]map[EdgeID]interface{}
	deletedNodes []NodeID
	deletedEdges []EdgeID
	done         bool
}

func newCommitBuilder(g *Graph) *CommitBuilder {
	return &CommitBuilder{
		graph:     g,
		nodeProps: make(map[PropertyTypeID]map[NodeID]interface{}),
		edgeProps: make(map[PropertyTypeID]map[EdgeID]interface{}),
	}
}

// AddNode creates a node with the given labels.
func (b *CommitBuilder) AddNode(labels LabelSet) NodeID {
	id := b.graph.allocNodeID()
	b.nodes = append(b.nodes, NodeRecord{ID: id, Labels: labels})
	return id
}

// AddEdge creates an edge from 'src' to 'tgt'.
func (b *CommitBuilder) AddEdge(src, tgt NodeID, edgeType EdgeTypeID) EdgeID {
	id := b.graph.allocEdgeID()
	b.edges = append(b.edges, EdgeRecord{
		EdgeID:     id,
		NodeID:     src,
		OtherID:    tgt,
		EdgeTypeID: edgeType,
		Direction:  Outgoing,
	})
	return id
}

// SetNodeProperty sets a property of a node. The value's Go type must match
// the property type's ValueType.
func (b *CommitBuilder) SetNodeProperty(id NodeID, pt PropertyType, value interface{}) error {
	if err := checkValue(pt, value); err != nil {
		return err
	}
	m := b.nodeProps[pt.ID]
	if m == nil {
		m = make(map[NodeID]interface{})
		b.nodeProps[pt.ID] = m
	}
	m[id] = value
	return nil
}

// SetEdgeProperty sets a property of an edge. The value's Go type must match
// the property type's ValueType.
func (b *CommitBuilder) SetEdgeProperty(id EdgeID, pt PropertyType, value interface{}) error {
	if err := checkValue(pt, value); err != nil {
		return err
	}
	m := b.edgeProps[pt.ID]
	if m == nil {
		m = make(map[EdgeID]interface{})
		b.edgeProps[pt.ID] = m
	}
	m[id] = value
	return nil
}

// DeleteNode marks a node, and every edge incident to it, as deleted.
func (b *CommitBuilder) DeleteNode(id NodeID) {
	b.deletedNodes = append(b.deletedNodes, id)
}

// DeleteEdge marks an edge as deleted.
func (b *CommitBuilder) DeleteEdge(id EdgeID) {
	b.deletedEdges = append(b.deletedEdges, id)
}

// Empty returns true if nothing has been written to the builder.
func (b *CommitBuilder) Empty() bool {
	return len(b.nodes) == 0 && len(b.edges) == 0 &&
		len(b.nodeProps) == 0 && len(b.edgeProps) == 0 &&
		len(b.deletedNodes) == 0 && len(b.deletedEdges) == 0
}

func checkValue(pt PropertyType, value interface{}) error {
	if vt := valueTypeOf(value); vt != pt.Type {
		return fmt.Errorf("invalid value %v (%T) for property type %v", value, value, pt)
	}
	return nil
}

func (b *CommitBuilder) dataPart() *DataPart {
	nodes := make([]NodeRecord, len(b.nodes))
	copy(nodes, b.nodes)
	edges := make([]EdgeRecord, len(b.edges))
	copy(edges, b.edges)
	return newDataPart(nodes, edges, b.nodeProps, b.edgeProps)
}

// hash returns a digest of the builder's content chained to the parent hash.
// 'seq' is the position of the new commit in the history, which keeps hashes
// unique even for identical content.
func (b *CommitBuilder) hash(parent CommitHash, seq uint64) CommitHash {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	put(uint64(parent))
	put(seq)
	for _, n := range b.nodes {
		put(uint64(n.ID))
		put(uint64(n.Labels))
	}
	for _, e := range b.edges {
		put(uint64(e.EdgeID))
		put(uint64(e.NodeID))
		put(uint64(e.OtherID))
		put(uint64(e.EdgeTypeID))
	}
	for _, pt := range sortedKeys(b.nodeProps) {
		put(uint64(pt))
		props := b.nodeProps[pt]
		ids := make([]NodeID, 0, len(props))
		for id := range props {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			put(uint64(id))
			hashValue(d.WriteString, put, props[id])
		}
	}
	for _, pt := range sortedKeys(b.edgeProps) {
		put(uint64(pt))
		props := b.edgeProps[pt]
		ids := make([]EdgeID, 0, len(props))
		for id := range props {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			put(uint64(id))
			hashValue(d.WriteString, put, props[id])
		}
	}
	for _, id := range b.deletedNodes {
		put(uint64(id))
	}
	for _, id := range b.deletedEdges {
		put(uint64(id))
	}
	return CommitHash(d.Sum64())
}

func hashValue(writeString func(string) (int, error), put func(uint64), v interface{}) {
	switch v := v.(type) {
	case int64:
		put(uint64(v))
	case uint64:
		put(v)
	case float64:
		put(math.Float64bits(v))
	case string:
		writeString(v)
	case bool:
		if v {
			put(1)
		} else {
			put(0)
		}
	}
}

func sortedKeys[V any](m map[PropertyTypeID]V) []PropertyTypeID {
	keys := make([]PropertyTypeID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
