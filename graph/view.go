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
)

// GraphView is an immutable snapshot of a Graph as of one commit. It is safe
// for concurrent use by any number of readers.
type GraphView struct {
	graph  *Graph
	commit *Commit
}

// Graph returns the graph this view belongs to.
func (v *GraphView) Graph() *Graph {
	return v.graph
}

// Hash returns the hash of the commit this view captures.
func (v *GraphView) Hash() CommitHash {
	return v.commit.hash
}

// Schema returns the graph's schema. The schema is shared by all views.
func (v *GraphView) Schema() *Schema {
	return v.graph.schema
}

// Tombstones returns the entities deleted as of this view.
func (v *GraphView) Tombstones() *Tombstones {
	return v.commit.tombstones
}

// Parts returns the data parts visible in this view, oldest first. The
// caller must not modify the returned slice.
func (v *GraphView) Parts() []*DataPart {
	return v.commit.parts
}

// Read returns a GraphReader over the view.
func (v *GraphView) Read() GraphReader {
	return GraphReader{view: v}
}

// GraphReader provides point lookups over a GraphView. Every lookup hides
// entities present in the view's Tombstones.
type GraphReader struct {
	view *GraphView
}

// View returns the snapshot this reader reads from.
func (r GraphReader) View() *GraphView {
	return r.view
}

// NodeCount returns the number of live nodes.
func (r GraphReader) NodeCount() int {
	total := 0
	for _, p := range r.view.commit.parts {
		total += p.NodeCount()
	}
	return total - r.view.commit.tombstones.NodeCount()
}

// EdgeCount returns the number of live edges.
func (r GraphReader) EdgeCount() int {
	total := 0
	for _, p := range r.view.commit.parts {
		total += p.EdgeCount()
	}
	return total - r.view.commit.tombstones.EdgeCount()
}

// IsNodeDeleted returns true if the node is in the view's Tombstones.
func (r GraphReader) IsNodeDeleted(id NodeID) bool {
	return r.view.commit.tombstones.ContainsNode(id)
}

// IsEdgeDeleted returns true if the edge is in the view's Tombstones.
func (r GraphReader) IsEdgeDeleted(id EdgeID) bool {
	return r.view.commit.tombstones.ContainsEdge(id)
}

// NodeLabels returns the labels of a live node. It returns false if the node
// does not exist in the view or has been deleted.
func (r GraphReader) NodeLabels(id NodeID) (LabelSet, bool) {
	if r.IsNodeDeleted(id) {
		return 0, false
	}
	for _, p := range r.view.commit.parts {
		if n, ok := p.node(id); ok {
			return n.Labels, true
		}
	}
	return 0, false
}

// Edge returns a live edge as an Outgoing record. It returns false if the
// edge does not exist in the view or has been deleted.
func (r GraphReader) Edge(id EdgeID) (EdgeRecord, bool) {
	if r.IsEdgeDeleted(id) {
		return EdgeRecord{}, false
	}
	for _, p := range r.view.commit.parts {
		if e, ok := p.edge(id); ok {
			return e, true
		}
	}
	return EdgeRecord{}, false
}

// NodeProperty returns the value of a property of a live node. The value's Go
// type matches the property type's ValueType. Later commits override earlier
// ones.
func (r GraphReader) NodeProperty(pt PropertyTypeID, id NodeID) (interface{}, bool) {
	if r.IsNodeDeleted(id) {
		return nil, false
	}
	parts := r.view.commit.parts
	for i := len(parts) - 1; i >= 0; i-- {
		if v, ok := parts[i].nodeProperty(pt, id); ok {
			return v, true
		}
	}
	return nil, false
}

// EdgeProperty returns the value of a property of a live edge. Later commits
// override earlier ones.
func (r GraphReader) EdgeProperty(pt PropertyTypeID, id EdgeID) (interface{}, bool) {
	if r.IsEdgeDeleted(id) {
		return nil, false
	}
	parts := r.view.commit.parts
	for i := len(parts) - 1; i >= 0; i-- {
		if v, ok := parts[i].edgeProperty(pt, id); ok {
			return v, true
		}
	}
	return nil, false
}

// EntityID is satisfied by the identifiers of entities that carry
// properties.
type EntityID interface {
	NodeID | EdgeID
}

// Property returns the typed value of a property of a live node or edge. It
// panics if the stored value is not of type T, which callers rule out by
// checking the PropertyType's ValueType up front.
func Property[T Value, ID EntityID](r GraphReader, pt PropertyTypeID, id ID) (T, bool) {
	var v interface{}
	var ok bool
	switch id := interface{}(id).(type) {
	case NodeID:
		v, ok = r.NodeProperty(pt, id)
	case EdgeID:
		v, ok = r.EdgeProperty(pt, id)
	}
	if !ok {
		var zero T
		return zero, false
	}
	typed, isT := v.(T)
	if !isT {
		panic(fmt.Sprintf("property %d of %v holds %T, expected %T", pt, id, v, typed))
	}
	return typed, true
}
