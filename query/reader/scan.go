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

// Package reader walks a graph snapshot in bounded, resumable steps. Each
// reader appends at most a given number of rows to its output columns per
// call to Work and keeps enough cursor state to continue where it left off.
// Readers never surface an entity that is in the snapshot's Tombstones.
package reader

import (
	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// Status reports whether a reader has more rows to produce.
type Status int

// Status values.
const (
	InProgress Status = iota
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "Finished"
	}
	return "InProgress"
}

// partCursor is a position within the data parts of a view.
type partCursor struct {
	part int
	pos  int
}

// ScanNodes produces the IDs of every live node of a view, optionally
// restricted to nodes carrying a set of labels. Nodes are produced in data
// part order, then ID order.
type ScanNodes struct {
	view   *graph.GraphView
	labels graph.LabelSet
	out    *dataframe.Vector[graph.NodeID]
	at     partCursor
}

// NewScanNodes returns a reader producing every live node into 'out'.
func NewScanNodes(view *graph.GraphView, out *dataframe.Vector[graph.NodeID]) *ScanNodes {
	return &ScanNodes{view: view, out: out}
}

// NewScanNodesByLabel returns a reader producing the live nodes that carry
// every label in 'labels'.
func NewScanNodesByLabel(view *graph.GraphView, labels graph.LabelSet,
	out *dataframe.Vector[graph.NodeID]) *ScanNodes {
	return &ScanNodes{view: view, labels: labels, out: out}
}

// Work appends up to 'budget' node IDs to the output column and returns how
// many it appended.
func (r *ScanNodes) Work(budget int) int {
	parts := r.view.Parts()
	tombstones := r.view.Tombstones()
	n := 0
	for n < budget && r.at.part < len(parts) {
		p := parts[r.at.part]
		for n < budget && r.at.pos < p.NodeCount() {
			node := p.NodeAt(r.at.pos)
			r.at.pos++
			if tombstones.ContainsNode(node.ID) || !node.Labels.HasAll(r.labels) {
				continue
			}
			r.out.Append(node.ID)
			n++
		}
		if r.at.pos >= p.NodeCount() {
			r.at = partCursor{part: r.at.part + 1}
		}
	}
	return n
}

// Status returns Finished once every node has been considered.
func (r *ScanNodes) Status() Status {
	if r.at.part >= len(r.view.Parts()) {
		return Finished
	}
	return InProgress
}

// Reset rewinds the reader to the first node.
func (r *ScanNodes) Reset() {
	r.at = partCursor{}
}

// EdgeColumns are the output columns of edge-producing readers. Others holds
// the node at the far end of each edge: the target for ScanEdges and
// GetOutEdges, the source for GetInEdges.
type EdgeColumns struct {
	EdgeIDs   *dataframe.Vector[graph.EdgeID]
	EdgeTypes *dataframe.Vector[graph.EdgeTypeID]
	Others    *dataframe.Vector[graph.NodeID]
}

func (c EdgeColumns) append(e graph.EdgeRecord) {
	c.EdgeIDs.Append(e.EdgeID)
	c.EdgeTypes.Append(e.EdgeTypeID)
	c.Others.Append(e.OtherID)
}

// ScanEdges produces every live edge of a view, in data part order, then ID
// order.
type ScanEdges struct {
	view    *graph.GraphView
	sources *dataframe.Vector[graph.NodeID]
	out     EdgeColumns
	at      partCursor
}

// NewScanEdges returns a reader producing every live edge. 'sources'
// receives each edge's source node and out.Others its target node.
func NewScanEdges(view *graph.GraphView, sources *dataframe.Vector[graph.NodeID], out EdgeColumns) *ScanEdges {
	return &ScanEdges{view: view, sources: sources, out: out}
}

// Work appends up to 'budget' edges to the output columns and returns how
// many it appended.
func (r *ScanEdges) Work(budget int) int {
	parts := r.view.Parts()
	tombstones := r.view.Tombstones()
	n := 0
	for n < budget && r.at.part < len(parts) {
		p := parts[r.at.part]
		for n < budget && r.at.pos < p.EdgeCount() {
			e := p.EdgeAt(r.at.pos)
			r.at.pos++
			if tombstones.ContainsEdge(e.EdgeID) ||
				tombstones.ContainsNode(e.NodeID) || tombstones.ContainsNode(e.OtherID) {
				continue
			}
			r.sources.Append(e.NodeID)
			r.out.append(e)
			n++
		}
		if r.at.pos >= p.EdgeCount() {
			r.at = partCursor{part: r.at.part + 1}
		}
	}
	return n
}

// Status returns Finished once every edge has been considered.
func (r *ScanEdges) Status() Status {
	if r.at.part >= len(r.view.Parts()) {
		return Finished
	}
	return InProgress
}

// Reset rewinds the reader to the first edge.
func (r *ScanEdges) Reset() {
	r.at = partCursor{}
}
