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

package reader

import (
	"fmt"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// Expansion selects which adjacency lists an Expand reader follows.
type Expansion int

// Expansion values.
const (
	OutEdges Expansion = iota + 1
	InEdges
	// AllEdges follows the outgoing edges of a node, then its incoming edges.
	AllEdges
)

func (e Expansion) String() string {
	switch e {
	case OutEdges:
		return "GetOutEdges"
	case InEdges:
		return "GetInEdges"
	case AllEdges:
		return "GetEdges"
	}
	return fmt.Sprintf("Expansion(%d)", int(e))
}

// Expand produces the edges adjacent to a batch of input nodes. For every
// output row it records, in the Indices column, the row of the input
// Dataframe the edge was reached from. Edges of one input node are produced
// in data part order, then edge ID order, outgoing before incoming.
type Expand struct {
	view    *graph.GraphView
	kind    Expansion
	indices *dataframe.Vector[int]
	out     EdgeColumns

	input []graph.NodeID
	// base is the input Dataframe row of input[0].
	base int
	// row is the index in input of the node being expanded.
	row int
	// incoming is true once the outgoing lists of the current node are done
	// (AllEdges only).
	incoming bool
	at       partCursor
}

// NewExpand returns a reader following 'kind' adjacency lists.
func NewExpand(view *graph.GraphView, kind Expansion, indices *dataframe.Vector[int], out EdgeColumns) *Expand {
	return &Expand{
		view:    view,
		kind:    kind,
		indices: indices,
		out:     out,
	}
}

// SetInput starts expanding a new batch of nodes. 'base' is the row of the
// input Dataframe holding nodes[0]; it offsets the emitted indices.
func (r *Expand) SetInput(nodes []graph.NodeID, base int) {
	r.input = nodes
	r.base = base
	r.row = 0
	r.incoming = r.kind == InEdges
	r.at = partCursor{}
}

// Consumed returns how many input nodes have been fully expanded.
func (r *Expand) Consumed() int {
	return r.row
}

// Status returns Finished once every node of the current input batch has been
// fully expanded.
func (r *Expand) Status() Status {
	if r.row >= len(r.input) {
		return Finished
	}
	return InProgress
}

// Reset forgets the current input batch.
func (r *Expand) Reset() {
	r.SetInput(nil, 0)
}

// Work appends up to 'budget' edges to the output columns and returns how
// many it appended.
func (r *Expand) Work(budget int) int {
	parts := r.view.Parts()
	tombstones := r.view.Tombstones()
	n := 0
	for n < budget && r.row < len(r.input) {
		node := r.input[r.row]
		if tombstones.ContainsNode(node) {
			r.nextNode()
			continue
		}
		for n < budget && r.at.part < len(parts) {
			var edges []graph.EdgeRecord
			if r.incoming {
				edges = parts[r.at.part].InEdges(node)
			} else {
				edges = parts[r.at.part].OutEdges(node)
			}
			for n < budget && r.at.pos < len(edges) {
				e := edges[r.at.pos]
				r.at.pos++
				if tombstones.ContainsEdge(e.EdgeID) || tombstones.ContainsNode(e.OtherID) {
					continue
				}
				r.indices.Append(r.base + r.row)
				r.out.append(e)
				n++
			}
			if r.at.pos >= len(edges) {
				r.at = partCursor{part: r.at.part + 1}
			}
		}
		if r.at.part >= len(parts) {
			if r.kind == AllEdges && !r.incoming {
				r.incoming = true
				r.at = partCursor{}
			} else {
				r.nextNode()
			}
		}
	}
	return n
}

func (r *Expand) nextNode() {
	r.row++
	r.incoming = r.kind == InEdges
	r.at = partCursor{}
}
