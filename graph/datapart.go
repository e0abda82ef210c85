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
	"sort"
)

// DataPart is an immutable batch of nodes, edges and property values written
// by a single commit. Nodes and edges are ordered by ID, and each adjacency
// list is ordered by edge ID.
type DataPart struct {
	nodes []NodeRecord
	// edges holds every edge of the part as an Outgoing record.
	edges []EdgeRecord
	out   map[NodeID][]EdgeRecord
	in    map[NodeID][]EdgeRecord
	// nodeProps and edgeProps hold values of the Go type matching the
	// property's ValueType.
	nodeProps map[PropertyTypeID]map[NodeID]interface{}
	edgeProps map[PropertyTypeID]map[EdgeID]interface{}
}

func newDataPart(nodes []NodeRecord, edges []EdgeRecord,
	nodeProps map[PropertyTypeID]map[NodeID]interface{},
	edgeProps map[PropertyTypeID]map[EdgeID]interface{}) *DataPart {

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(edges, func(i, j int) bool { return edges[i].EdgeID < edges[j].EdgeID })
	p := &DataPart{
		nodes:     nodes,
		edges:     edges,
		out:       make(map[NodeID][]EdgeRecord),
		in:        make(map[NodeID][]EdgeRecord),
		nodeProps: nodeProps,
		edgeProps: edgeProps,
	}
	for _, e := range edges {
		p.out[e.NodeID] = append(p.out[e.NodeID], e)
		p.in[e.OtherID] = append(p.in[e.OtherID], EdgeRecord{
			EdgeID:     e.EdgeID,
			NodeID:     e.OtherID,
			OtherID:    e.NodeID,
			EdgeTypeID: e.EdgeTypeID,
			Direction:  Incoming,
		})
	}
	return p
}

// NodeCount returns the number of nodes created by this part, including any
// that were later deleted.
func (p *DataPart) NodeCount() int {
	return len(p.nodes)
}

// NodeAt returns the i-th node of the part.
func (p *DataPart) NodeAt(i int) NodeRecord {
	return p.nodes[i]
}

// EdgeCount returns the number of edges created by this part, including any
// that were later deleted.
func (p *DataPart) EdgeCount() int {
	return len(p.edges)
}

// EdgeAt returns the i-th edge of the part, as an Outgoing record.
func (p *DataPart) EdgeAt(i int) EdgeRecord {
	return p.edges[i]
}

// OutEdges returns the edges of this part whose source is 'node'. The caller
// must not modify the returned slice.
func (p *DataPart) OutEdges(node NodeID) []EdgeRecord {
	return p.out[node]
}

// InEdges returns the edges of this part whose target is 'node', as Incoming
// records. The caller must not modify the returned slice.
func (p *DataPart) InEdges(node NodeID) []EdgeRecord {
	return p.in[node]
}

// node returns the record for 'id' if this part created it.
func (p *DataPart) node(id NodeID) (NodeRecord, bool) {
	i := sort.Search(len(p.nodes), func(i int) bool { return p.nodes[i].ID >= id })
	if i < len(p.nodes) && p.nodes[i].ID == id {
		return p.nodes[i], true
	}
	return NodeRecord{}, false
}

// edge returns the record for 'id' if this part created it.
func (p *DataPart) edge(id EdgeID) (EdgeRecord, bool) {
	i := sort.Search(len(p.edges), func(i int) bool { return p.edges[i].EdgeID >= id })
	if i < len(p.edges) && p.edges[i].EdgeID == id {
		return p.edges[i], true
	}
	return EdgeRecord{}, false
}

func (p *DataPart) nodeProperty(pt PropertyTypeID, id NodeID) (interface{}, bool) {
	v, ok := p.nodeProps[pt][id]
	return v, ok
}

func (p *DataPart) edgeProperty(pt PropertyTypeID, id EdgeID) (interface{}, bool) {
	v, ok := p.edgeProps[pt][id]
	return v, ok
}

func (p *DataPart) empty() bool {
	return len(p.nodes) == 0 && len(p.edges) == 0 &&
		len(p.nodeProps) == 0 && len(p.edgeProps) == 0
}
