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
	"math/bits"
	"strings"
)

// NodeID identifies a node. IDs are allocated by the Graph and are never
// reused, even after the node is deleted.
type NodeID uint64

// EdgeID identifies an edge. Like NodeIDs, EdgeIDs are never reused.
type EdgeID uint64

// EdgeTypeID identifies an edge type registered in the Schema.
type EdgeTypeID uint32

// LabelID identifies a node label registered in the Schema.
type LabelID uint32

// PropertyTypeID identifies a property type registered in the Schema.
type PropertyTypeID uint32

// ChangeID identifies a pending Change.
type ChangeID uint64

// CommitHash identifies a Commit. The zero value refers to the head commit
// wherever a hash is used to select a commit.
type CommitHash uint64

// String returns the hash in a fixed-width hex format.
func (h CommitHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// MaxLabels is the number of distinct labels a Schema can hold.
const MaxLabels = 64

// LabelSet is a set of labels carried by a node.
type LabelSet uint64

// NewLabelSet returns a LabelSet containing the given labels.
func NewLabelSet(labels ...LabelID) LabelSet {
	var s LabelSet
	for _, l := range labels {
		s = s.With(l)
	}
	return s
}

// With returns a copy of the set that also contains 'label'.
func (s LabelSet) With(label LabelID) LabelSet {
	if label >= MaxLabels {
		panic(fmt.Sprintf("LabelSet supports at most %d labels, got label %d", MaxLabels, label))
	}
	return s | (1 << label)
}

// Has returns true if 'label' is in the set.
func (s LabelSet) Has(label LabelID) bool {
	return label < MaxLabels && s&(1<<label) != 0
}

// HasAll returns true if every label in 'other' is also in s.
func (s LabelSet) HasAll(other LabelSet) bool {
	return s&other == other
}

// Len returns the number of labels in the set.
func (s LabelSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Labels returns the labels in the set in ascending order.
func (s LabelSet) Labels() []LabelID {
	res := make([]LabelID, 0, s.Len())
	for i := LabelID(0); i < MaxLabels; i++ {
		if s.Has(i) {
			res = append(res, i)
		}
	}
	return res
}

func (s LabelSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range s.Labels() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", l)
	}
	b.WriteByte('}')
	return b.String()
}

// Direction indicates which end of an edge an EdgeRecord was reached from.
type Direction uint8

// Direction values.
const (
	Outgoing Direction = iota + 1
	Incoming
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "Outgoing"
	case Incoming:
		return "Incoming"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// EdgeRecord is an edge as seen from one of its endpoints. NodeID is the node
// the edge was reached from and OtherID is the node at the other end. For
// Outgoing records NodeID is the source, for Incoming records it is the
// target.
type EdgeRecord struct {
	EdgeID     EdgeID
	NodeID     NodeID
	OtherID    NodeID
	EdgeTypeID EdgeTypeID
	Direction  Direction
}

// Source returns the source node of the edge.
func (e EdgeRecord) Source() NodeID {
	if e.Direction == Incoming {
		return e.OtherID
	}
	return e.NodeID
}

// Target returns the target node of the edge.
func (e EdgeRecord) Target() NodeID {
	if e.Direction == Incoming {
		return e.NodeID
	}
	return e.OtherID
}

// NodeRecord describes a node stored in a DataPart.
type NodeRecord struct {
	ID     NodeID
	Labels LabelSet
}
