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
	"testing"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/graph/graphtest"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// worker is satisfied by every reader.
type worker interface {
	Work(budget int) int
	Status() Status
}

// drain calls Work with the given budget until the reader finishes, checking
// that no call exceeds the budget.
func drain(t *testing.T, r worker, budget int) {
	for i := 0; r.Status() != Finished; i++ {
		n := r.Work(budget)
		require.True(t, n <= budget, "appended %d rows with budget %d", n, budget)
		require.True(t, i < 10000, "reader did not finish")
	}
}

func newEdgeColumns() EdgeColumns {
	return EdgeColumns{
		EdgeIDs:   dataframe.NewEdgeIDs(1),
		EdgeTypes: dataframe.NewEdgeTypeIDs(2),
		Others:    dataframe.NewNodeIDs(3),
	}
}

func Test_ScanNodes(t *testing.T) {
	s := graphtest.NewSimple()
	view := s.Graph.View()
	for budget := 1; budget <= 10; budget++ {
		t.Run(fmt.Sprintf("budget_%d", budget), func(t *testing.T) {
			out := dataframe.NewNodeIDs(1)
			r := NewScanNodes(view, out)
			drain(t, r, budget)
			assert.Equal(t, []graph.NodeID{0, 1, 2, 3, 4, 5, 6, 7, 8}, out.Values)
			r.Reset()
			out.Clear()
			drain(t, r, budget)
			assert.Equal(t, 9, out.Len())
		})
	}
}

func Test_ScanNodesByLabel(t *testing.T) {
	s := graphtest.NewSimple()
	out := dataframe.NewNodeIDs(1)
	r := NewScanNodesByLabel(s.Graph.View(), graph.NewLabelSet(s.Person), out)
	drain(t, r, 2)
	assert.Equal(t, []graph.NodeID{s.Remy, s.Adam, s.Maxime}, out.Values)

	out.Clear()
	r = NewScanNodesByLabel(s.Graph.View(), graph.NewLabelSet(s.Interest, s.Exotic), out)
	drain(t, r, 1)
	assert.Equal(t, []graph.NodeID{s.Eighties, s.Ghosts}, out.Values)
}

func Test_ScanEdges(t *testing.T) {
	s := graphtest.NewSimple()
	for budget := 1; budget <= 11; budget++ {
		sources := dataframe.NewNodeIDs(4)
		out := newEdgeColumns()
		drain(t, NewScanEdges(s.Graph.View(), sources, out), budget)
		assert.Equal(t, []graph.EdgeID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out.EdgeIDs.Values)
		assert.Equal(t, []graph.NodeID{0, 1, 0, 0, 0, 1, 1, 6, 7, 7}, sources.Values)
		assert.Equal(t, []graph.NodeID{1, 0, 6, 2, 3, 4, 5, 0, 4, 8}, out.Others.Values)
		assert.Equal(t, s.KnowsWell, out.EdgeTypes.Values[0])
		assert.Equal(t, s.InterestedIn, out.EdgeTypes.Values[9])
	}
}

func Test_ExpandOut(t *testing.T) {
	s := graphtest.NewSimple()
	input := []graph.NodeID{s.Remy, s.Adam, s.Maxime, s.Bio}
	for budget := 1; budget <= 10; budget++ {
		t.Run(fmt.Sprintf("budget_%d", budget), func(t *testing.T) {
			indices := dataframe.NewIndices(4)
			out := newEdgeColumns()
			r := NewExpand(s.Graph.View(), OutEdges, indices, out)
			// Offset the input as if it started at row 10 of its Dataframe.
			r.SetInput(input, 10)
			drain(t, r, budget)
			assert.Equal(t, 4, r.Consumed())
			assert.Equal(t, []graph.EdgeID{0, 2, 3, 4, 1, 5, 6, 8, 9}, out.EdgeIDs.Values)
			assert.Equal(t, []graph.NodeID{1, 6, 2, 3, 0, 4, 5, 4, 8}, out.Others.Values)
			assert.Equal(t, []int{10, 10, 10, 10, 11, 11, 11, 12, 12}, indices.Values)
		})
	}
}

func Test_ExpandIn(t *testing.T) {
	s := graphtest.NewSimple()
	indices := dataframe.NewIndices(4)
	out := newEdgeColumns()
	r := NewExpand(s.Graph.View(), InEdges, indices, out)
	r.SetInput([]graph.NodeID{s.Bio, s.Remy}, 0)
	drain(t, r, 3)
	assert.Equal(t, []graph.EdgeID{5, 8, 1, 7}, out.EdgeIDs.Values)
	assert.Equal(t, []graph.NodeID{s.Adam, s.Maxime, s.Adam, s.Ghosts}, out.Others.Values)
	assert.Equal(t, []int{0, 0, 1, 1}, indices.Values)
}

func Test_ExpandAll(t *testing.T) {
	s := graphtest.NewSimple()
	indices := dataframe.NewIndices(4)
	out := newEdgeColumns()
	r := NewExpand(s.Graph.View(), AllEdges, indices, out)
	r.SetInput([]graph.NodeID{s.Ghosts, s.Paddle, s.Cooking}, 0)
	drain(t, r, 1)
	assert.Equal(t, []graph.EdgeID{7, 2, 9, 6}, out.EdgeIDs.Values)
	assert.Equal(t, []graph.NodeID{s.Remy, s.Remy, s.Maxime, s.Adam}, out.Others.Values)
	assert.Equal(t, []int{0, 0, 1, 2}, indices.Values)

	// A new input batch starts from scratch.
	out.EdgeIDs.Clear()
	r.SetInput([]graph.NodeID{s.Paddle}, 0)
	assert.Equal(t, InProgress, r.Status())
	drain(t, r, 5)
	assert.Equal(t, []graph.EdgeID{9}, out.EdgeIDs.Values)
	r.Reset()
	assert.Equal(t, Finished, r.Status())
}

func Test_ReadersSkipTombstones(t *testing.T) {
	s := graphtest.NewSimple()
	b := s.Graph.NewCommitBuilder()
	b.DeleteNode(s.Adam)
	b.DeleteEdge(9)
	_, err := s.Graph.Commit(b)
	require.NoError(t, err)
	view := s.Graph.View()

	for budget := 1; budget <= 4; budget++ {
		nodes := dataframe.NewNodeIDs(1)
		drain(t, NewScanNodes(view, nodes), budget)
		assert.Equal(t, []graph.NodeID{0, 2, 3, 4, 5, 6, 7, 8}, nodes.Values)

		sources := dataframe.NewNodeIDs(4)
		edges := newEdgeColumns()
		drain(t, NewScanEdges(view, sources, edges), budget)
		assert.Equal(t, []graph.EdgeID{2, 3, 4, 7, 8}, edges.EdgeIDs.Values)

		indices := dataframe.NewIndices(4)
		expanded := newEdgeColumns()
		r := NewExpand(view, AllEdges, indices, expanded)
		r.SetInput([]graph.NodeID{s.Remy, s.Adam, s.Maxime}, 0)
		drain(t, r, budget)
		assert.Equal(t, []graph.EdgeID{2, 3, 4, 7, 8}, expanded.EdgeIDs.Values)
		assert.Equal(t, []int{0, 0, 0, 0, 2}, indices.Values)

		names := dataframe.NewOptVector[string](5)
		pr, err := NewPropertiesWithNull[graph.NodeID, string](view, s.Name, names, nil)
		require.NoError(t, err)
		pr.SetInput([]graph.NodeID{s.Remy, s.Adam}, 0)
		drain(t, pr, budget)
		assert.Equal(t, []bool{true, false}, names.Valid)
	}
	// The snapshot taken before the deletion still sees everything.
	old, err := s.Graph.ViewAt(s.Graph.Commits()[2])
	require.NoError(t, err)
	nodes := dataframe.NewNodeIDs(1)
	drain(t, NewScanNodes(old, nodes), 100)
	assert.Equal(t, 9, nodes.Len())
}

func Test_Properties(t *testing.T) {
	s := graphtest.NewSimple()
	view := s.Graph.View()
	input := []graph.NodeID{s.Remy, s.Computers, s.Adam, s.Bio}
	for budget := 1; budget <= 5; budget++ {
		values := dataframe.NewVector[int64](1)
		indices := dataframe.NewIndices(2)
		r, err := NewProperties[graph.NodeID, int64](view, s.Age, values, indices)
		require.NoError(t, err)
		r.SetInput(input, 3)
		drain(t, r, budget)
		assert.Equal(t, []int64{32, 32}, values.Values)
		assert.Equal(t, []int{3, 5}, indices.Values)
		assert.Equal(t, 4, r.Consumed())

		opt := dataframe.NewOptVector[int64](3)
		optIndices := dataframe.NewIndices(4)
		rn, err := NewPropertiesWithNull[graph.NodeID, int64](view, s.Age, opt, optIndices)
		require.NoError(t, err)
		rn.SetInput(input, 0)
		drain(t, rn, budget)
		assert.Equal(t, []int64{32, 0, 32, 0}, opt.Values)
		assert.Equal(t, []bool{true, false, true, false}, opt.Valid)
		assert.Equal(t, []int{0, 1, 2, 3}, optIndices.Values)
	}
}

func Test_EdgeProperties(t *testing.T) {
	s := graphtest.NewSimple()
	opt := dataframe.NewOptVector[int64](1)
	r, err := NewPropertiesWithNull[graph.EdgeID, int64](s.Graph.View(), s.Duration, opt, nil)
	require.NoError(t, err)
	r.SetInput([]graph.EdgeID{0, 3, 7}, 0)
	drain(t, r, 2)
	assert.Equal(t, []int64{20, 0, 200}, opt.Values)
	assert.Equal(t, []bool{true, false, true}, opt.Valid)
}

func Test_PropertiesInvalidType(t *testing.T) {
	s := graphtest.NewSimple()
	_, err := NewProperties[graph.NodeID, string](s.Graph.View(), s.Age,
		dataframe.NewVector[string](1), dataframe.NewIndices(2))
	assert.EqualError(t, err, "invalid property type: age:Int64 holds Int64 values, not String")
	_, err = NewPropertiesWithNull[graph.EdgeID, bool](s.Graph.View(), s.Duration,
		dataframe.NewOptVector[bool](1), nil)
	assert.Error(t, err)
}
