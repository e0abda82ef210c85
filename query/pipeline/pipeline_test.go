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

package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/graph/graphtest"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/util/clocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SimpleQueries(t *testing.T) {
	s := graphtest.NewSimple()
	tests := []struct {
		name  string
		build func(b *Builder) *Stream
		exp   []string
	}{
		{
			name:  "scan nodes",
			build: func(b *Builder) *Stream { return b.ScanNodes() },
			exp:   []string{"0", "1", "2", "3", "4", "5", "6", "7", "8"},
		},
		{
			name: "names of people",
			build: func(b *Builder) *Stream {
				st := b.ScanNodesByLabel(graph.NewLabelSet(s.Person))
				GetProperties[graph.NodeID, string](st, st.NodeIDs(), s.Name)
				return st
			},
			exp: []string{"0 Remy", "1 Adam", "7 Maxime"},
		},
		{
			name: "two hops",
			build: func(b *Builder) *Stream {
				st := b.ScanNodesByLabel(graph.NewLabelSet(s.Person))
				start := st.NodeIDs()
				hop1 := st.GetOutEdges().NodeIDs()
				hop2 := st.GetOutEdges().NodeIDs()
				return st.Projection(start, hop1, hop2)
			},
			exp: []string{
				"0 1 0", "0 1 4", "0 1 5", "0 6 0",
				"1 0 1", "1 0 6", "1 0 2", "1 0 3",
			},
		},
		{
			name: "in edges",
			build: func(b *Builder) *Stream {
				st := b.ScanNodesByLabel(graph.NewLabelSet(s.Exotic)).GetInEdges()
				GetPropertiesWithNull[graph.EdgeID, string](st, st.EdgeIDs(), s.Proficiency)
				return st.Projection(st.Origins(), st.EdgeIDs(), st.NodeIDs(), st.Last())
			},
			exp: []string{"3 4 0 moderate", "6 2 0 expert"},
		},
		{
			name: "nullable edge property",
			build: func(b *Builder) *Stream {
				st := b.ScanNodesByLabel(graph.NewLabelSet(s.Founder)).GetOutEdges()
				d := GetPropertiesWithNull[graph.EdgeID, int64](st, st.EdgeIDs(), s.Duration)
				return st.Projection(st.EdgeIDs(), d)
			},
			exp: []string{"0 20", "2 20", "3 null", "4 20", "1 20", "5 null", "6 null"},
		},
		{
			name: "missing properties are dropped",
			build: func(b *Builder) *Stream {
				st := b.ScanNodes()
				GetProperties[graph.NodeID, bool](st, st.NodeIDs(), s.IsReal)
				return st
			},
			exp: []string{"2 true", "3 false", "6 true"},
		},
		{
			name: "edge type filter",
			build: func(b *Builder) *Stream {
				st := b.ScanEdges()
				st.Filter(EdgeTypeIn{EdgeTypes: st.EdgeTypes(), Types: []graph.EdgeTypeID{s.KnowsWell}})
				return st.Projection(st.Origins(), st.EdgeIDs(), st.NodeIDs())
			},
			exp: []string{"0 0 1", "1 1 0", "6 7 0"},
		},
		{
			name: "label filter",
			build: func(b *Builder) *Stream {
				st := b.ScanEdges()
				st.Filter(NodeHasLabels{Nodes: st.NodeIDs(), Labels: graph.NewLabelSet(s.Exotic)})
				return st.Projection(st.EdgeIDs())
			},
			exp: []string{"2", "4"},
		},
		{
			name: "column filter",
			build: func(b *Builder) *Stream {
				st := b.ScanNodes()
				isReal := GetProperties[graph.NodeID, bool](st, st.NodeIDs(), s.IsReal)
				return st.Filter(ColumnPredicate(isReal)).Projection(st.NodeIDs())
			},
			exp: []string{"2", "6"},
		},
		{
			name: "skip and limit",
			build: func(b *Builder) *Stream {
				st := b.ScanEdges()
				return st.Projection(st.EdgeIDs()).Skip(3).Limit(4)
			},
			exp: []string{"3", "4", "5", "6"},
		},
		{
			name: "count edges of every node",
			build: func(b *Builder) *Stream {
				st := b.ScanNodes().GetEdges()
				st.Count()
				return st
			},
			exp: []string{"20"},
		},
		{
			name: "count values",
			build: func(b *Builder) *Stream {
				st := b.ScanNodes()
				age := GetPropertiesWithNull[graph.NodeID, int64](st, st.NodeIDs(), s.Age)
				st.CountValues(age)
				return st
			},
			exp: []string{"2"},
		},
		{
			name: "all edges",
			build: func(b *Builder) *Stream {
				labels := s.Graph.Schema().Labels("Person", "Bioinformatics")
				st := b.ScanNodesByLabel(labels).GetEdges().Materialize()
				return st.Projection(st.EdgeIDs(), st.NodeIDs())
			},
			exp: []string{"1 0", "5 4", "6 5", "0 0", "8 4", "9 8"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, chunkSize := range []int{1, 2, 3, 4, 5, 7, 10, DefaultChunkSize} {
				rows := run(t, s.Graph, chunkSize, test.build)
				assert.Equal(t, test.exp, rows, "chunk size %d", chunkSize)
			}
		})
	}
}

func Test_ChunkSizeInvariance(t *testing.T) {
	g := graphtest.Random(rand.New(rand.NewSource(1)), 300, 4, 4, 7)
	n, ok := g.Schema().LookupPropertyType("n")
	require.True(t, ok)
	divisibleBy3 := func(tag dataframe.Tag) Predicate {
		return PredicateFunc{Name: "n%3 == 0", Fn: func(df *dataframe.Dataframe, row int) bool {
			return dataframe.VectorOf[int64](df, tag).Values[row]%3 == 0
		}}
	}
	queries := map[string]func(b *Builder) *Stream{
		"out then in": func(b *Builder) *Stream {
			st := b.ScanNodes()
			start := st.NodeIDs()
			st.GetOutEdges().GetInEdges()
			return st.Projection(start, st.Origins(), st.EdgeIDs(), st.NodeIDs())
		},
		"filter then expand": func(b *Builder) *Stream {
			st := b.ScanNodes()
			vals := GetProperties[graph.NodeID, int64](st, st.NodeIDs(), n)
			st.Filter(divisibleBy3(vals)).GetEdges()
			GetPropertiesWithNull[graph.NodeID, int64](st, st.NodeIDs(), n)
			return st.Skip(5).Limit(200)
		},
		"count two hops": func(b *Builder) *Stream {
			st := b.ScanEdges().GetEdges()
			st.Count()
			return st
		},
		"join edges with nodes": func(b *Builder) *Stream {
			edges := b.ScanEdges()
			nodes := b.ScanNodes()
			GetProperties[graph.NodeID, int64](nodes, nodes.NodeIDs(), n)
			return HashJoin[graph.NodeID](edges, nodes, edges.NodeIDs(), nodes.NodeIDs())
		},
	}
	for name, build := range queries {
		t.Run(name, func(t *testing.T) {
			exp := run(t, g, DefaultChunkSize, build)
			require.NotEmpty(t, exp)
			for _, chunkSize := range []int{1, 2, 3, 5, 8, 13, 100} {
				rows := run(t, g, chunkSize, build)
				assert.Equal(t, exp, rows, "chunk size %d", chunkSize)
			}
		})
	}
}

func Test_TombstonesHideDeletedEntities(t *testing.T) {
	s := graphtest.NewSimple()
	before := s.Graph.View()
	b := s.Graph.NewCommitBuilder()
	b.DeleteNode(s.Adam)
	_, err := s.Graph.Commit(b)
	require.NoError(t, err)

	build := func(b *Builder) *Stream {
		st := b.ScanNodes().GetEdges()
		return st.Projection(st.EdgeIDs())
	}
	for _, chunkSize := range []int{1, 3, 64} {
		rows := run(t, s.Graph, chunkSize, build)
		counts := make(map[string]int)
		for _, r := range rows {
			counts[r]++
		}
		// Every live edge is reached once from each end.
		assert.Equal(t, map[string]int{"2": 2, "3": 2, "4": 2, "7": 2, "8": 2, "9": 2}, counts)
	}

	pl, c := query(build)
	exec := NewExecutor(pl, NewExecutionContext(graph.NewFrozenCommitTx(before), 4), nil)
	require.NoError(t, exec.Execute(ctx))
	assert.Len(t, c.rows, 20)
}

func Test_HashJoin(t *testing.T) {
	g := graph.New("empty")
	for chunkSize := 1; chunkSize <= 6; chunkSize++ {
		rows := run(t, g, chunkSize, func(b *Builder) *Stream {
			probe, pk := int64Source(b, 2, 1, 2, 3, 4, 5)
			build, bk := int64Source(b, 3, 5, 4, 3, 2, 1)
			return HashJoin[int64](probe, build, pk, bk)
		})
		assert.Equal(t, []string{"1 1", "2 2", "3 3", "4 4", "5 5"}, rows)
	}
}

// pairs returns a SourceFunc producing all of 'keys' and 'vals' as two int64
// columns in a single chunk.
func pairs(keyTag, valTag dataframe.Tag, keys, vals []int64) SourceFunc {
	return func(df *dataframe.Dataframe, op Operation) (bool, error) {
		if op == OpExecute {
			dataframe.VectorOf[int64](df, keyTag).Append(keys...)
			dataframe.VectorOf[int64](df, valTag).Append(vals...)
		}
		return true, nil
	}
}

func Test_HashJoinMultiplicity(t *testing.T) {
	g := graph.New("empty")
	build := func(b *Builder) *Stream {
		probe, key := int64Source(b, 1, 1, 2, 7, 1)
		val := b.AllocTag()
		// The build side shares the probe's key tag, so the key appears once
		// in the output.
		buildSide := b.LambdaSource(
			pairs(key, val, []int64{1, 2, 1, 3, 1}, []int64{10, 20, 11, 30, 12}),
			dataframe.NewVector[int64](key), dataframe.NewVector[int64](val))
		return HashJoin[int64](probe, buildSide, key, key)
	}
	exp := []string{"1 10", "1 11", "1 12", "2 20", "1 10", "1 11", "1 12"}
	for chunkSize := 1; chunkSize <= 8; chunkSize++ {
		assert.Equal(t, exp, run(t, g, chunkSize, build), "chunk size %d", chunkSize)
	}
}

func Test_HashJoinEmptyBuildSkipsProbe(t *testing.T) {
	g := graph.New("empty")
	probeCalls := 0
	rows := run(t, g, 4, func(b *Builder) *Stream {
		key := b.AllocTag()
		probe := b.LambdaSource(func(df *dataframe.Dataframe, op Operation) (bool, error) {
			probeCalls++
			dataframe.VectorOf[int64](df, key).Append(1)
			return true, nil
		}, dataframe.NewVector[int64](key))
		build, bk := int64Source(b, 1)
		return HashJoin[int64](probe, build, key, bk)
	})
	assert.Empty(t, rows)
	assert.Equal(t, 0, probeCalls)
}

func Test_HashJoinDisjointKeys(t *testing.T) {
	g := graph.New("empty")
	for chunkSize := 1; chunkSize <= 6; chunkSize++ {
		rows := run(t, g, chunkSize, func(b *Builder) *Stream {
			probe, pk := int64Source(b, 2, 6, 7, 8, 9, 10)
			build, bk := int64Source(b, 3, 1, 2, 3, 4, 5)
			return HashJoin[int64](probe, build, pk, bk)
		})
		assert.Empty(t, rows, "chunk size %d", chunkSize)
	}
}

func Test_CartesianProduct(t *testing.T) {
	g := graph.New("empty")
	var exp []string
	for _, l := range []int64{1, 2, 3} {
		for _, r := range []int64{10, 20, 30, 40} {
			exp = append(exp, fmt.Sprintf("%d %d", l, r))
		}
	}
	for chunkSize := 1; chunkSize <= 13; chunkSize++ {
		rows := run(t, g, chunkSize, func(b *Builder) *Stream {
			lhs, _ := int64Source(b, 2, 1, 2, 3)
			rhs, _ := int64Source(b, 3, 10, 20, 30, 40)
			return lhs.CartesianProduct(rhs)
		})
		assert.Equal(t, exp, rows, "chunk size %d", chunkSize)
	}
	rows := run(t, g, 4, func(b *Builder) *Stream {
		lhs, _ := int64Source(b, 2, 1, 2, 3)
		rhs, _ := int64Source(b, 3)
		return lhs.CartesianProduct(rhs)
	})
	assert.Empty(t, rows)
}

func Test_SkipLimit(t *testing.T) {
	g := graph.New("empty")
	vals := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for skipN := 0; skipN <= 12; skipN++ {
		for limitN := 0; limitN <= 12; limitN++ {
			from := min(skipN, len(vals))
			to := min(skipN+limitN, len(vals))
			var exp []string
			for _, v := range vals[from:to] {
				exp = append(exp, fmt.Sprint(v))
			}
			for _, chunkSize := range []int{1, 4, 16} {
				rows := run(t, g, chunkSize, func(b *Builder) *Stream {
					st, _ := int64Source(b, min(3, chunkSize), vals...)
					return st.Skip(uint64(skipN)).Limit(uint64(limitN))
				})
				assert.Equal(t, exp, rows, "skip %d limit %d chunk size %d", skipN, limitN, chunkSize)
			}
		}
	}
}

func Test_ExecuteTwice(t *testing.T) {
	s := graphtest.NewSimple()
	pl, c := query(func(b *Builder) *Stream { return b.ScanNodes().Limit(7) })
	exec := NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 3), nil)
	require.NoError(t, exec.Execute(ctx))
	first := c.rows
	assert.Len(t, first, 7)
	assert.Equal(t, 1, c.resets)
	assert.Equal(t, 3, c.chunks)
	require.NoError(t, exec.Execute(ctx))
	assert.Equal(t, first, c.rows)
	assert.Equal(t, 2, c.resets)
	assert.Equal(t, 6, c.chunks)
	for _, p := range pl.Processors() {
		assert.Equal(t, Finished.String(), p.State().String(), "%v", p.Describe())
	}
}

func Test_ExecuteWithNewContext(t *testing.T) {
	s := graphtest.NewSimple()
	before := s.Graph.View()
	b := s.Graph.NewCommitBuilder()
	b.DeleteNode(s.Adam)
	_, err := s.Graph.Commit(b)
	require.NoError(t, err)

	pl, c := query(func(b *Builder) *Stream { return b.ScanNodes() })
	exec := NewExecutor(pl, NewExecutionContext(graph.NewFrozenCommitTx(before), 16), nil)
	require.NoError(t, exec.Execute(ctx))
	assert.Len(t, c.rows, 9)
	assert.Equal(t, 1, c.chunks)

	exec = NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 2), nil)
	require.NoError(t, exec.Execute(ctx))
	assert.Len(t, c.rows, 8)
	assert.NotContains(t, c.rows, fmt.Sprint(s.Adam))
	assert.Equal(t, 2, c.maxChunk)

	// The same context again only resets the processors.
	require.NoError(t, exec.Execute(ctx))
	assert.Len(t, c.rows, 8)
	assert.Equal(t, 3, c.resets)
}

func Test_ExpandKinds(t *testing.T) {
	pl := New()
	b := NewBuilder(pl)
	b.ScanNodes().GetOutEdges().GetInEdges().GetEdges()
	var kinds []string
	for _, p := range pl.Processors() {
		kinds = append(kinds, p.Kind())
	}
	assert.Equal(t, []string{"ScanNodes", "GetOutEdges", "GetInEdges", "GetEdges"}, kinds)
	assert.True(t, strings.HasPrefix(pl.Processors()[1].Describe(), "GetOutEdges $1 -> "),
		pl.Processors()[1].Describe())
}

func Test_EmptyPipeline(t *testing.T) {
	s := graphtest.NewSimple()
	exec := NewExecutor(New(), NewExecutionContext(s.Graph.OpenTransaction(), 0), nil)
	assert.NoError(t, exec.Execute(ctx))
}

func Test_PropertyTypeError(t *testing.T) {
	s := graphtest.NewSimple()
	err := runErr(s.Graph, func(b *Builder) *Stream {
		st := b.ScanNodes()
		GetProperties[graph.NodeID, string](st, st.NodeIDs(), s.Age)
		return st
	})
	assert.EqualError(t, err, "GetProperties $1.age:Int64 -> $2,$3: cannot read property: "+
		"invalid property type: age:Int64 holds Int64 values, not String")
	var pipelineErr *Error
	assert.True(t, errors.As(err, &pipelineErr))
}

func Test_CallbackErrors(t *testing.T) {
	s := graphtest.NewSimple()
	broken := errors.New("broken sink")
	pl := New()
	NewBuilder(pl).ScanNodes().Lambda(func(df *dataframe.Dataframe, op Operation) error {
		if op == OpExecute {
			return broken
		}
		return nil
	})
	err := NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 0), nil).Execute(ctx)
	assert.True(t, errors.Is(err, broken))

	err = runErr(s.Graph, func(b *Builder) *Stream {
		a, c := b.AllocTag(), b.AllocTag()
		return b.LambdaSource(func(df *dataframe.Dataframe, op Operation) (bool, error) {
			dataframe.VectorOf[int64](df, a).Append(1)
			return true, nil
		}, dataframe.NewVector[int64](a), dataframe.NewVector[int64](c))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback produced an invalid chunk")
}

func Test_Change(t *testing.T) {
	s := graphtest.NewSimple()
	changes := graph.NewChangeManager(s.Graph)
	runChange := func(tx graph.Transaction, op ChangeOp) ([]string, error) {
		pl, c := query(func(b *Builder) *Stream { return b.Change(op) })
		execCtx := NewExecutionContext(tx, 0)
		execCtx.Changes = changes
		err := NewExecutor(pl, execCtx, nil).Execute(ctx)
		return c.rows, err
	}

	rows, err := runChange(s.Graph.OpenTransaction(), ChangeNew)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, rows)
	rows, err = runChange(s.Graph.OpenTransaction(), ChangeNew)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, rows)
	rows, err = runChange(s.Graph.OpenTransaction(), ChangeList)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, rows)

	_, err = runChange(s.Graph.OpenTransaction(), ChangeSubmit)
	assert.EqualError(t, err, "Change SUBMIT -> $1: Transaction must be writing a pending commit")

	commits := len(s.Graph.Commits())
	tx, err := changes.OpenTransaction(1)
	require.NoError(t, err)
	rows, err = runChange(tx, ChangeSubmit)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, rows)
	assert.Len(t, s.Graph.Commits(), commits+1)

	tx, err = changes.OpenTransaction(2)
	require.NoError(t, err)
	rows, err = runChange(tx, ChangeDelete)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, rows)
	assert.Empty(t, changes.List())

	_, err = runChange(tx, ChangeDelete)
	var changeErr *graph.ChangeError
	require.True(t, errors.As(err, &changeErr), "%v", err)
	assert.Equal(t, graph.ChangeID(2), changeErr.ChangeID)
}

// recordingEvents collects every OpCompletedEvent.
type recordingEvents struct {
	clock  *clocks.Mock
	lock   sync.Mutex
	events []OpCompletedEvent
}

func (r *recordingEvents) OpCompleted(event OpCompletedEvent) {
	r.lock.Lock()
	r.events = append(r.events, event)
	r.lock.Unlock()
}

func (r *recordingEvents) Clock() clocks.Source {
	return r.clock
}

func Test_Events(t *testing.T) {
	s := graphtest.NewSimple()
	events := &recordingEvents{clock: clocks.NewMock()}
	pl, _ := query(func(b *Builder) *Stream { return b.ScanNodes().Limit(5) })
	exec := NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 2), events)
	require.NoError(t, exec.Execute(ctx))

	rowsOut := make(map[string]int)
	rowsIn := make(map[string]int)
	for _, e := range events.events {
		assert.NoError(t, e.Err)
		assert.Equal(t, events.clock.Now(), e.StartedAt)
		rowsOut[e.Processor.Kind()] += e.OutputRows
		rowsIn[e.Processor.Kind()] += e.InputRows
	}
	assert.Equal(t, 6, rowsOut["ScanNodes"])
	assert.Equal(t, 5, rowsOut["Limit"])
	assert.Equal(t, 5, rowsIn["Limit"])
	assert.Equal(t, 5, rowsIn["Lambda"])
}

func Test_SingleConsumer(t *testing.T) {
	b := NewBuilder(New())
	st := b.ScanNodes()
	st.Lambda(func(*dataframe.Dataframe, Operation) error { return nil })
	assert.Panics(t, func() { st.Limit(1) })

	lhs := b.ScanNodes()
	rhs := b.ScanNodes()
	lhs.CartesianProduct(rhs)
	assert.Panics(t, func() { rhs.Count() })
}

func Test_Dot(t *testing.T) {
	b := NewBuilder(New())
	st := b.ScanNodes().GetOutEdges()
	st.Lambda(func(*dataframe.Dataframe, Operation) error { return nil })
	var buf strings.Builder
	b.Pipeline().Dot(&buf)
	assert.Equal(t, `digraph pipeline {
node [shape=box];
p0 [label="ScanNodes\n-> $1"];
p1 [label="GetOutEdges\n$1 -> $2,$3,$4,$5"];
p2 [label="Materialize\n2 steps"];
p3 [label="Lambda"];
p0 -> p1 [label="$1"];
p1 -> p2 [label="$2,$3,$4,$5"];
p2 -> p3 [label="$1,$2,$3,$4"];
}
`, buf.String())
}
