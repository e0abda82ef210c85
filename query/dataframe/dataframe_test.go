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

package dataframe

import (
	"strings"
	"testing"

	"github.com/ebay/chunkgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ManagerTagsAreUnique(t *testing.T) {
	m := NewManager()
	seen := make(map[Tag]bool)
	for i := 0; i < 100; i++ {
		tag := m.AllocTag()
		assert.True(t, tag.Valid())
		assert.False(t, seen[tag], "tag %v reused", tag)
		seen[tag] = true
	}
	assert.False(t, Tag(0).Valid())
	df := m.NewDataframe()
	assert.Equal(t, []*Dataframe{df}, m.Dataframes())
}

func Test_DataframeSizeAndRows(t *testing.T) {
	assert := assert.New(t)
	df := New()
	assert.Equal(0, df.Size())
	assert.Equal(0, df.RowCount())
	nodes := NewNodeIDs(1)
	names := NewOptVector[string](2)
	df.Add(nodes)
	df.Add(names)
	assert.Equal(2, df.Size())
	assert.Equal(0, df.RowCount(), "zero-row dataframes are valid")
	nodes.Append(5, 6, 7)
	names.Append("a")
	names.AppendNull()
	names.Append("c")
	assert.Equal(3, df.RowCount())
	assert.NoError(df.Aligned())
	assert.Equal([]Tag{1, 2}, df.Tags())
	assert.Same(nodes, VectorOf[graph.NodeID](df, 1))
	assert.Same(names, OptVectorOf[string](df, 2))
	assert.Nil(df.Column(3))
	assert.False(df.Has(3))
	assert.Panics(func() { df.MustColumn(3) })
	assert.Panics(func() { VectorOf[graph.EdgeID](df, 1) })
	assert.Panics(func() { df.Add(NewEdgeIDs(1)) })

	nodes.Append(8)
	assert.EqualError(df.Aligned(), "column $2 has 3 rows, expected 4")
	df.Truncate(3)
	assert.NoError(df.Aligned())
	df.Clear()
	assert.Equal(0, df.RowCount())
	assert.Equal(2, df.Size())
}

func Test_VectorAppends(t *testing.T) {
	src := NewVector[int64](1)
	src.Append(10, 11, 12, 13)
	dst := src.CloneEmpty().(*Vector[int64])
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, VectorKind, dst.Kind())
	dst.AppendRange(src, 1, 3)
	dst.AppendRows(src, []int{3, 0, 3})
	dst.AppendRepeat(src, 2, 2)
	assert.Equal(t, []int64{11, 12, 13, 10, 13, 12, 12}, dst.Values)
	assert.Panics(t, func() { dst.AppendRange(NewVector[int32](1), 0, 0) })
}

func Test_OptVectorAppends(t *testing.T) {
	src := NewOptVector[bool](1)
	src.Append(true)
	src.AppendNull()
	src.Append(false)
	dst := src.CloneEmpty().(*OptVector[bool])
	dst.AppendRows(src, []int{1, 2})
	dst.AppendRange(src, 0, 1)
	dst.AppendRepeat(src, 1, 2)
	assert.Equal(t, []bool{false, false, true, false, false}, dst.Values)
	assert.Equal(t, []bool{false, true, true, false, false}, dst.Valid)
	v, ok := dst.Get(1)
	assert.True(t, ok)
	assert.False(t, v)
	assert.Equal(t, "null", dst.Format(0))
	assert.Equal(t, "true", dst.Format(2))
	dst.Truncate(1)
	assert.Equal(t, 1, dst.Len())
}

func Test_ConstAppends(t *testing.T) {
	src := NewConst[uint64](1)
	src.Set(42, 3)
	dst := src.CloneEmpty().(*Const[uint64])
	dst.AppendRange(src, 1, 3)
	dst.AppendRepeat(src, 0, 4)
	assert.Equal(t, 6, dst.Len())
	assert.Equal(t, uint64(42), dst.Value())
	assert.Equal(t, "42", dst.Format(5))
	other := NewConst[uint64](1)
	other.Set(7, 1)
	assert.Panics(t, func() { dst.AppendRange(other, 0, 1) })
	dst.Clear()
	dst.AppendRange(other, 0, 1)
	assert.Equal(t, uint64(7), dst.Value())
}

func Test_DataframeAppendByTag(t *testing.T) {
	a := NewNodeIDs(1)
	a.Append(1, 2, 3)
	b := NewIndices(2)
	b.Append(0, 0, 1)
	src := New(a, b)
	// Column order may differ; columns are matched by tag.
	dst := New(NewIndices(2), NewNodeIDs(1))
	dst.AppendRange(src, 1, 3)
	dst.AppendRows(src, []int{0})
	assert.Equal(t, []int{0, 1, 0}, VectorOf[int](dst, 2).Values)
	assert.Equal(t, []graph.NodeID{2, 3, 1}, VectorOf[graph.NodeID](dst, 1).Values)
}

func Test_PrettyPrint(t *testing.T) {
	nodes := NewNodeIDs(1)
	nodes.Append(3, 1004)
	names := NewOptVector[string](2)
	names.Append("Remy")
	names.AppendNull()
	df := New(nodes, names)
	var buf strings.Builder
	require.NoError(t, df.PrettyPrint(&buf))
	assert.Equal(t, `
 $1:NodeIDs | $2:OptVector |
 ---------- | ------------ |
 3          | Remy         |
 1004       | null         |
 ---------- | ------------ |
 2 rows     |              |
`, "\n"+buf.String())
}
