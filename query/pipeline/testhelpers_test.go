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
	"context"
	"strings"
	"testing"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// collector is a Lambda sink recording every row it receives, each row
// formatted as its space-separated column values. Rows and the largest chunk
// are per execution; resets and chunks accumulate.
type collector struct {
	rows     []string
	resets   int
	chunks   int
	maxChunk int
}

func (c *collector) sink(df *dataframe.Dataframe, op Operation) error {
	switch op {
	case OpReset:
		c.resets++
		c.rows = nil
		c.maxChunk = 0
	case OpExecute:
		c.chunks++
		c.maxChunk = max(c.maxChunk, df.RowCount())
		c.rows = append(c.rows, formatRows(df)...)
	}
	return nil
}

func formatRows(df *dataframe.Dataframe) []string {
	res := make([]string, df.RowCount())
	cols := df.Columns()
	for row := range res {
		vals := make([]string, len(cols))
		for i, col := range cols {
			vals[i] = col.Format(row)
		}
		res[row] = strings.Join(vals, " ")
	}
	return res
}

// query builds a pipeline with 'build', ends it with a collector, and returns
// both.
func query(build func(b *Builder) *Stream) (*Pipeline, *collector) {
	pl := New()
	c := new(collector)
	build(NewBuilder(pl)).Lambda(c.sink)
	return pl, c
}

// run builds and executes a query on the latest snapshot of 'g', returning the
// collected rows.
func run(t *testing.T, g *graph.Graph, chunkSize int, build func(b *Builder) *Stream) []string {
	pl, c := query(build)
	exec := NewExecutor(pl, NewExecutionContext(g.OpenTransaction(), chunkSize), nil)
	require.NoError(t, exec.Execute(ctx))
	require.True(t, c.maxChunk <= chunkSize,
		"sink received a chunk of %d rows with chunk size %d", c.maxChunk, chunkSize)
	return c.rows
}

// runErr builds and executes a query that is expected to fail.
func runErr(g *graph.Graph, build func(b *Builder) *Stream) error {
	pl, _ := query(build)
	return NewExecutor(pl, NewExecutionContext(g.OpenTransaction(), 0), nil).Execute(ctx)
}

// values returns a SourceFunc producing 'vals' into the Vector[int64] column
// 'tag', at most 'perChunk' values per call.
func values(tag dataframe.Tag, perChunk int, vals ...int64) SourceFunc {
	next := 0
	return func(df *dataframe.Dataframe, op Operation) (bool, error) {
		if op == OpReset {
			next = 0
			return false, nil
		}
		n := min(perChunk, len(vals)-next)
		dataframe.VectorOf[int64](df, tag).Append(vals[next : next+n]...)
		next += n
		return next == len(vals), nil
	}
}

// int64Source starts a stream of int64 values in a single column and returns
// it along with the column's tag.
func int64Source(b *Builder, perChunk int, vals ...int64) (*Stream, dataframe.Tag) {
	tag := b.AllocTag()
	return b.LambdaSource(values(tag, perChunk, vals...), dataframe.NewVector[int64](tag)), tag
}
