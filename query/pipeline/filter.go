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
	"fmt"
	"strings"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// Predicate decides which rows a Filter keeps.
type Predicate interface {
	fmt.Stringer
	// Select appends to 'rows' the index of every row in [from, to) of 'df'
	// that satisfies the predicate, in ascending order, and returns the
	// extended slice.
	Select(ctx *ExecutionContext, df *dataframe.Dataframe, from, to int, rows []int) []int
}

// ColumnPredicate keeps the rows where a bool column is true. The column may
// be a Vector or an OptVector; nulls count as false.
type ColumnPredicate dataframe.Tag

func (p ColumnPredicate) String() string {
	return dataframe.Tag(p).String()
}

// Select implements Predicate.
func (p ColumnPredicate) Select(_ *ExecutionContext, df *dataframe.Dataframe, from, to int, rows []int) []int {
	switch col := df.MustColumn(dataframe.Tag(p)).(type) {
	case *dataframe.Vector[bool]:
		for i := from; i < to; i++ {
			if col.Values[i] {
				rows = append(rows, i)
			}
		}
	case *dataframe.OptVector[bool]:
		for i := from; i < to; i++ {
			if col.Valid[i] && col.Values[i] {
				rows = append(rows, i)
			}
		}
	default:
		panic(fmt.Sprintf("ColumnPredicate: column %v is a %T, not a bool column", dataframe.Tag(p), col))
	}
	return rows
}

// NodeHasLabels keeps the rows whose node carries every label in Labels.
type NodeHasLabels struct {
	Nodes  dataframe.Tag
	Labels graph.LabelSet
}

func (p NodeHasLabels) String() string {
	return fmt.Sprintf("%v has labels %v", p.Nodes, p.Labels)
}

// Select implements Predicate.
func (p NodeHasLabels) Select(ctx *ExecutionContext, df *dataframe.Dataframe, from, to int, rows []int) []int {
	nodes := dataframe.VectorOf[graph.NodeID](df, p.Nodes)
	r := ctx.View.Read()
	for i := from; i < to; i++ {
		labels, found := r.NodeLabels(nodes.Values[i])
		if found && labels.HasAll(p.Labels) {
			rows = append(rows, i)
		}
	}
	return rows
}

// EdgeTypeIn keeps the rows whose edge type is one of Types.
type EdgeTypeIn struct {
	EdgeTypes dataframe.Tag
	Types     []graph.EdgeTypeID
}

func (p EdgeTypeIn) String() string {
	types := make([]string, len(p.Types))
	for i, t := range p.Types {
		types[i] = fmt.Sprint(t)
	}
	return fmt.Sprintf("%v in {%s}", p.EdgeTypes, strings.Join(types, ","))
}

// Select implements Predicate.
func (p EdgeTypeIn) Select(_ *ExecutionContext, df *dataframe.Dataframe, from, to int, rows []int) []int {
	col := dataframe.VectorOf[graph.EdgeTypeID](df, p.EdgeTypes)
	for i := from; i < to; i++ {
		for _, t := range p.Types {
			if col.Values[i] == t {
				rows = append(rows, i)
				break
			}
		}
	}
	return rows
}

// PredicateFunc keeps the rows for which Fn returns true.
type PredicateFunc struct {
	Name string
	Fn   func(df *dataframe.Dataframe, row int) bool
}

func (p PredicateFunc) String() string {
	return p.Name
}

// Select implements Predicate.
func (p PredicateFunc) Select(_ *ExecutionContext, df *dataframe.Dataframe, from, to int, rows []int) []int {
	for i := from; i < to; i++ {
		if p.Fn(df, i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// filter copies the input rows that satisfy a predicate, preserving their
// order.
type filter struct {
	processorBase
	pred Predicate
	rows []int
}

func (p *filter) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *filter) Execute() error {
	p.begin()
	in := p.inputs[0]
	ok, err := in.Fill()
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	from := in.cursor
	to := from + min(in.Remaining(), p.chunkSize())
	p.rows = p.pred.Select(p.ctx, in.df, from, to, p.rows[:0])
	p.output.df.AppendRows(in.df, p.rows)
	in.Advance(to - from)
	return nil
}

func (p *filter) Reset() {
	p.rows = p.rows[:0]
	p.reset()
}
