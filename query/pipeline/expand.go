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
	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/query/reader"
)

// batchReader is a reader that works through one input batch at a time.
type batchReader interface {
	Work(budget int) int
	Status() reader.Status
	Reset()
}

// nextBatch hands the remaining rows of the input chunk to 'r' once r has
// finished its current batch. It marks those rows as taken right away: they
// stay in the input Dataframe until the next Fill, which only happens once
// every output row referring to them has been consumed downstream. It returns
// false when the input is exhausted.
func nextBatch(in *Port, r batchReader, setInput func(df *dataframe.Dataframe, from int)) (bool, error) {
	if r.Status() != reader.Finished {
		return true, nil
	}
	ok, err := in.Fill()
	if err != nil || !ok {
		return false, err
	}
	setInput(in.df, in.cursor)
	in.Advance(in.Remaining())
	return true, nil
}

// expand produces the edges adjacent to each input node, along with an
// Indices column referring back to the input row. It never mixes two input
// chunks in one output chunk.
type expand struct {
	processorBase
	expansion reader.Expansion
	nodesTag  dataframe.Tag
	indices   *dataframe.Vector[int]
	edges     reader.EdgeColumns
	reader    *reader.Expand
}

func (p *expand) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	p.reader = reader.NewExpand(ctx.View, p.expansion, p.indices, p.edges)
	return nil
}

func (p *expand) Execute() error {
	p.begin()
	more, err := nextBatch(p.inputs[0], p.reader, func(df *dataframe.Dataframe, from int) {
		nodes := dataframe.VectorOf[graph.NodeID](df, p.nodesTag)
		p.reader.SetInput(nodes.Values[from:], from)
	})
	if err != nil {
		return err
	}
	if !more {
		p.finish()
		return nil
	}
	p.reader.Work(p.chunkSize())
	return nil
}

func (p *expand) Reset() {
	if p.reader != nil {
		p.reader.Reset()
	}
	p.reset()
}
