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
	"github.com/ebay/chunkgraph/query/dataframe"
)

// matStep is one level of a chain of processors linked by Indices columns.
// The first step holds flat columns; every later step holds an Indices column
// referring to rows of the previous step's Dataframe.
type matStep struct {
	df *dataframe.Dataframe
	// indices is the tag of the Indices column in df. It is not valid for the
	// first step.
	indices dataframe.Tag
	// tags lists the columns of df to carry into flat rows.
	tags []dataframe.Tag
}

// materialize turns the output of a chain of expansions into flat rows: for
// every input row it follows the Indices columns back through each step and
// copies the carried columns of every step.
type materialize struct {
	processorBase
	steps []matStep
	rows  []int
	next  []int
}

func (p *materialize) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *materialize) Execute() error {
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
	n := min(in.Remaining(), p.chunkSize())
	p.rows = p.rows[:0]
	for i := in.cursor; i < in.cursor+n; i++ {
		p.rows = append(p.rows, i)
	}
	out := p.output.df
	for k := len(p.steps) - 1; k >= 0; k-- {
		step := p.steps[k]
		for _, tag := range step.tags {
			out.MustColumn(tag).AppendRows(step.df.MustColumn(tag), p.rows)
		}
		if k > 0 {
			indices := dataframe.VectorOf[int](step.df, step.indices)
			p.next = p.next[:0]
			for _, row := range p.rows {
				p.next = append(p.next, indices.Values[row])
			}
			p.rows, p.next = p.next, p.rows
		}
	}
	in.Advance(n)
	return nil
}

func (p *materialize) Reset() {
	p.rows = p.rows[:0]
	p.next = p.next[:0]
	p.reset()
}
