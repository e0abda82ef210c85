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

// drain appends every remaining row of 'in' to 'into', pulling until the
// producer finishes.
func drain(in *Port, into *dataframe.Dataframe) error {
	for {
		ok, err := in.Fill()
		if err != nil || !ok {
			return err
		}
		into.AppendRange(in.df, in.cursor, in.df.RowCount())
		in.Advance(in.Remaining())
	}
}

// cartesianProduct pairs every row of its left input with every row of its
// right input, the left input being the outer loop. The right input is
// buffered entirely on the first Execute; the left input is streamed. Between
// calls it remembers the current left row and the offset into the right rows,
// so chunks may split the pairs of a left row anywhere.
type cartesianProduct struct {
	processorBase
	// lhsTags and rhsTags partition the output columns by the side they come
	// from.
	lhsTags []dataframe.Tag
	rhsTags []dataframe.Tag
	rhs     *dataframe.Dataframe
	built   bool
	offset  int
}

func (p *cartesianProduct) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *cartesianProduct) Execute() error {
	p.begin()
	if !p.built {
		if err := drain(p.inputs[1], p.rhs); err != nil {
			return err
		}
		p.built = true
	}
	rhsRows := p.rhs.RowCount()
	if rhsRows == 0 {
		p.finish()
		return nil
	}
	lhs := p.inputs[0]
	out := p.output.df
	for budget := p.chunkSize(); budget > 0; {
		ok, err := lhs.Fill()
		if err != nil {
			return err
		}
		if !ok {
			p.finish()
			return nil
		}
		n := min(rhsRows-p.offset, budget)
		for _, tag := range p.lhsTags {
			out.MustColumn(tag).AppendRepeat(lhs.df.MustColumn(tag), lhs.cursor, n)
		}
		for _, tag := range p.rhsTags {
			out.MustColumn(tag).AppendRange(p.rhs.MustColumn(tag), p.offset, p.offset+n)
		}
		p.offset += n
		budget -= n
		if p.offset == rhsRows {
			lhs.Advance(1)
			p.offset = 0
		}
	}
	return nil
}

func (p *cartesianProduct) Reset() {
	p.rhs.Clear()
	p.built = false
	p.offset = 0
	p.reset()
}
