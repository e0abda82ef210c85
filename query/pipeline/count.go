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

// nullable is implemented by columns that may hold nulls.
type nullable interface {
	IsNull(row int) bool
}

// count consumes its whole input and produces a single row holding the number
// of input rows, or if 'tag' is valid, the number of non-null values in that
// column.
type count struct {
	processorBase
	tag   dataframe.Tag
	out   *dataframe.Const[uint64]
	total uint64
}

func (p *count) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *count) Execute() error {
	p.begin()
	in := p.inputs[0]
	for {
		ok, err := in.Fill()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		p.total += p.countRows(in.df, in.cursor, in.df.RowCount())
		in.Advance(in.Remaining())
	}
	p.out.Set(p.total, 1)
	p.finish()
	return nil
}

func (p *count) countRows(df *dataframe.Dataframe, from, to int) uint64 {
	if !p.tag.Valid() {
		return uint64(to - from)
	}
	col, ok := df.MustColumn(p.tag).(nullable)
	if !ok {
		return uint64(to - from)
	}
	n := uint64(0)
	for i := from; i < to; i++ {
		if !col.IsNull(i) {
			n++
		}
	}
	return n
}

func (p *count) Reset() {
	p.total = 0
	p.reset()
}
