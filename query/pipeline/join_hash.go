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
	"github.com/dolthub/swiss"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// hashJoin is an equi-join. On the first Execute it reads the whole build
// input into a buffer and indexes it by key, keeping the rows of each key in
// input order. It then streams the probe input, emitting for each probe row
// one output row per build row with an equal key: the probe columns followed
// by the build columns. A probe row's matches may be split across several
// Execute calls; the current probe row and the offset into its match list
// persist between calls.
type hashJoin[K comparable] struct {
	processorBase
	probeKey  dataframe.Tag
	buildKey  dataframe.Tag
	probeTags []dataframe.Tag
	buildTags []dataframe.Tag
	build     *dataframe.Dataframe
	table     *swiss.Map[K, []int]
	built     bool
	// matches holds the build rows matching the probe row at the input
	// port's cursor, once that row has been looked up.
	matches []int
	looked  bool
	offset  int
}

func (p *hashJoin[K]) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *hashJoin[K]) buildTable() error {
	if err := drain(p.inputs[1], p.build); err != nil {
		return err
	}
	keys := dataframe.VectorOf[K](p.build, p.buildKey)
	p.table = swiss.NewMap[K, []int](uint32(len(keys.Values)))
	for row, key := range keys.Values {
		rows, _ := p.table.Get(key)
		p.table.Put(key, append(rows, row))
	}
	p.built = true
	return nil
}

func (p *hashJoin[K]) Execute() error {
	p.begin()
	if !p.built {
		if err := p.buildTable(); err != nil {
			return err
		}
	}
	if p.table.Count() == 0 {
		p.finish()
		return nil
	}
	probe := p.inputs[0]
	out := p.output.df
	for budget := p.chunkSize(); budget > 0; {
		if !p.looked {
			ok, err := probe.Fill()
			if err != nil {
				return err
			}
			if !ok {
				p.finish()
				return nil
			}
			key := dataframe.VectorOf[K](probe.df, p.probeKey).Values[probe.cursor]
			p.matches, _ = p.table.Get(key)
			p.offset = 0
			if len(p.matches) == 0 {
				probe.Advance(1)
				continue
			}
			p.looked = true
		}
		n := min(len(p.matches)-p.offset, budget)
		for _, tag := range p.probeTags {
			out.MustColumn(tag).AppendRepeat(probe.df.MustColumn(tag), probe.cursor, n)
		}
		rows := p.matches[p.offset : p.offset+n]
		for _, tag := range p.buildTags {
			out.MustColumn(tag).AppendRows(p.build.MustColumn(tag), rows)
		}
		p.offset += n
		budget -= n
		if p.offset == len(p.matches) {
			probe.Advance(1)
			p.looked = false
			p.matches = nil
		}
	}
	return nil
}

func (p *hashJoin[K]) Reset() {
	p.build.Clear()
	p.table = nil
	p.built = false
	p.matches = nil
	p.looked = false
	p.offset = 0
	p.reset()
}
