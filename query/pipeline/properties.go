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

// getProperties looks up one property of the input entities. Entities without
// the property produce no row; the Indices column refers back to the input
// row of each output row.
type getProperties[ID graph.EntityID, T graph.Value] struct {
	processorBase
	idTag   dataframe.Tag
	pt      graph.PropertyType
	values  *dataframe.Vector[T]
	indices *dataframe.Vector[int]
	reader  *reader.Properties[ID, T]
}

func (p *getProperties[ID, T]) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	r, err := reader.NewProperties[ID, T](ctx.View, p.pt, p.values, p.indices)
	if err != nil {
		return p.wrap(err, "cannot read property")
	}
	p.reader = r
	return nil
}

func (p *getProperties[ID, T]) Execute() error {
	p.begin()
	more, err := nextBatch(p.inputs[0], p.reader, func(df *dataframe.Dataframe, from int) {
		ids := dataframe.VectorOf[ID](df, p.idTag)
		p.reader.SetInput(ids.Values[from:], from)
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

func (p *getProperties[ID, T]) Reset() {
	if p.reader != nil {
		p.reader.Reset()
	}
	p.reset()
}

// getPropertiesWithNull looks up one property of the input entities,
// producing exactly one row per input row, with a null where the property is
// absent.
type getPropertiesWithNull[ID graph.EntityID, T graph.Value] struct {
	processorBase
	idTag   dataframe.Tag
	pt      graph.PropertyType
	values  *dataframe.OptVector[T]
	indices *dataframe.Vector[int]
	reader  *reader.PropertiesWithNull[ID, T]
}

func (p *getPropertiesWithNull[ID, T]) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	r, err := reader.NewPropertiesWithNull[ID, T](ctx.View, p.pt, p.values, p.indices)
	if err != nil {
		return p.wrap(err, "cannot read property")
	}
	p.reader = r
	return nil
}

func (p *getPropertiesWithNull[ID, T]) Execute() error {
	p.begin()
	more, err := nextBatch(p.inputs[0], p.reader, func(df *dataframe.Dataframe, from int) {
		ids := dataframe.VectorOf[ID](df, p.idTag)
		p.reader.SetInput(ids.Values[from:], from)
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

func (p *getPropertiesWithNull[ID, T]) Reset() {
	if p.reader != nil {
		p.reader.Reset()
	}
	p.reset()
}
