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

package reader

import (
	"fmt"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// checkPropertyType returns an error if values of 'pt' cannot be read as T.
func checkPropertyType[T graph.Value](pt graph.PropertyType) error {
	if want := graph.ValueTypeOf[T](); pt.Type != want {
		return fmt.Errorf("invalid property type: %v holds %v values, not %v", pt, pt.Type, want)
	}
	return nil
}

// propertyInput is the batch of entities a property reader is working on.
type propertyInput[ID graph.EntityID] struct {
	ids  []ID
	base int
	row  int
}

func (in *propertyInput[ID]) set(ids []ID, base int) {
	in.ids = ids
	in.base = base
	in.row = 0
}

// Properties looks up one property of a batch of nodes or edges. Entities
// without the property are left out of the output; the Indices column maps
// each output row back to its input row.
type Properties[ID graph.EntityID, T graph.Value] struct {
	reader  graph.GraphReader
	pt      graph.PropertyType
	values  *dataframe.Vector[T]
	indices *dataframe.Vector[int]
	in      propertyInput[ID]
}

// NewProperties returns a reader of property 'pt'. It returns an error if the
// property's values are not of type T.
func NewProperties[ID graph.EntityID, T graph.Value](view *graph.GraphView, pt graph.PropertyType,
	values *dataframe.Vector[T], indices *dataframe.Vector[int]) (*Properties[ID, T], error) {

	if err := checkPropertyType[T](pt); err != nil {
		return nil, err
	}
	return &Properties[ID, T]{
		reader:  view.Read(),
		pt:      pt,
		values:  values,
		indices: indices,
	}, nil
}

// SetInput starts reading the property of a new batch of entities. 'base' is
// the row of the input Dataframe holding ids[0].
func (r *Properties[ID, T]) SetInput(ids []ID, base int) {
	r.in.set(ids, base)
}

// Consumed returns how many input entities have been looked up.
func (r *Properties[ID, T]) Consumed() int {
	return r.in.row
}

// Status returns Finished once every entity of the batch has been looked up.
func (r *Properties[ID, T]) Status() Status {
	if r.in.row >= len(r.in.ids) {
		return Finished
	}
	return InProgress
}

// Reset forgets the current input batch.
func (r *Properties[ID, T]) Reset() {
	r.in.set(nil, 0)
}

// Work appends up to 'budget' values to the output columns and returns how
// many it appended.
func (r *Properties[ID, T]) Work(budget int) int {
	n := 0
	for n < budget && r.in.row < len(r.in.ids) {
		v, ok := graph.Property[T](r.reader, r.pt.ID, r.in.ids[r.in.row])
		if ok {
			r.values.Append(v)
			r.indices.Append(r.in.base + r.in.row)
			n++
		}
		r.in.row++
	}
	return n
}

// PropertiesWithNull looks up one property of a batch of nodes or edges,
// producing exactly one row per input entity: a null where the entity lacks
// the property. If it has an Indices column, that column receives the input
// row of every output row.
type PropertiesWithNull[ID graph.EntityID, T graph.Value] struct {
	reader  graph.GraphReader
	pt      graph.PropertyType
	values  *dataframe.OptVector[T]
	indices *dataframe.Vector[int]
	in      propertyInput[ID]
}

// NewPropertiesWithNull returns a null-preserving reader of property 'pt'. It
// returns an error if the property's values are not of type T. 'indices' may
// be nil.
func NewPropertiesWithNull[ID graph.EntityID, T graph.Value](view *graph.GraphView, pt graph.PropertyType,
	values *dataframe.OptVector[T], indices *dataframe.Vector[int]) (*PropertiesWithNull[ID, T], error) {

	if err := checkPropertyType[T](pt); err != nil {
		return nil, err
	}
	return &PropertiesWithNull[ID, T]{
		reader:  view.Read(),
		pt:      pt,
		values:  values,
		indices: indices,
	}, nil
}

// SetInput starts reading the property of a new batch of entities.
func (r *PropertiesWithNull[ID, T]) SetInput(ids []ID, base int) {
	r.in.set(ids, base)
}

// Consumed returns how many input entities have been looked up.
func (r *PropertiesWithNull[ID, T]) Consumed() int {
	return r.in.row
}

// Status returns Finished once every entity of the batch has been looked up.
func (r *PropertiesWithNull[ID, T]) Status() Status {
	if r.in.row >= len(r.in.ids) {
		return Finished
	}
	return InProgress
}

// Reset forgets the current input batch.
func (r *PropertiesWithNull[ID, T]) Reset() {
	r.in.set(nil, 0)
}

// Work appends up to 'budget' values or nulls to the output column and
// returns how many it appended.
func (r *PropertiesWithNull[ID, T]) Work(budget int) int {
	n := 0
	for n < budget && r.in.row < len(r.in.ids) {
		if v, ok := graph.Property[T](r.reader, r.pt.ID, r.in.ids[r.in.row]); ok {
			r.values.Append(v)
		} else {
			r.values.AppendNull()
		}
		if r.indices != nil {
			r.indices.Append(r.in.base + r.in.row)
		}
		r.in.row++
		n++
	}
	return n
}
