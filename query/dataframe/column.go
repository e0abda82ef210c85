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

// Package dataframe defines the columnar containers that flow between pipeline
// processors. A Dataframe is an ordered set of columns, each identified by a
// Tag; every column in a Dataframe has the same number of rows.
package dataframe

import (
	"fmt"

	"github.com/ebay/chunkgraph/graph"
)

// Tag identifies a column by its role in a pipeline. Tags are allocated by a
// Manager and are never reused within that Manager. The zero Tag is invalid.
type Tag uint32

// Valid returns true for any Tag allocated by a Manager.
func (t Tag) Valid() bool {
	return t != 0
}

func (t Tag) String() string {
	return fmt.Sprintf("$%d", uint32(t))
}

// Kind describes the role of a column's values.
type Kind uint8

// Kind values.
const (
	NodeIDs Kind = iota + 1
	EdgeIDs
	EdgeTypeIDs
	// Indices columns hold row numbers in an upstream Dataframe.
	Indices
	VectorKind
	OptVectorKind
	ConstKind
)

func (k Kind) String() string {
	switch k {
	case NodeIDs:
		return "NodeIDs"
	case EdgeIDs:
		return "EdgeIDs"
	case EdgeTypeIDs:
		return "EdgeTypeIDs"
	case Indices:
		return "Indices"
	case VectorKind:
		return "Vector"
	case OptVectorKind:
		return "OptVector"
	case ConstKind:
		return "Const"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Column is a typed sequence of values. The Append methods require 'src' to
// have the same concrete type as the receiver; anything else is a programming
// error and panics.
type Column interface {
	Tag() Tag
	Kind() Kind
	Len() int
	// Clear removes every row.
	Clear()
	// Truncate removes all rows from n onwards.
	Truncate(n int)
	// AppendRange appends rows [from, to) of src.
	AppendRange(src Column, from, to int)
	// AppendRows appends the rows of src at the given positions, in order.
	AppendRows(src Column, rows []int)
	// AppendRepeat appends row 'row' of src n times.
	AppendRepeat(src Column, row, n int)
	// CloneEmpty returns an empty column of the same type, kind and tag.
	CloneEmpty() Column
	// Format returns a human-readable rendering of one value.
	Format(row int) string
}

func mismatch(dst, src Column) {
	panic(fmt.Sprintf("dataframe: cannot append %v column %v (%T) to %v column %v (%T)",
		src.Kind(), src.Tag(), src, dst.Kind(), dst.Tag(), dst))
}

// Vector is a column of mandatory values. It backs the NodeIDs, EdgeIDs,
// EdgeTypeIDs, Indices and Vector kinds.
type Vector[T any] struct {
	tag    Tag
	kind   Kind
	Values []T
}

// NewVector returns an empty Vector column of kind VectorKind.
func NewVector[T any](tag Tag) *Vector[T] {
	return &Vector[T]{tag: tag, kind: VectorKind}
}

// NewNodeIDs returns an empty NodeIDs column.
func NewNodeIDs(tag Tag) *Vector[graph.NodeID] {
	return &Vector[graph.NodeID]{tag: tag, kind: NodeIDs}
}

// NewEdgeIDs returns an empty EdgeIDs column.
func NewEdgeIDs(tag Tag) *Vector[graph.EdgeID] {
	return &Vector[graph.EdgeID]{tag: tag, kind: EdgeIDs}
}

// NewEdgeTypeIDs returns an empty EdgeTypeIDs column.
func NewEdgeTypeIDs(tag Tag) *Vector[graph.EdgeTypeID] {
	return &Vector[graph.EdgeTypeID]{tag: tag, kind: EdgeTypeIDs}
}

// NewIndices returns an empty Indices column.
func NewIndices(tag Tag) *Vector[int] {
	return &Vector[int]{tag: tag, kind: Indices}
}

// Tag implements Column.
func (c *Vector[T]) Tag() Tag { return c.tag }

// Kind implements Column.
func (c *Vector[T]) Kind() Kind { return c.kind }

// Len implements Column.
func (c *Vector[T]) Len() int { return len(c.Values) }

// Clear implements Column.
func (c *Vector[T]) Clear() { c.Values = c.Values[:0] }

// Truncate implements Column.
func (c *Vector[T]) Truncate(n int) {
	if n < len(c.Values) {
		c.Values = c.Values[:n]
	}
}

// Append adds values to the end of the column.
func (c *Vector[T]) Append(values ...T) {
	c.Values = append(c.Values, values...)
}

func (c *Vector[T]) source(src Column) *Vector[T] {
	s, ok := src.(*Vector[T])
	if !ok {
		mismatch(c, src)
	}
	return s
}

// AppendRange implements Column.
func (c *Vector[T]) AppendRange(src Column, from, to int) {
	c.Values = append(c.Values, c.source(src).Values[from:to]...)
}

// AppendRows implements Column.
func (c *Vector[T]) AppendRows(src Column, rows []int) {
	s := c.source(src)
	for _, r := range rows {
		c.Values = append(c.Values, s.Values[r])
	}
}

// AppendRepeat implements Column.
func (c *Vector[T]) AppendRepeat(src Column, row, n int) {
	v := c.source(src).Values[row]
	for i := 0; i < n; i++ {
		c.Values = append(c.Values, v)
	}
}

// CloneEmpty implements Column.
func (c *Vector[T]) CloneEmpty() Column {
	return &Vector[T]{tag: c.tag, kind: c.kind}
}

// Format implements Column.
func (c *Vector[T]) Format(row int) string {
	return fmt.Sprint(c.Values[row])
}

// OptVector is a column of nullable values.
type OptVector[T any] struct {
	tag    Tag
	Values []T
	// Valid[i] is false when row i is null; Values[i] is then the zero value.
	Valid []bool
}

// NewOptVector returns an empty OptVector column.
func NewOptVector[T any](tag Tag) *OptVector[T] {
	return &OptVector[T]{tag: tag}
}

// Tag implements Column.
func (c *OptVector[T]) Tag() Tag { return c.tag }

// Kind implements Column.
func (c *OptVector[T]) Kind() Kind { return OptVectorKind }

// Len implements Column.
func (c *OptVector[T]) Len() int { return len(c.Values) }

// Clear implements Column.
func (c *OptVector[T]) Clear() {
	c.Values = c.Values[:0]
	c.Valid = c.Valid[:0]
}

// Truncate implements Column.
func (c *OptVector[T]) Truncate(n int) {
	if n < len(c.Values) {
		c.Values = c.Values[:n]
		c.Valid = c.Valid[:n]
	}
}

// Append adds a non-null value to the end of the column.
func (c *OptVector[T]) Append(v T) {
	c.Values = append(c.Values, v)
	c.Valid = append(c.Valid, true)
}

// AppendNull adds a null to the end of the column.
func (c *OptVector[T]) AppendNull() {
	var zero T
	c.Values = append(c.Values, zero)
	c.Valid = append(c.Valid, false)
}

// IsNull returns true if the value at 'row' is null.
func (c *OptVector[T]) IsNull(row int) bool {
	return !c.Valid[row]
}

// Get returns the value at 'row' and whether it is non-null.
func (c *OptVector[T]) Get(row int) (T, bool) {
	return c.Values[row], c.Valid[row]
}

func (c *OptVector[T]) source(src Column) *OptVector[T] {
	s, ok := src.(*OptVector[T])
	if !ok {
		mismatch(c, src)
	}
	return s
}

// AppendRange implements Column.
func (c *OptVector[T]) AppendRange(src Column, from, to int) {
	s := c.source(src)
	c.Values = append(c.Values, s.Values[from:to]...)
	c.Valid = append(c.Valid, s.Valid[from:to]...)
}

// AppendRows implements Column.
func (c *OptVector[T]) AppendRows(src Column, rows []int) {
	s := c.source(src)
	for _, r := range rows {
		c.Values = append(c.Values, s.Values[r])
		c.Valid = append(c.Valid, s.Valid[r])
	}
}

// AppendRepeat implements Column.
func (c *OptVector[T]) AppendRepeat(src Column, row, n int) {
	s := c.source(src)
	for i := 0; i < n; i++ {
		c.Values = append(c.Values, s.Values[row])
		c.Valid = append(c.Valid, s.Valid[row])
	}
}

// CloneEmpty implements Column.
func (c *OptVector[T]) CloneEmpty() Column {
	return &OptVector[T]{tag: c.tag}
}

// Format implements Column.
func (c *OptVector[T]) Format(row int) string {
	if !c.Valid[row] {
		return "null"
	}
	return fmt.Sprint(c.Values[row])
}

// Const is a column holding a single value repeated on every row.
type Const[T comparable] struct {
	tag   Tag
	value T
	n     int
}

// NewConst returns an empty Const column.
func NewConst[T comparable](tag Tag) *Const[T] {
	return &Const[T]{tag: tag}
}

// Set replaces the column's content with 'n' copies of 'value'.
func (c *Const[T]) Set(value T, n int) {
	c.value = value
	c.n = n
}

// Value returns the repeated value.
func (c *Const[T]) Value() T { return c.value }

// Tag implements Column.
func (c *Const[T]) Tag() Tag { return c.tag }

// Kind implements Column.
func (c *Const[T]) Kind() Kind { return ConstKind }

// Len implements Column.
func (c *Const[T]) Len() int { return c.n }

// Clear implements Column.
func (c *Const[T]) Clear() { c.n = 0 }

// Truncate implements Column.
func (c *Const[T]) Truncate(n int) {
	if n < c.n {
		c.n = n
	}
}

// grow adds n rows holding the value of 'src'. Rows of two different values
// cannot share a Const column.
func (c *Const[T]) grow(src Column, n int) {
	s, ok := src.(*Const[T])
	if !ok {
		mismatch(c, src)
	}
	if n <= 0 {
		return
	}
	if c.n == 0 {
		c.value = s.value
	} else if c.value != s.value {
		panic(fmt.Sprintf("dataframe: Const column %v holds %v, cannot append %v",
			c.tag, c.value, s.value))
	}
	c.n += n
}

// AppendRange implements Column.
func (c *Const[T]) AppendRange(src Column, from, to int) { c.grow(src, to-from) }

// AppendRows implements Column.
func (c *Const[T]) AppendRows(src Column, rows []int) { c.grow(src, len(rows)) }

// AppendRepeat implements Column.
func (c *Const[T]) AppendRepeat(src Column, row, n int) { c.grow(src, n) }

// CloneEmpty implements Column.
func (c *Const[T]) CloneEmpty() Column {
	return &Const[T]{tag: c.tag}
}

// Format implements Column.
func (c *Const[T]) Format(row int) string {
	return fmt.Sprint(c.value)
}
