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

package dataframe

import (
	"fmt"
	"io"

	"github.com/ebay/chunkgraph/util/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dataframe is an ordered set of row-aligned columns, each with a distinct
// Tag. A Dataframe with zero rows is valid.
type Dataframe struct {
	cols  []Column
	index map[Tag]int
}

// New returns an empty Dataframe. Pipelines allocate Dataframes through a
// Manager instead.
func New(cols ...Column) *Dataframe {
	df := &Dataframe{index: make(map[Tag]int, len(cols))}
	for _, c := range cols {
		df.Add(c)
	}
	return df
}

// Add appends a column. It panics if the Dataframe already has a column with
// the same tag.
func (df *Dataframe) Add(col Column) {
	if _, exists := df.index[col.Tag()]; exists {
		panic(fmt.Sprintf("dataframe: duplicate column tag %v", col.Tag()))
	}
	df.index[col.Tag()] = len(df.cols)
	df.cols = append(df.cols, col)
}

// Size returns the number of columns.
func (df *Dataframe) Size() int {
	return len(df.cols)
}

// RowCount returns the number of rows. A Dataframe without columns has no
// rows.
func (df *Dataframe) RowCount() int {
	if len(df.cols) == 0 {
		return 0
	}
	return df.cols[0].Len()
}

// Column returns the column with the given tag, or nil.
func (df *Dataframe) Column(tag Tag) Column {
	if i, ok := df.index[tag]; ok {
		return df.cols[i]
	}
	return nil
}

// Has returns true if the Dataframe has a column with the given tag.
func (df *Dataframe) Has(tag Tag) bool {
	_, ok := df.index[tag]
	return ok
}

// MustColumn returns the column with the given tag. It panics if there is no
// such column.
func (df *Dataframe) MustColumn(tag Tag) Column {
	col := df.Column(tag)
	if col == nil {
		panic(fmt.Sprintf("dataframe: column %v not found in %v", tag, df.Tags()))
	}
	return col
}

// Columns returns the columns in order. The caller must not modify the
// returned slice.
func (df *Dataframe) Columns() []Column {
	return df.cols
}

// Tags returns the column tags in order.
func (df *Dataframe) Tags() []Tag {
	tags := make([]Tag, len(df.cols))
	for i, c := range df.cols {
		tags[i] = c.Tag()
	}
	return tags
}

// Clear removes every row from every column.
func (df *Dataframe) Clear() {
	for _, c := range df.cols {
		c.Clear()
	}
}

// Truncate removes all rows from n onwards.
func (df *Dataframe) Truncate(n int) {
	for _, c := range df.cols {
		c.Truncate(n)
	}
}

// CloneEmpty returns an empty Dataframe with columns of the same types and
// tags.
func (df *Dataframe) CloneEmpty() *Dataframe {
	res := &Dataframe{index: make(map[Tag]int, len(df.cols))}
	for _, c := range df.cols {
		res.Add(c.CloneEmpty())
	}
	return res
}

// AppendRange appends rows [from, to) of src to the columns of df with a
// matching tag. Every column of df must exist in src.
func (df *Dataframe) AppendRange(src *Dataframe, from, to int) {
	for _, c := range df.cols {
		c.AppendRange(src.MustColumn(c.Tag()), from, to)
	}
}

// AppendRows appends the given rows of src to the columns of df with a
// matching tag. Every column of df must exist in src.
func (df *Dataframe) AppendRows(src *Dataframe, rows []int) {
	for _, c := range df.cols {
		c.AppendRows(src.MustColumn(c.Tag()), rows)
	}
}

// Aligned returns nil if every column has the same number of rows, or an
// error describing the first column that does not.
func (df *Dataframe) Aligned() error {
	rows := df.RowCount()
	for _, c := range df.cols {
		if c.Len() != rows {
			return fmt.Errorf("column %v has %d rows, expected %d", c.Tag(), c.Len(), rows)
		}
	}
	return nil
}

// fmtr is used to format the row count footer with digit grouping.
var fmtr = message.NewPrinter(language.English)

// PrettyPrint writes the Dataframe as a table, with a header row of
// "$tag:kind" names and a footer with the row count.
func (df *Dataframe) PrettyPrint(w io.Writer) error {
	if len(df.cols) == 0 {
		_, err := io.WriteString(w, "(no columns)\n")
		return err
	}
	rows := df.RowCount()
	t := make([][]string, 0, rows+2)
	header := make([]string, len(df.cols))
	for i, c := range df.cols {
		header[i] = fmt.Sprintf("%v:%v", c.Tag(), c.Kind())
	}
	t = append(t, header)
	for r := 0; r < rows; r++ {
		line := make([]string, len(df.cols))
		for i, c := range df.cols {
			line[i] = c.Format(r)
		}
		t = append(t, line)
	}
	footer := make([]string, len(df.cols))
	footer[0] = fmtr.Sprintf("%d rows", rows)
	t = append(t, footer)
	return table.PrettyPrint(w, t, table.HeaderRow|table.FooterRow)
}

// VectorOf returns the Vector column with the given tag. It panics if the
// column is missing or is not a *Vector[T].
func VectorOf[T any](df *Dataframe, tag Tag) *Vector[T] {
	col := df.MustColumn(tag)
	v, ok := col.(*Vector[T])
	if !ok {
		panic(fmt.Sprintf("dataframe: column %v is %T, not %T", tag, col, v))
	}
	return v
}

// OptVectorOf returns the OptVector column with the given tag. It panics if
// the column is missing or is not an *OptVector[T].
func OptVectorOf[T any](df *Dataframe, tag Tag) *OptVector[T] {
	col := df.MustColumn(tag)
	v, ok := col.(*OptVector[T])
	if !ok {
		panic(fmt.Sprintf("dataframe: column %v is %T, not %T", tag, col, v))
	}
	return v
}

// ConstOf returns the Const column with the given tag. It panics if the
// column is missing or is not a *Const[T].
func ConstOf[T comparable](df *Dataframe, tag Tag) *Const[T] {
	col := df.MustColumn(tag)
	v, ok := col.(*Const[T])
	if !ok {
		panic(fmt.Sprintf("dataframe: column %v is %T, not %T", tag, col, v))
	}
	return v
}

// Manager allocates column tags and Dataframes for one pipeline.
type Manager struct {
	lastTag Tag
	frames  []*Dataframe
}

// NewManager returns a Manager that has allocated nothing.
func NewManager() *Manager {
	return new(Manager)
}

// AllocTag returns a tag that this Manager has never returned before.
func (m *Manager) AllocTag() Tag {
	m.lastTag++
	return m.lastTag
}

// NewDataframe returns a new, empty Dataframe owned by this Manager.
func (m *Manager) NewDataframe() *Dataframe {
	df := New()
	m.frames = append(m.frames, df)
	return df
}

// Dataframes returns every Dataframe allocated by this Manager.
func (m *Manager) Dataframes() []*Dataframe {
	return m.frames
}
