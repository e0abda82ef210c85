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

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// ProcedureStep is the phase a procedure callback is called for.
type ProcedureStep int

// ProcedureStep values.
const (
	// ProcPrepare is passed once, when the pipeline is prepared.
	ProcPrepare ProcedureStep = iota + 1
	// ProcExecute is passed to produce one chunk.
	ProcExecute
	// ProcReset is passed before the pipeline is executed again.
	ProcReset
)

func (s ProcedureStep) String() string {
	switch s {
	case ProcPrepare:
		return "PREPARE"
	case ProcExecute:
		return "EXECUTE"
	case ProcReset:
		return "RESET"
	}
	return fmt.Sprintf("ProcedureStep(%d)", int(s))
}

// ReturnValue describes one output column of a procedure.
type ReturnValue struct {
	Name      string
	NewColumn func(tag dataframe.Tag) dataframe.Column
}

// ProcedureBlueprint defines a procedure that can be started as a pipeline
// source.
type ProcedureBlueprint struct {
	Name    string
	Returns []ReturnValue
	// Alloc returns the initial Procedure.Data of each procedure processor.
	// Optional.
	Alloc func() interface{}
	// Exec is called for every step.
	Exec func(p *Procedure) error
}

func (bp *ProcedureBlueprint) returnIndex(name string) int {
	for i, r := range bp.Returns {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Procedure is the state of one procedure processor, handed to its
// blueprint's Exec.
type Procedure struct {
	Step ProcedureStep
	Ctx  *ExecutionContext
	// Columns are indexed like the blueprint's Returns. Columns that the
	// query did not yield are nil.
	Columns []dataframe.Column
	// Data belongs to the callback.
	Data     interface{}
	finished bool
}

// Finish tells the processor that the current Execute produced the last rows.
func (p *Procedure) Finish() {
	p.finished = true
}

// ChunkSize returns the maximum number of rows to produce per Execute.
func (p *Procedure) ChunkSize() int {
	return p.Ctx.chunkSize()
}

// procedure is a source running a ProcedureBlueprint.
type procedure struct {
	processorBase
	bp       *ProcedureBlueprint
	proc     Procedure
	resetErr error
}

func (p *procedure) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	p.proc.Ctx = ctx
	p.proc.finished = false
	p.resetErr = nil
	return p.call(ProcPrepare)
}

func (p *procedure) call(step ProcedureStep) error {
	p.proc.Step = step
	if err := p.bp.Exec(&p.proc); err != nil {
		return p.wrap(err, "procedure failed in %v", step)
	}
	if p.proc.finished && step != ProcExecute {
		return p.errorf("cannot finish a procedure in the %v step", step)
	}
	return nil
}

func (p *procedure) Execute() error {
	p.begin()
	if p.resetErr != nil {
		return p.resetErr
	}
	if err := p.call(ProcExecute); err != nil {
		return err
	}
	if p.proc.finished {
		p.finish()
	}
	return nil
}

// Reset runs the reset step. An error there is returned by the next Execute.
func (p *procedure) Reset() {
	if p.State() != Unprepared {
		p.proc.finished = false
		p.resetErr = p.call(ProcReset)
	}
	p.reset()
}

// Procedure starts a stream running the procedure 'bp'. It yields the named
// return values, or all of them if 'yield' is empty, and returns the tags of
// their columns in the same order.
func (b *Builder) Procedure(bp *ProcedureBlueprint, yield ...string) (*Stream, []dataframe.Tag) {
	if len(yield) == 0 {
		for _, r := range bp.Returns {
			yield = append(yield, r.Name)
		}
	}
	p := &procedure{bp: bp}
	p.kind = "Procedure"
	p.proc.Columns = make([]dataframe.Column, len(bp.Returns))
	if bp.Alloc != nil {
		p.proc.Data = bp.Alloc()
	}
	var cols []dataframe.Column
	var tags []dataframe.Tag
	for _, name := range yield {
		i := bp.returnIndex(name)
		if i < 0 {
			panic(fmt.Sprintf("procedure %v has no return value %q", bp.Name, name))
		}
		if p.proc.Columns[i] != nil {
			panic(fmt.Sprintf("procedure %v: return value %q yielded twice", bp.Name, name))
		}
		col := bp.Returns[i].NewColumn(b.AllocTag())
		p.proc.Columns[i] = col
		cols = append(cols, col)
		tags = append(tags, col.Tag())
	}
	p.desc = fmt.Sprintf("%v -> %v", bp.Name, describeTags(tags))
	return b.newStream(b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(cols...))), tags
}

// appendValue appends 'v' to 'col' unless the column was not yielded.
func appendValue[T any](col dataframe.Column, v T) {
	if col != nil {
		col.(*dataframe.Vector[T]).Append(v)
	}
}

func vectorOf[T any](tag dataframe.Tag) dataframe.Column {
	return dataframe.NewVector[T](tag)
}

// listing is the Data of the schema procedures. The entries are captured on
// the first Execute of every execution.
type listing[E any] struct {
	entries []E
	next    int
	loaded  bool
}

func listingProcedure[E any](name string, returns []ReturnValue,
	list func(*graph.Schema) []E, emit func(cols []dataframe.Column, i int, e E)) *ProcedureBlueprint {
	return &ProcedureBlueprint{
		Name:    name,
		Returns: returns,
		Alloc:   func() interface{} { return new(listing[E]) },
		Exec: func(p *Procedure) error {
			l := p.Data.(*listing[E])
			switch p.Step {
			case ProcPrepare, ProcReset:
				*l = listing[E]{}
			case ProcExecute:
				if !l.loaded {
					l.entries = list(p.Ctx.View.Schema())
					l.loaded = true
				}
				end := min(len(l.entries), l.next+p.ChunkSize())
				for i := l.next; i < end; i++ {
					emit(p.Columns, i, l.entries[i])
				}
				l.next = end
				if l.next == len(l.entries) {
					p.Finish()
				}
			}
			return nil
		},
	}
}

// LabelsProcedure lists the labels of the graph: "id" (graph.LabelID) and
// "label" (string).
var LabelsProcedure = listingProcedure("db.labels",
	[]ReturnValue{{"id", vectorOf[graph.LabelID]}, {"label", vectorOf[string]}},
	(*graph.Schema).LabelNames,
	func(cols []dataframe.Column, i int, name string) {
		appendValue(cols[0], graph.LabelID(i))
		appendValue(cols[1], name)
	})

// EdgeTypesProcedure lists the edge types of the graph: "id"
// (graph.EdgeTypeID) and "edgeType" (string).
var EdgeTypesProcedure = listingProcedure("db.edgeTypes",
	[]ReturnValue{{"id", vectorOf[graph.EdgeTypeID]}, {"edgeType", vectorOf[string]}},
	(*graph.Schema).EdgeTypeNames,
	func(cols []dataframe.Column, i int, name string) {
		appendValue(cols[0], graph.EdgeTypeID(i))
		appendValue(cols[1], name)
	})

// PropertyTypesProcedure lists the property types of the graph: "id"
// (graph.PropertyTypeID), "propertyType" (string) and "valueType" (string).
var PropertyTypesProcedure = listingProcedure("db.propertyTypes",
	[]ReturnValue{
		{"id", vectorOf[graph.PropertyTypeID]},
		{"propertyType", vectorOf[string]},
		{"valueType", vectorOf[string]},
	},
	(*graph.Schema).PropertyTypes,
	func(cols []dataframe.Column, i int, pt graph.PropertyType) {
		appendValue(cols[0], pt.ID)
		appendValue(cols[1], pt.Name)
		appendValue(cols[2], pt.Type.String())
	})
