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
	"strings"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// PropertyValue is a property set on a created node or edge.
type PropertyValue struct {
	Type  graph.PropertyType
	Value interface{}
}

// NodeSpec describes a node that Write creates for every input row.
type NodeSpec struct {
	Labels     graph.LabelSet
	Properties []PropertyValue
}

// EdgeEnd is the source or target of an EdgeSpec: either a NodeIDs column of
// the input, or a node created by the same Write.
type EdgeEnd struct {
	column  dataframe.Tag
	created int
}

// InputNode refers to the nodes in an input column.
func InputNode(tag dataframe.Tag) EdgeEnd {
	return EdgeEnd{column: tag, created: -1}
}

// CreatedNode refers to the nodes created from WriteSpec.CreateNodes[i].
func CreatedNode(i int) EdgeEnd {
	return EdgeEnd{created: i}
}

func (e EdgeEnd) String() string {
	if e.created >= 0 {
		return fmt.Sprintf("new#%d", e.created)
	}
	return e.column.String()
}

// EdgeSpec describes an edge that Write creates for every input row.
type EdgeSpec struct {
	Source     EdgeEnd
	Target     EdgeEnd
	Type       graph.EdgeTypeID
	Properties []PropertyValue
}

// WriteSpec lists the writes a Write processor makes for each input row.
// Deletions name NodeIDs or EdgeIDs columns of the input.
type WriteSpec struct {
	DeleteNodes []dataframe.Tag
	DeleteEdges []dataframe.Tag
	CreateNodes []NodeSpec
	CreateEdges []EdgeSpec
}

// WriteColumns holds the tags of the columns where a Write outputs the IDs it
// created, in the order of WriteSpec.CreateNodes and CreateEdges.
type WriteColumns struct {
	Nodes []dataframe.Tag
	Edges []dataframe.Tag
}

// write records creations and deletions into the change of a
// PendingCommitWriteTx. Its output holds the input rows followed by the IDs
// created for each row. Without an input it writes a single time.
type write struct {
	processorBase
	spec    WriteSpec
	inTags  []dataframe.Tag
	nodes   []*dataframe.Vector[graph.NodeID]
	edges   []*dataframe.Vector[graph.EdgeID]
	created []graph.NodeID
	builder *graph.CommitBuilder
	reader  graph.GraphReader
}

func (p *write) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	if ctx.Tx == nil {
		panic(fmt.Sprintf("%v: ExecutionContext has no transaction", p.Describe()))
	}
	tx, ok := ctx.Tx.(graph.PendingCommitWriteTx)
	if !ok || !tx.Writing() {
		return p.errorf("cannot perform writes outside of a write transaction")
	}
	p.builder = tx.ChangeAccessor().Builder()
	p.reader = ctx.View.Read()
	return nil
}

func (p *write) Execute() error {
	p.begin()
	if len(p.inputs) == 0 {
		err := p.writeRows(nil, 0, 1)
		p.finish()
		return err
	}
	in := p.inputs[0]
	ok, err := in.Fill()
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	from := in.cursor
	to := from + min(in.Remaining(), p.chunkSize())
	if err := p.writeRows(in.df, from, to); err != nil {
		return err
	}
	for _, tag := range p.inTags {
		p.output.df.MustColumn(tag).AppendRange(in.df.MustColumn(tag), from, to)
	}
	in.Advance(to - from)
	return nil
}

// writeRows applies the spec to rows [from, to) of 'df'. Every deletion is
// validated before anything is written.
func (p *write) writeRows(df *dataframe.Dataframe, from, to int) error {
	for _, tag := range p.spec.DeleteNodes {
		for _, id := range dataframe.VectorOf[graph.NodeID](df, tag).Values[from:to] {
			if _, ok := p.reader.NodeLabels(id); !ok {
				return p.errorf("graph does not contain node with ID %v", id)
			}
		}
	}
	for _, tag := range p.spec.DeleteEdges {
		for _, id := range dataframe.VectorOf[graph.EdgeID](df, tag).Values[from:to] {
			if _, ok := p.reader.Edge(id); !ok {
				return p.errorf("graph does not contain edge with ID %v", id)
			}
		}
	}
	for _, tag := range p.spec.DeleteNodes {
		for _, id := range dataframe.VectorOf[graph.NodeID](df, tag).Values[from:to] {
			p.builder.DeleteNode(id)
		}
	}
	for _, tag := range p.spec.DeleteEdges {
		for _, id := range dataframe.VectorOf[graph.EdgeID](df, tag).Values[from:to] {
			p.builder.DeleteEdge(id)
		}
	}
	for row := from; row < to; row++ {
		for i, spec := range p.spec.CreateNodes {
			id := p.builder.AddNode(spec.Labels)
			for _, prop := range spec.Properties {
				if err := p.builder.SetNodeProperty(id, prop.Type, prop.Value); err != nil {
					return p.wrap(err, "cannot create node")
				}
			}
			p.created[i] = id
			p.nodes[i].Append(id)
		}
		for i, spec := range p.spec.CreateEdges {
			id := p.builder.AddEdge(p.end(spec.Source, df, row), p.end(spec.Target, df, row), spec.Type)
			for _, prop := range spec.Properties {
				if err := p.builder.SetEdgeProperty(id, prop.Type, prop.Value); err != nil {
					return p.wrap(err, "cannot create edge")
				}
			}
			p.edges[i].Append(id)
		}
	}
	return nil
}

func (p *write) end(e EdgeEnd, df *dataframe.Dataframe, row int) graph.NodeID {
	if e.created >= 0 {
		return p.created[e.created]
	}
	return dataframe.VectorOf[graph.NodeID](df, e.column).Values[row]
}

func (p *write) Reset() {
	p.reset()
}

// Write starts a stream that performs the creations of 'spec' a single time.
// Its one output row holds the created IDs. The spec must not delete anything.
func (b *Builder) Write(spec WriteSpec) (*Stream, WriteColumns) {
	if len(spec.DeleteNodes) > 0 || len(spec.DeleteEdges) > 0 {
		panic("Write without an input cannot delete")
	}
	return b.newWrite(nil, spec)
}

// Write adds a processor that performs the writes of 'spec' for each row of
// the stream, into the change of the query's PendingCommitWriteTx. Executing
// the pipeline again writes again. The rows continue with the created IDs
// added.
func (s *Stream) Write(spec WriteSpec) (*Stream, WriteColumns) {
	s.flatten()
	for _, tag := range spec.DeleteNodes {
		dataframe.VectorOf[graph.NodeID](s.port.df, tag)
	}
	for _, tag := range spec.DeleteEdges {
		dataframe.VectorOf[graph.EdgeID](s.port.df, tag)
	}
	return s.b.newWrite(s, spec)
}

func (b *Builder) newWrite(s *Stream, spec WriteSpec) (*Stream, WriteColumns) {
	p := &write{spec: spec, created: make([]graph.NodeID, len(spec.CreateNodes))}
	p.kind = "Write"
	var cols []dataframe.Column
	if s != nil {
		p.inputs = []*Port{s.port}
		p.inTags = s.port.df.Tags()
		for _, col := range s.port.df.Columns() {
			cols = append(cols, col.CloneEmpty())
		}
	}
	var res WriteColumns
	for range spec.CreateNodes {
		col := dataframe.NewNodeIDs(b.AllocTag())
		p.nodes = append(p.nodes, col)
		cols = append(cols, col)
		res.Nodes = append(res.Nodes, col.Tag())
	}
	for _, e := range spec.CreateEdges {
		for _, end := range []EdgeEnd{e.Source, e.Target} {
			switch {
			case end.created >= len(spec.CreateNodes):
				panic(fmt.Sprintf("Write: edge end %v refers to an unknown created node", end))
			case end.created < 0 && s == nil:
				panic(fmt.Sprintf("Write: edge end %v refers to an input column without an input", end))
			case end.created < 0:
				dataframe.VectorOf[graph.NodeID](s.port.df, end.column)
			}
		}
		col := dataframe.NewEdgeIDs(b.AllocTag())
		p.edges = append(p.edges, col)
		cols = append(cols, col)
		res.Edges = append(res.Edges, col.Tag())
	}
	p.desc = describeWrite(spec, append(append([]dataframe.Tag(nil), res.Nodes...), res.Edges...))
	port := b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(cols...))
	if s == nil {
		return b.newStream(port), res
	}
	s.advance(port, 0)
	return s, res
}

func describeWrite(spec WriteSpec, created []dataframe.Tag) string {
	var parts []string
	if n := len(spec.CreateNodes); n > 0 {
		parts = append(parts, fmt.Sprintf("create %d nodes", n))
	}
	if n := len(spec.CreateEdges); n > 0 {
		parts = append(parts, fmt.Sprintf("create %d edges", n))
	}
	if len(spec.DeleteNodes) > 0 {
		parts = append(parts, "delete nodes "+describeTags(spec.DeleteNodes))
	}
	if len(spec.DeleteEdges) > 0 {
		parts = append(parts, "delete edges "+describeTags(spec.DeleteEdges))
	}
	desc := strings.Join(parts, ", ")
	if len(created) > 0 {
		desc += " -> " + describeTags(created)
	}
	return desc
}
