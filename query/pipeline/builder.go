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
	"github.com/ebay/chunkgraph/query/reader"
)

// Builder adds processors to a Pipeline. Each source method starts a Stream;
// Stream methods append processors to it.
type Builder struct {
	pipeline *Pipeline
}

// NewBuilder returns a Builder adding processors to 'pl'.
func NewBuilder(pl *Pipeline) *Builder {
	return &Builder{pipeline: pl}
}

// Pipeline returns the pipeline being built.
func (b *Builder) Pipeline() *Pipeline {
	return b.pipeline
}

// AllocTag returns a new column tag.
func (b *Builder) AllocTag() dataframe.Tag {
	return b.pipeline.dfs.AllocTag()
}

// Stream is the pending output of a chain of processors. It tracks the
// Indices steps that have not been materialized yet; methods that need flat
// rows insert a Materialize processor automatically. It also tracks the tags
// of the columns most recent processors produced, such as the current node
// column that expansions start from.
type Stream struct {
	b     *Builder
	port  *Port
	steps []matStep
	// consumedBy is set once another processor has taken the whole stream.
	consumedBy Processor

	nodes     dataframe.Tag
	origins   dataframe.Tag
	edges     dataframe.Tag
	edgeTypes dataframe.Tag
	last      dataframe.Tag
}

func (b *Builder) newStream(port *Port) *Stream {
	return &Stream{
		b:     b,
		port:  port,
		steps: []matStep{{df: port.df, tags: port.df.Tags()}},
	}
}

// Dataframe returns the output Dataframe of the stream's last processor.
func (s *Stream) Dataframe() *dataframe.Dataframe {
	return s.port.df
}

// Processor returns the stream's last processor.
func (s *Stream) Processor() Processor {
	return s.port.producer
}

// Flat returns true if the stream's rows hold all their columns, that is, if
// no expansion has happened since the last Materialize.
func (s *Stream) Flat() bool {
	return len(s.steps) == 1
}

// Tags returns the tags of the columns the stream's rows would have once
// materialized, in the order they were produced.
func (s *Stream) Tags() []dataframe.Tag {
	var tags []dataframe.Tag
	for _, step := range s.steps {
		tags = append(tags, step.tags...)
	}
	return tags
}

// NodeIDs returns the tag of the current node column: the scanned nodes, or
// the nodes reached by the last expansion.
func (s *Stream) NodeIDs() dataframe.Tag {
	return s.nodes
}

// Origins returns the tag of the node column that the last expansion started
// from, or the source nodes of ScanEdges.
func (s *Stream) Origins() dataframe.Tag {
	return s.origins
}

// EdgeIDs returns the tag of the edge column of the last expansion or edge
// scan.
func (s *Stream) EdgeIDs() dataframe.Tag {
	return s.edges
}

// EdgeTypes returns the tag of the edge type column of the last expansion or
// edge scan.
func (s *Stream) EdgeTypes() dataframe.Tag {
	return s.edgeTypes
}

// Last returns the tag of the value column the last property lookup or count
// produced.
func (s *Stream) Last() dataframe.Tag {
	return s.last
}

func (s *Stream) check() {
	if s.consumedBy != nil {
		panic(fmt.Sprintf("stream already consumed by %v", s.consumedBy.Describe()))
	}
}

// has returns true if the column is in the last processor's output.
func (s *Stream) has(tag dataframe.Tag) bool {
	return s.port.df.Has(tag)
}

// advance makes 'port' the stream's new output. If 'indices' is valid, the
// port's columns in 'tags' become a new materialization step; otherwise the
// port's Dataframe holds flat rows.
func (s *Stream) advance(port *Port, indices dataframe.Tag, tags ...dataframe.Tag) {
	s.port = port
	if indices.Valid() {
		s.steps = append(s.steps, matStep{df: port.df, indices: indices, tags: tags})
		return
	}
	s.steps = []matStep{{df: port.df, tags: port.df.Tags()}}
	for _, t := range []*dataframe.Tag{&s.nodes, &s.origins, &s.edges, &s.edgeTypes, &s.last} {
		if !port.df.Has(*t) {
			*t = 0
		}
	}
}

func describeTags(tags []dataframe.Tag) string {
	s := make([]string, len(tags))
	for i, t := range tags {
		s[i] = t.String()
	}
	return strings.Join(s, ",")
}

// ScanNodes starts a stream of every live node.
func (b *Builder) ScanNodes() *Stream {
	return b.scanNodes(0)
}

// ScanNodesByLabel starts a stream of the live nodes carrying every label in
// 'labels'.
func (b *Builder) ScanNodesByLabel(labels graph.LabelSet) *Stream {
	return b.scanNodes(labels)
}

func (b *Builder) scanNodes(labels graph.LabelSet) *Stream {
	nodes := dataframe.NewNodeIDs(b.AllocTag())
	p := &scanNodes{labels: labels, nodes: nodes}
	p.kind = "ScanNodes"
	p.desc = fmt.Sprintf("-> %v", nodes.Tag())
	if labels.Len() > 0 {
		p.kind = "ScanNodesByLabel"
		p.desc = fmt.Sprintf("%v -> %v", labels, nodes.Tag())
	}
	s := b.newStream(b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(nodes)))
	s.nodes = nodes.Tag()
	return s
}

// ScanEdges starts a stream of every live edge. NodeIDs refers to the edges'
// targets and Origins to their sources.
func (b *Builder) ScanEdges() *Stream {
	sources := dataframe.NewNodeIDs(b.AllocTag())
	edges := reader.EdgeColumns{
		EdgeIDs:   dataframe.NewEdgeIDs(b.AllocTag()),
		EdgeTypes: dataframe.NewEdgeTypeIDs(b.AllocTag()),
		Others:    dataframe.NewNodeIDs(b.AllocTag()),
	}
	p := &scanEdges{sources: sources, edges: edges}
	p.kind = "ScanEdges"
	p.desc = fmt.Sprintf("-> %v", describeTags([]dataframe.Tag{
		sources.Tag(), edges.EdgeIDs.Tag(), edges.EdgeTypes.Tag(), edges.Others.Tag()}))
	df := b.pipeline.newDataframe(sources, edges.EdgeIDs, edges.EdgeTypes, edges.Others)
	s := b.newStream(b.pipeline.add(p, &p.processorBase, df))
	s.origins = sources.Tag()
	s.edges = edges.EdgeIDs.Tag()
	s.edgeTypes = edges.EdgeTypes.Tag()
	s.nodes = edges.Others.Tag()
	return s
}

// LambdaSource starts a stream whose rows are produced by 'fn' into the given
// columns. The columns' tags must come from AllocTag.
func (b *Builder) LambdaSource(fn SourceFunc, cols ...dataframe.Column) *Stream {
	p := &lambdaSource{fn: fn}
	p.kind = "LambdaSource"
	df := b.pipeline.newDataframe(cols...)
	p.desc = fmt.Sprintf("-> %v", describeTags(df.Tags()))
	return b.newStream(b.pipeline.add(p, &p.processorBase, df))
}

// Change starts a stream holding the IDs of the changes affected by 'op'.
func (b *Builder) Change(op ChangeOp) *Stream {
	ids := dataframe.NewVector[graph.ChangeID](b.AllocTag())
	p := &change{op: op, ids: ids}
	p.kind = "Change"
	p.desc = fmt.Sprintf("%v -> %v", op, ids.Tag())
	s := b.newStream(b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(ids)))
	s.last = ids.Tag()
	return s
}

// Materialize adds a processor producing flat rows that hold every column of
// the stream.
func (s *Stream) Materialize() *Stream {
	s.check()
	var cols []dataframe.Column
	for _, step := range s.steps {
		for _, tag := range step.tags {
			cols = append(cols, step.df.MustColumn(tag).CloneEmpty())
		}
	}
	p := &materialize{steps: append([]matStep(nil), s.steps...)}
	p.kind = "Materialize"
	p.desc = fmt.Sprintf("%d steps", len(s.steps))
	p.inputs = []*Port{s.port}
	port := s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.newDataframe(cols...))
	s.advance(port, 0)
	return s
}

// flatten materializes the stream if it has pending steps.
func (s *Stream) flatten() {
	s.check()
	if !s.Flat() {
		s.Materialize()
	}
}

// GetOutEdges expands the current nodes along their outgoing edges.
func (s *Stream) GetOutEdges() *Stream {
	return s.expand(reader.OutEdges)
}

// GetInEdges expands the current nodes along their incoming edges.
func (s *Stream) GetInEdges() *Stream {
	return s.expand(reader.InEdges)
}

// GetEdges expands the current nodes along their outgoing, then incoming,
// edges. A self-loop is reached twice.
func (s *Stream) GetEdges() *Stream {
	return s.expand(reader.AllEdges)
}

func (s *Stream) expand(kind reader.Expansion) *Stream {
	s.check()
	if !s.nodes.Valid() {
		panic(fmt.Sprintf("%v: stream has no node column", kind))
	}
	if !s.has(s.nodes) {
		s.Materialize()
	}
	b := s.b
	edges := reader.EdgeColumns{
		EdgeIDs:   dataframe.NewEdgeIDs(b.AllocTag()),
		EdgeTypes: dataframe.NewEdgeTypeIDs(b.AllocTag()),
		Others:    dataframe.NewNodeIDs(b.AllocTag()),
	}
	indices := dataframe.NewIndices(b.AllocTag())
	p := &expand{expansion: kind, nodesTag: s.nodes, indices: indices, edges: edges}
	p.kind = kind.String()
	p.desc = fmt.Sprintf("%v -> %v", s.nodes, describeTags([]dataframe.Tag{
		edges.EdgeIDs.Tag(), edges.EdgeTypes.Tag(), edges.Others.Tag(), indices.Tag()}))
	p.inputs = []*Port{s.port}
	df := b.pipeline.newDataframe(edges.EdgeIDs, edges.EdgeTypes, edges.Others, indices)
	port := b.pipeline.add(p, &p.processorBase, df)
	s.advance(port, indices.Tag(), edges.EdgeIDs.Tag(), edges.EdgeTypes.Tag(), edges.Others.Tag())
	s.origins = s.nodes
	s.nodes = edges.Others.Tag()
	s.edges = edges.EdgeIDs.Tag()
	s.edgeTypes = edges.EdgeTypes.Tag()
	return s
}

// prepareIDs makes sure the entity column 'ids' can be read by the stream's
// next processor, and checks its type.
func prepareIDs[ID graph.EntityID](s *Stream, ids dataframe.Tag) {
	s.check()
	if !s.has(ids) {
		s.Materialize()
	}
	dataframe.VectorOf[ID](s.port.df, ids)
}

// GetProperties adds a processor looking up property 'pt' of the entities in
// column 'ids'. Rows whose entity lacks the property are dropped. It returns
// the tag of the values column.
func GetProperties[ID graph.EntityID, T graph.Value](s *Stream, ids dataframe.Tag, pt graph.PropertyType) dataframe.Tag {
	prepareIDs[ID](s, ids)
	b := s.b
	values := dataframe.NewVector[T](b.AllocTag())
	indices := dataframe.NewIndices(b.AllocTag())
	p := &getProperties[ID, T]{idTag: ids, pt: pt, values: values, indices: indices}
	p.kind = "GetProperties"
	p.desc = fmt.Sprintf("%v.%v -> %v,%v", ids, pt, values.Tag(), indices.Tag())
	p.inputs = []*Port{s.port}
	port := b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(values, indices))
	s.advance(port, indices.Tag(), values.Tag())
	s.last = values.Tag()
	return values.Tag()
}

// GetPropertiesWithNull adds a processor looking up property 'pt' of the
// entities in column 'ids'. Every row is kept; the values column is null
// where the property is absent. It returns the tag of the values column.
func GetPropertiesWithNull[ID graph.EntityID, T graph.Value](s *Stream, ids dataframe.Tag, pt graph.PropertyType) dataframe.Tag {
	prepareIDs[ID](s, ids)
	b := s.b
	values := dataframe.NewOptVector[T](b.AllocTag())
	indices := dataframe.NewIndices(b.AllocTag())
	p := &getPropertiesWithNull[ID, T]{idTag: ids, pt: pt, values: values, indices: indices}
	p.kind = "GetPropertiesWithNull"
	p.desc = fmt.Sprintf("%v.%v -> %v,%v", ids, pt, values.Tag(), indices.Tag())
	p.inputs = []*Port{s.port}
	port := b.pipeline.add(p, &p.processorBase, b.pipeline.newDataframe(values, indices))
	s.advance(port, indices.Tag(), values.Tag())
	s.last = values.Tag()
	return values.Tag()
}

// Filter keeps the rows satisfying 'pred'.
func (s *Stream) Filter(pred Predicate) *Stream {
	s.flatten()
	p := &filter{pred: pred}
	p.kind = "Filter"
	p.desc = pred.String()
	p.inputs = []*Port{s.port}
	s.advance(s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.cloneDataframe(s.port.df)), 0)
	return s
}

// Projection keeps only the given columns, in the given order.
func (s *Stream) Projection(tags ...dataframe.Tag) *Stream {
	s.flatten()
	cols := make([]dataframe.Column, len(tags))
	for i, tag := range tags {
		cols[i] = s.port.df.MustColumn(tag).CloneEmpty()
	}
	p := &projection{}
	p.kind = "Projection"
	p.desc = describeTags(tags)
	p.inputs = []*Port{s.port}
	s.advance(s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.newDataframe(cols...)), 0)
	return s
}

// Skip discards the first 'n' rows.
func (s *Stream) Skip(n uint64) *Stream {
	s.flatten()
	p := &skip{count: n}
	p.kind = "Skip"
	p.desc = fmt.Sprint(n)
	p.inputs = []*Port{s.port}
	s.advance(s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.cloneDataframe(s.port.df)), 0)
	return s
}

// Limit keeps at most 'n' rows.
func (s *Stream) Limit(n uint64) *Stream {
	s.flatten()
	p := &limit{count: n}
	p.kind = "Limit"
	p.desc = fmt.Sprint(n)
	p.inputs = []*Port{s.port}
	s.advance(s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.cloneDataframe(s.port.df)), 0)
	return s
}

// Count replaces the stream with a single row holding its number of rows. It
// returns the tag of the count column, a Const[uint64].
func (s *Stream) Count() dataframe.Tag {
	return s.count(0)
}

// CountValues replaces the stream with a single row holding the number of
// non-null values in column 'tag'. It returns the tag of the count column, a
// Const[uint64].
func (s *Stream) CountValues(tag dataframe.Tag) dataframe.Tag {
	return s.count(tag)
}

func (s *Stream) count(tag dataframe.Tag) dataframe.Tag {
	s.flatten()
	if tag.Valid() {
		s.port.df.MustColumn(tag)
	}
	out := dataframe.NewConst[uint64](s.b.AllocTag())
	p := &count{tag: tag, out: out}
	p.kind = "Count"
	p.desc = fmt.Sprintf("-> %v", out.Tag())
	if tag.Valid() {
		p.desc = fmt.Sprintf("%v -> %v", tag, out.Tag())
	}
	p.inputs = []*Port{s.port}
	s.advance(s.b.pipeline.add(p, &p.processorBase, s.b.pipeline.newDataframe(out)), 0)
	s.last = out.Tag()
	return out.Tag()
}

// Lambda ends the stream with a sink handing every chunk to 'fn'.
func (s *Stream) Lambda(fn SinkFunc) {
	s.flatten()
	p := &lambda{fn: fn}
	p.kind = "Lambda"
	p.inputs = []*Port{s.port}
	s.b.pipeline.add(p, &p.processorBase, nil)
	s.consumedBy = p
}

// CartesianProduct pairs every row of the stream with every row of 'rhs'. The
// stream's columns come first, followed by the columns of 'rhs' that the
// stream does not already have. 'rhs' is consumed.
func (s *Stream) CartesianProduct(rhs *Stream) *Stream {
	s.flatten()
	rhs.flatten()
	p := &cartesianProduct{}
	p.kind = "CartesianProduct"
	p.inputs = []*Port{s.port, rhs.port}
	out := s.b.pipeline.cloneDataframe(s.port.df)
	p.lhsTags = out.Tags()
	for _, col := range rhs.port.df.Columns() {
		if !out.Has(col.Tag()) {
			out.Add(col.CloneEmpty())
			p.rhsTags = append(p.rhsTags, col.Tag())
		}
	}
	p.rhs = s.b.pipeline.cloneDataframe(rhs.port.df)
	p.desc = fmt.Sprintf("%v x %v", describeTags(p.lhsTags), describeTags(p.rhsTags))
	s.advance(s.b.pipeline.add(p, &p.processorBase, out), 0)
	rhs.consumedBy = p
	return s
}

// HashJoin joins the 'probe' stream with the 'build' stream on equal values
// of the columns 'probeKey' and 'buildKey', both holding values of type K. The
// output holds the probe columns followed by the build columns that the probe
// side does not already have. 'build' is consumed; the joined rows continue
// on 'probe', which is returned.
func HashJoin[K comparable](probe, build *Stream, probeKey, buildKey dataframe.Tag) *Stream {
	probe.flatten()
	build.flatten()
	dataframe.VectorOf[K](probe.port.df, probeKey)
	dataframe.VectorOf[K](build.port.df, buildKey)
	p := &hashJoin[K]{probeKey: probeKey, buildKey: buildKey}
	p.kind = "HashJoin"
	p.desc = fmt.Sprintf("%v = %v", probeKey, buildKey)
	p.inputs = []*Port{probe.port, build.port}
	out := probe.b.pipeline.cloneDataframe(probe.port.df)
	p.probeTags = out.Tags()
	for _, col := range build.port.df.Columns() {
		if !out.Has(col.Tag()) {
			out.Add(col.CloneEmpty())
			p.buildTags = append(p.buildTags, col.Tag())
		}
	}
	p.build = probe.b.pipeline.cloneDataframe(build.port.df)
	probe.advance(probe.b.pipeline.add(p, &p.processorBase, out), 0)
	build.consumedBy = p
	return probe
}
