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

// scanNodes produces the IDs of the live nodes of the snapshot, optionally
// only those carrying a set of labels.
type scanNodes struct {
	processorBase
	labels graph.LabelSet
	nodes  *dataframe.Vector[graph.NodeID]
	reader *reader.ScanNodes
}

func (p *scanNodes) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	if p.labels.Len() > 0 {
		p.reader = reader.NewScanNodesByLabel(ctx.View, p.labels, p.nodes)
	} else {
		p.reader = reader.NewScanNodes(ctx.View, p.nodes)
	}
	return nil
}

func (p *scanNodes) Execute() error {
	p.begin()
	p.reader.Work(p.chunkSize())
	if p.reader.Status() == reader.Finished {
		p.finish()
	}
	return nil
}

func (p *scanNodes) Reset() {
	if p.reader != nil {
		p.reader.Reset()
	}
	p.reset()
}

// scanEdges produces every live edge of the snapshot.
type scanEdges struct {
	processorBase
	sources *dataframe.Vector[graph.NodeID]
	edges   reader.EdgeColumns
	reader  *reader.ScanEdges
}

func (p *scanEdges) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	p.reader = reader.NewScanEdges(ctx.View, p.sources, p.edges)
	return nil
}

func (p *scanEdges) Execute() error {
	p.begin()
	p.reader.Work(p.chunkSize())
	if p.reader.Status() == reader.Finished {
		p.finish()
	}
	return nil
}

func (p *scanEdges) Reset() {
	if p.reader != nil {
		p.reader.Reset()
	}
	p.reset()
}
