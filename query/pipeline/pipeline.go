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

	"github.com/ebay/chunkgraph/query/dataframe"
)

// Pipeline is a DAG of processors connected by ports. Processors are kept in
// the order they were added, which is a topological order: every processor
// comes after the producers of its inputs. The last processor is the sink.
type Pipeline struct {
	dfs        *dataframe.Manager
	processors []Processor
	bases      []*processorBase
	ports      []*Port
	events     Events
	// executed is set once an Executor has started running the pipeline.
	executed bool
	// preparedWith is the context the processors were last prepared with.
	preparedWith *ExecutionContext
}

// New returns an empty Pipeline. Use a Builder to add processors to it.
func New() *Pipeline {
	return &Pipeline{
		dfs:    dataframe.NewManager(),
		events: ignoreEvents{},
	}
}

// Dataframes returns the manager allocating the pipeline's tags and
// Dataframes.
func (pl *Pipeline) Dataframes() *dataframe.Manager {
	return pl.dfs
}

// Processors returns the processors in the order they were added. The caller
// must not modify the returned slice.
func (pl *Pipeline) Processors() []Processor {
	return pl.processors
}

// Ports returns every port of the pipeline. The caller must not modify the
// returned slice.
func (pl *Pipeline) Ports() []*Port {
	return pl.ports
}

// Sink returns the last processor added, or nil for an empty pipeline.
func (pl *Pipeline) Sink() Processor {
	if len(pl.processors) == 0 {
		return nil
	}
	return pl.processors[len(pl.processors)-1]
}

// newDataframe returns a new Dataframe holding the given columns.
func (pl *Pipeline) newDataframe(cols ...dataframe.Column) *dataframe.Dataframe {
	df := pl.dfs.NewDataframe()
	for _, c := range cols {
		df.Add(c)
	}
	return df
}

// cloneDataframe returns a new, empty Dataframe with the columns of 'src'.
func (pl *Pipeline) cloneDataframe(src *dataframe.Dataframe) *dataframe.Dataframe {
	df := pl.dfs.NewDataframe()
	for _, c := range src.Columns() {
		df.Add(c.CloneEmpty())
	}
	return df
}

// add appends a processor whose base has been filled in: its inputs are
// connected to it, and if 'out' is not nil, an output port is created for it.
func (pl *Pipeline) add(p Processor, base *processorBase, out *dataframe.Dataframe) *Port {
	for _, in := range base.inputs {
		if in.consumer != nil {
			panic(fmt.Sprintf("%v: port of %v is already consumed by %v",
				base.Describe(), in.producer.Describe(), in.consumer.Describe()))
		}
		in.consumer = p
	}
	if out != nil {
		base.output = &Port{pipeline: pl, df: out, producer: p}
		pl.ports = append(pl.ports, base.output)
	}
	pl.processors = append(pl.processors, p)
	pl.bases = append(pl.bases, base)
	return base.output
}

// run executes a single processor, reporting an event and updating metrics.
func (pl *Pipeline) run(p Processor) error {
	clock := pl.events.Clock()
	inputsBefore := 0
	for _, in := range p.Inputs() {
		inputsBefore += in.consumed
	}
	start := clock.Now()
	err := p.Execute()
	end := clock.Now()
	inputRows := -inputsBefore
	for _, in := range p.Inputs() {
		inputRows += in.consumed
	}
	outputRows := 0
	if out := p.Output(); out != nil {
		outputRows = out.df.RowCount()
	}
	if err != nil {
		if _, isPipelineErr := err.(*Error); !isPipelineErr {
			err = &Error{Processor: p.Describe(), Err: err}
		}
	}
	pl.events.OpCompleted(OpCompletedEvent{
		Processor:  p,
		StartedAt:  start,
		EndedAt:    end,
		InputRows:  inputRows,
		OutputRows: outputRows,
		Err:        err,
	})
	metrics.processorExecutions.WithLabelValues(p.Kind()).Inc()
	metrics.processorRows.WithLabelValues(p.Kind()).Add(float64(outputRows))
	return err
}

// reset prepares every processor and port for another execution.
func (pl *Pipeline) reset() {
	for _, p := range pl.processors {
		p.Reset()
	}
	for _, port := range pl.ports {
		port.reset()
	}
}

// unprepare moves every processor back to the Unprepared state, so that it
// binds to a new ExecutionContext on its next Prepare. The pipeline must have
// been reset first.
func (pl *Pipeline) unprepare() {
	for _, b := range pl.bases {
		b.unprepare()
	}
	pl.preparedWith = nil
}
