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

// Operation tells a Lambda or LambdaSource callback why it is being called.
type Operation int

// Operation values.
const (
	// OpReset is passed once at the start of every execution, before any
	// OpExecute, so that the callback can clear accumulated state.
	OpReset Operation = iota + 1
	// OpExecute is passed to consume or produce one chunk.
	OpExecute
)

func (op Operation) String() string {
	switch op {
	case OpReset:
		return "RESET"
	case OpExecute:
		return "EXECUTE"
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// SinkFunc receives the output of a pipeline. It is called with OpExecute
// once per non-empty chunk; the Dataframe is only valid during the call.
type SinkFunc func(df *dataframe.Dataframe, op Operation) error

// SourceFunc produces the rows of a LambdaSource. On OpExecute it appends rows
// to 'df', which is empty on entry, and returns true once it has produced its
// last chunk. Anything appended on OpReset is discarded. A chunk may hold more
// rows than the chunk size.
type SourceFunc func(df *dataframe.Dataframe, op Operation) (finished bool, err error)

// lambda is a sink handing every chunk to a callback.
type lambda struct {
	processorBase
	fn      SinkFunc
	started bool
}

func (p *lambda) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *lambda) Execute() error {
	p.begin()
	in := p.inputs[0]
	if !p.started {
		p.started = true
		if err := p.fn(in.df, OpReset); err != nil {
			return p.wrap(err, "callback failed")
		}
	}
	ok, err := in.Fill()
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	if err := p.fn(in.df, OpExecute); err != nil {
		return p.wrap(err, "callback failed")
	}
	in.Advance(in.Remaining())
	return nil
}

func (p *lambda) Reset() {
	p.started = false
	p.reset()
}

// lambdaSource is a source whose rows come from a callback.
type lambdaSource struct {
	processorBase
	fn      SourceFunc
	started bool
}

func (p *lambdaSource) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *lambdaSource) Execute() error {
	p.begin()
	df := p.output.df
	if !p.started {
		p.started = true
		if _, err := p.fn(df, OpReset); err != nil {
			return p.wrap(err, "callback failed")
		}
		df.Clear()
	}
	finished, err := p.fn(df, OpExecute)
	if err != nil {
		return p.wrap(err, "callback failed")
	}
	if err := df.Aligned(); err != nil {
		return p.wrap(err, "callback produced an invalid chunk")
	}
	if finished {
		p.finish()
	}
	return nil
}

func (p *lambdaSource) Reset() {
	p.started = false
	p.reset()
}
