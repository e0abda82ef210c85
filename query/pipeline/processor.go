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
)

// State is the lifecycle stage of a Processor.
type State int

// State values.
const (
	// Unprepared processors have not been bound to an ExecutionContext.
	Unprepared State = iota
	// Prepared processors are ready for their first Execute.
	Prepared
	// Executing processors have produced some output and may produce more.
	Executing
	// Finished processors will produce no more output in this execution.
	Finished
	// Reset processors have cleared their state and are ready to execute
	// again.
	Reset
)

func (s State) String() string {
	switch s {
	case Unprepared:
		return "Unprepared"
	case Prepared:
		return "Prepared"
	case Executing:
		return "Executing"
	case Finished:
		return "Finished"
	case Reset:
		return "Reset"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Processor is a node of a Pipeline.
type Processor interface {
	// Kind returns the name of the processor's type, such as "HashJoin".
	Kind() string
	// Describe returns a human readable description of the processor.
	Describe() string
	// Inputs returns the ports this processor consumes, if any.
	Inputs() []*Port
	// Output returns the port this processor produces into, or nil for a
	// sink.
	Output() *Port
	// State returns the processor's lifecycle stage.
	State() State
	// Prepare binds the processor to an execution context. It is called once,
	// before the first Execute.
	Prepare(ctx *ExecutionContext) error
	// Execute produces at most one chunk of rows into the output port, pulling
	// from the inputs as needed. It may produce zero rows. Once it has
	// nothing more to produce it moves to the Finished state.
	Execute() error
	// Reset clears the processor's cursors and buffers so that the pipeline
	// can be executed again.
	Reset()
}

// processorBase implements the bookkeeping common to all processors.
type processorBase struct {
	kind   string
	desc   string
	inputs []*Port
	output *Port
	state  State
	ctx    *ExecutionContext
}

func (b *processorBase) Kind() string {
	return b.kind
}

func (b *processorBase) Describe() string {
	if b.desc == "" {
		return b.kind
	}
	return b.kind + " " + b.desc
}

func (b *processorBase) Inputs() []*Port {
	return b.inputs
}

func (b *processorBase) Output() *Port {
	return b.output
}

func (b *processorBase) State() State {
	return b.state
}

// prepare records the execution context. Every Prepare method calls this
// first.
func (b *processorBase) prepare(ctx *ExecutionContext) {
	if b.state != Unprepared {
		panic(fmt.Sprintf("%v: Prepare called in state %v", b.Describe(), b.state))
	}
	if ctx == nil || ctx.View == nil {
		panic(fmt.Sprintf("%v: Prepare called without a GraphView", b.Describe()))
	}
	b.ctx = ctx
	b.state = Prepared
}

// unprepare drops the execution context.
func (b *processorBase) unprepare() {
	b.ctx = nil
	b.state = Unprepared
}

// begin marks the start of an Execute call.
func (b *processorBase) begin() {
	switch b.state {
	case Prepared, Executing, Reset:
		b.state = Executing
	default:
		panic(fmt.Sprintf("%v: Execute called in state %v", b.Describe(), b.state))
	}
}

func (b *processorBase) finish() {
	b.state = Finished
}

// reset moves a prepared processor back to the Reset state.
func (b *processorBase) reset() {
	if b.state != Unprepared {
		b.state = Reset
	}
}

// chunkSize returns the row budget of one Execute call.
func (b *processorBase) chunkSize() int {
	return b.ctx.chunkSize()
}

// errorf returns a pipeline Error raised by this processor.
func (b *processorBase) errorf(format string, args ...interface{}) *Error {
	return &Error{Processor: b.Describe(), Msg: fmt.Sprintf(format, args...)}
}

// wrap returns a pipeline Error raised by this processor with an underlying
// cause.
func (b *processorBase) wrap(err error, format string, args ...interface{}) *Error {
	return &Error{Processor: b.Describe(), Msg: fmt.Sprintf(format, args...), Err: err}
}
