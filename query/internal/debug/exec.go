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

package debug

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/clocks"
)

// execEvents implements pipeline.Events, capturing OpCompleted events. It
// generates a listing of the pipeline's processors that shows the timing and
// row counts collected from these events.
type execEvents struct {
	pipeline *pipeline.Pipeline
	clock    clocks.Source
	lock     sync.Mutex // protects locked
	locked   struct {
		events []pipeline.OpCompletedEvent
	}
}

func newExecEvents(pl *pipeline.Pipeline, clock clocks.Source) *execEvents {
	e := execEvents{
		pipeline: pl,
		clock:    clock,
	}
	e.locked.events = make([]pipeline.OpCompletedEvent, 0, 8)
	return &e
}

// OpCompleted implements the pipeline.Events interface
func (e *execEvents) OpCompleted(event pipeline.OpCompletedEvent) {
	e.lock.Lock()
	e.locked.events = append(e.locked.events, event)
	e.lock.Unlock()
}

// Clock implements the pipeline.Events interface
func (e *execEvents) Clock() clocks.Source {
	return e.clock
}

// dump writes a textual summary of the executed pipeline to the supplied
// writer. It contains a line for each processor, in the order they were added,
// with summary information about what that processor did.
func (e *execEvents) dump(w io.Writer) {
	e.lock.Lock()
	defer e.lock.Unlock()
	processors := e.pipeline.Processors()
	maxLen := 0
	for _, p := range processors {
		maxLen = max(maxLen, len(p.Describe()))
	}
	for _, p := range processors {
		fmt.Fprintf(w, "%s%s %s\n", p.Describe(),
			strings.Repeat(" ", maxLen-len(p.Describe())),
			opTotals(p, e.locked.events))
	}
}

// opTotals returns a string with an aggregate summary of the events for the
// supplied processor.
func opTotals(p pipeline.Processor, events []pipeline.OpCompletedEvent) string {
	var duration time.Duration
	var executions, inputRows, outputChunks, outputRows int
	var err error
	for _, event := range events {
		if event.Processor != p {
			continue
		}
		duration += event.EndedAt.Sub(event.StartedAt)
		executions++
		inputRows += event.InputRows
		if event.OutputRows > 0 {
			outputChunks++
			outputRows += event.OutputRows
		}
		if event.Err != nil {
			err = event.Err
		}
	}
	if executions == 0 {
		return "[not executed]"
	}
	avg := ""
	if executions > 1 {
		avg = fmt.Sprintf(" (avg exec %v)",
			(duration / time.Duration(executions)).Round(time.Microsecond))
	}
	failed := ""
	if err != nil {
		failed = fmt.Sprintf(" | failed: %v", err)
	}
	return fmt.Sprintf("execs:%4d | totals: | input rows:%6d | out chunks:%4d | out rows:%6d | took %6v%s%s",
		executions, inputRows, outputChunks, outputRows,
		duration.Round(time.Microsecond), avg, failed)
}
