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
	"time"

	"github.com/ebay/chunkgraph/util/clocks"
)

// Events receives callbacks about the progress of pipeline execution.
// Execution is single threaded, but the same Events may be shared by
// pipelines running concurrently, so implementations must be concurrent safe.
type Events interface {
	// OpCompleted is called after every Execute call of every processor (even
	// in error cases).
	OpCompleted(event OpCompletedEvent)
	// Clock will be called to obtain a time source that can be used for
	// timing the execution.
	Clock() clocks.Source
}

// OpCompletedEvent describes a single Execute call of a processor.
type OpCompletedEvent struct {
	// The processor that was executed. A pipeline generates one event per
	// Execute call, so there are usually many events per processor.
	Processor Processor
	// When the call started.
	StartedAt time.Time
	// When the call returned. The interval includes the time spent running
	// upstream processors.
	EndedAt time.Time
	// The number of rows the processor took from its inputs.
	InputRows int
	// The number of rows in the processor's output after the call.
	OutputRows int
	// If set, the call failed with this error.
	Err error
}

// ignoreEvents is an implementation of Events that ignores the callbacks.
type ignoreEvents struct {
}

func (ignoreEvents) OpCompleted(event OpCompletedEvent) {
}

func (ignoreEvents) Clock() clocks.Source {
	return clocks.Wall
}
