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

// Port connects the output Dataframe of one processor to the one processor
// that consumes it. The port tracks how many rows of the current chunk the
// consumer has taken; the Dataframe is only cleared, and the producer only run
// again, once the consumer has taken them all and asks for more.
type Port struct {
	pipeline *Pipeline
	df       *dataframe.Dataframe
	cursor   int
	// consumed counts the rows taken since the pipeline was last reset.
	consumed int
	producer Processor
	consumer Processor
}

// Dataframe returns the Dataframe the producer writes into.
func (p *Port) Dataframe() *dataframe.Dataframe {
	return p.df
}

// Producer returns the processor writing into the port.
func (p *Port) Producer() Processor {
	return p.producer
}

// Consumer returns the processor reading from the port, or nil if the port
// has not been connected yet.
func (p *Port) Consumer() Processor {
	return p.consumer
}

// Cursor returns the index of the first row of the current chunk that has
// not been taken by the consumer.
func (p *Port) Cursor() int {
	return p.cursor
}

// Remaining returns the number of rows of the current chunk not yet taken.
func (p *Port) Remaining() int {
	return p.df.RowCount() - p.cursor
}

// Advance marks the next n rows as taken.
func (p *Port) Advance(n int) {
	if n < 0 || n > p.Remaining() {
		panic(fmt.Sprintf("Port.Advance(%d) with %d rows remaining", n, p.Remaining()))
	}
	p.cursor += n
	p.consumed += n
}

// Exhausted returns true once every row has been taken and the producer has
// finished.
func (p *Port) Exhausted() bool {
	return p.Remaining() == 0 && p.producer.State() == Finished
}

// Fill makes sure the port has rows to take, running the producer as many
// times as needed. It returns false once the producer has finished and every
// row has been taken. Rows of the previous chunk are discarded only here.
func (p *Port) Fill() (bool, error) {
	for p.Remaining() == 0 {
		if p.producer.State() == Finished {
			return false, nil
		}
		p.clear()
		if err := p.pipeline.run(p.producer); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Port) clear() {
	p.df.Clear()
	p.cursor = 0
}

func (p *Port) reset() {
	p.clear()
	p.consumed = 0
}
