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
)

// DefaultChunkSize is the chunk size used when an ExecutionContext does not
// set one.
const DefaultChunkSize = 1024

// ExecutionContext carries what processors need to run: the snapshot to read,
// the chunk size, and for mutations the transaction and change manager.
type ExecutionContext struct {
	// View is the snapshot every reader reads from. Required.
	View *graph.GraphView
	// ChunkSize is the maximum number of rows a processor produces per
	// Execute. Zero selects DefaultChunkSize.
	ChunkSize int
	// Tx is the transaction the query runs in. Change processors require it.
	Tx graph.Transaction
	// Changes manages the pending changes of the graph. Change processors
	// require it.
	Changes *graph.ChangeManager
}

// NewExecutionContext returns a context reading the snapshot of 'tx'.
func NewExecutionContext(tx graph.Transaction, chunkSize int) *ExecutionContext {
	return &ExecutionContext{
		View:      tx.View(),
		ChunkSize: chunkSize,
		Tx:        tx,
	}
}

func (c *ExecutionContext) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}
