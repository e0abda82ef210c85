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

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/dataframe"
)

// ChangeOp selects what a Change processor does.
type ChangeOp int

// ChangeOp values.
const (
	// ChangeNew creates a change and outputs its ID.
	ChangeNew ChangeOp = iota + 1
	// ChangeSubmit commits the change the transaction is writing and outputs
	// its ID.
	ChangeSubmit
	// ChangeDelete discards the change the transaction is writing and outputs
	// its ID.
	ChangeDelete
	// ChangeList outputs the IDs of every pending change.
	ChangeList
)

func (op ChangeOp) String() string {
	switch op {
	case ChangeNew:
		return "NEW"
	case ChangeSubmit:
		return "SUBMIT"
	case ChangeDelete:
		return "DELETE"
	case ChangeList:
		return "LIST"
	}
	return fmt.Sprintf("ChangeOp(%d)", int(op))
}

// change applies one ChangeOp through the context's ChangeManager. It runs
// once per execution and outputs the affected change IDs.
type change struct {
	processorBase
	op  ChangeOp
	ids *dataframe.Vector[graph.ChangeID]
}

func (p *change) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	if ctx.Changes == nil {
		panic(fmt.Sprintf("%v: ExecutionContext has no ChangeManager", p.Describe()))
	}
	return nil
}

func (p *change) Execute() error {
	p.begin()
	changes := p.ctx.Changes
	switch p.op {
	case ChangeNew:
		p.ids.Append(changes.NewChange().ID())
	case ChangeSubmit, ChangeDelete:
		tx, ok := p.ctx.Tx.(graph.PendingCommitWriteTx)
		if !ok || !tx.Writing() {
			return p.errorf("Transaction must be writing a pending commit")
		}
		id := tx.ChangeAccessor().ID()
		if p.op == ChangeSubmit {
			if _, err := changes.Submit(id); err != nil {
				return p.wrap(err, "failed to submit change")
			}
		} else {
			if err := changes.Delete(id); err != nil {
				return p.wrap(err, "failed to delete change")
			}
		}
		p.ids.Append(id)
	case ChangeList:
		p.ids.Append(changes.List()...)
	default:
		return p.errorf("unknown change operation %v", p.op)
	}
	p.finish()
	return nil
}

func (p *change) Reset() {
	p.reset()
}
