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
	"errors"
	"fmt"
	"testing"

	"github.com/ebay/chunkgraph/graph/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SchemaProcedures(t *testing.T) {
	s := graphtest.NewSimple()
	tests := []struct {
		name  string
		bp    *ProcedureBlueprint
		yield []string
		exp   []string
	}{
		{"labels", LabelsProcedure, nil, []string{
			"0 Person", "1 Interest", "2 Founder", "3 Exotic",
			"4 SoftwareEngineering", "5 Bioinformatics", "6 Supernatural",
		}},
		{"edge types", EdgeTypesProcedure, nil, []string{"0 KNOWS_WELL", "1 INTERESTED_IN"}},
		{"property types", PropertyTypesProcedure, nil, []string{
			"0 name String", "1 age Int64", "2 isFrench Bool",
			"3 isReal Bool", "4 duration Int64", "5 proficiency String",
		}},
		{"yield subset", PropertyTypesProcedure, []string{"valueType", "propertyType"}, []string{
			"String name", "Int64 age", "Bool isFrench",
			"Bool isReal", "Int64 duration", "String proficiency",
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for chunkSize := 1; chunkSize <= 8; chunkSize++ {
				rows := run(t, s.Graph, chunkSize, func(b *Builder) *Stream {
					st, tags := b.Procedure(test.bp, test.yield...)
					if len(test.yield) > 0 {
						assert.Len(t, tags, len(test.yield))
					}
					return st
				})
				assert.Equal(t, test.exp, rows, "chunk size %d", chunkSize)
			}
		})
	}
}

func Test_SchemaProcedureCount(t *testing.T) {
	s := graphtest.NewSimple()
	rows := run(t, s.Graph, 2, func(b *Builder) *Stream {
		st, _ := b.Procedure(LabelsProcedure, "label")
		st.Count()
		return st
	})
	assert.Equal(t, []string{"7"}, rows)
}

// countdown is the state of a procedure producing 'total' int64 values, at
// most 'perCall' per Execute, and recording every step it is called for.
type countdown struct {
	total   int64
	perCall int64
	next    int64
	steps   []string
}

func Test_ProcedureSteps(t *testing.T) {
	s := graphtest.NewSimple()
	c := &countdown{total: 5, perCall: 2}
	bp := &ProcedureBlueprint{
		Name:    "test.countdown",
		Returns: []ReturnValue{{Name: "n", NewColumn: vectorOf[int64]}},
		Exec: func(p *Procedure) error {
			c.steps = append(c.steps, p.Step.String())
			switch p.Step {
			case ProcReset:
				c.next = 0
			case ProcExecute:
				for i := int64(0); i < c.perCall && c.next < c.total; i++ {
					appendValue(p.Columns[0], c.next)
					c.next++
				}
				if c.next == c.total {
					p.Finish()
				}
			}
			return nil
		},
	}
	pl, sink := query(func(b *Builder) *Stream {
		st, _ := b.Procedure(bp)
		return st
	})
	exec := NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 0), nil)
	require.NoError(t, exec.Execute(ctx))
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, sink.rows)
	assert.Equal(t, []string{"PREPARE", "EXECUTE", "EXECUTE", "EXECUTE"}, c.steps)

	c.steps = nil
	require.NoError(t, exec.Execute(ctx))
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, sink.rows)
	assert.Equal(t, []string{"RESET", "EXECUTE", "EXECUTE", "EXECUTE"}, c.steps)
}

func Test_ProcedureErrors(t *testing.T) {
	s := graphtest.NewSimple()
	failing := func(failAt ProcedureStep, finish bool) *ProcedureBlueprint {
		return &ProcedureBlueprint{
			Name:    "test.failing",
			Returns: []ReturnValue{{Name: "n", NewColumn: vectorOf[int64]}},
			Exec: func(p *Procedure) error {
				if p.Step != failAt {
					if p.Step == ProcExecute {
						p.Finish()
					}
					return nil
				}
				if finish {
					p.Finish()
					return nil
				}
				return fmt.Errorf("no %v for you", p.Step)
			},
		}
	}
	tests := []struct {
		failAt ProcedureStep
		finish bool
		expErr string
	}{
		{ProcPrepare, false, "Procedure test.failing -> $1: procedure failed in PREPARE: no PREPARE for you"},
		{ProcExecute, false, "Procedure test.failing -> $1: procedure failed in EXECUTE: no EXECUTE for you"},
		{ProcPrepare, true, "Procedure test.failing -> $1: cannot finish a procedure in the PREPARE step"},
		{ProcReset, false, "Procedure test.failing -> $1: procedure failed in RESET: no RESET for you"},
		{ProcReset, true, "Procedure test.failing -> $1: cannot finish a procedure in the RESET step"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v finish=%v", test.failAt, test.finish), func(t *testing.T) {
			pl, _ := query(func(b *Builder) *Stream {
				st, _ := b.Procedure(failing(test.failAt, test.finish))
				return st
			})
			exec := NewExecutor(pl, NewExecutionContext(s.Graph.OpenTransaction(), 0), nil)
			err := exec.Execute(ctx)
			if test.failAt == ProcReset {
				// The reset step only runs when the pipeline executes again.
				require.NoError(t, err)
				err = exec.Execute(ctx)
			}
			assert.EqualError(t, err, test.expErr)
			var pipelineErr *Error
			assert.True(t, errors.As(err, &pipelineErr))
		})
	}
}

func Test_ProcedureYieldChecks(t *testing.T) {
	b := NewBuilder(New())
	assert.Panics(t, func() { b.Procedure(LabelsProcedure, "nope") })
	assert.Panics(t, func() { b.Procedure(LabelsProcedure, "id", "id") })
}
