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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ebay/chunkgraph/graph/graphtest"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/clocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// debugTracker shouldn't barf if a query fails at one of the steps and not all
// the Tracker calls are made to it.
func Test_DebugTrackerIncompleteQuery(t *testing.T) {
	out := strings.Builder{}
	d := New(true, &out, clocks.NewMock(), 0x2a, nil)
	d.Planned(nil, errors.New("invalid generator"))
	d.Close()
	assert.Equal(t, `
Started at: 1970-01-01 00:00:00.000000 UTC
Planning  0s
Query Ended at: 1970-01-01 00:00:00.000000 UTC
Total: 0s

Query @ Commit: 000000000000002a

Pipeline:
Error: invalid generator

`, "\n"+out.String())
}

func Test_DebugTrackerExecutedQuery(t *testing.T) {
	s := graphtest.NewSimple()
	clock := clocks.NewMock()
	out := strings.Builder{}
	options := struct{ ChunkSize int }{ChunkSize: 4}
	d := New(true, &out, clock, s.Graph.View().Hash(), options)

	pl := pipeline.New()
	pipeline.NewBuilder(pl).ScanNodes().Limit(6).Lambda(
		func(*dataframe.Dataframe, pipeline.Operation) error { return nil })
	d.Planned(pl, nil)
	clock.Advance(1500)
	exec := pipeline.NewExecutor(pl, pipeline.NewExecutionContext(s.Graph.OpenTransaction(), 4), d.ExecEvents(pl))
	require.NoError(t, exec.Execute(context.Background()))
	d.Executed(nil)
	d.Close()

	report := out.String()
	assert.Contains(t, report, "Planning  0s\nExecuting 1.5µs\n")
	assert.Contains(t, report, "Options:\n")
	assert.Contains(t, report, "ChunkSize: (int) 4")
	assert.Contains(t, report, "\nPipeline:\nScanNodes -> $1\nLimit 6\nLambda\n")
	assert.Contains(t, report, "ScanNodes -> $1 execs:   2 | totals: | input rows:     0 | out chunks:   2 | out rows:     8 | took     0s (avg exec 0s)\n")
	assert.Contains(t, report, "Limit 6         execs:   2 | totals: | input rows:     6 | out chunks:   2 | out rows:     6 | took     0s (avg exec 0s)\n")
	assert.NotContains(t, report, "Execution Failed")
}

func Test_NoopTracker(t *testing.T) {
	d := New(false, nil, nil, 0, nil)
	assert.Nil(t, d.ExecEvents(pipeline.New()))
	d.Planned(nil, nil)
	d.Executed(errors.New("ignored"))
	d.Close()
}
