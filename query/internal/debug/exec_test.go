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
	"errors"
	"testing"
	"time"

	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/stretchr/testify/assert"
)

func Test_OpTotals_String(t *testing.T) {
	b := pipeline.NewBuilder(pipeline.New())
	b.ScanNodes().Limit(10)
	scan := b.Pipeline().Processors()[0]
	limit := b.Pipeline().Processors()[1]

	empty := opTotals(scan, nil)
	assert.Equal(t, "[not executed]", empty)

	events := []pipeline.OpCompletedEvent{{
		Processor:  scan,
		StartedAt:  time.Date(2018, 1, 1, 13, 0, 0, 0, time.UTC),
		EndedAt:    time.Date(2018, 1, 1, 13, 0, 1, 0, time.UTC),
		OutputRows: 4,
	}, {
		Processor:  scan,
		StartedAt:  time.Date(2018, 1, 1, 14, 0, 0, 0, time.UTC),
		EndedAt:    time.Date(2018, 1, 1, 14, 0, 2, 0, time.UTC),
		OutputRows: 0,
	}, {
		Processor:  limit,
		InputRows:  4,
		OutputRows: 4,
		StartedAt:  time.Date(2018, 1, 1, 14, 0, 2, 0, time.UTC),
		EndedAt:    time.Date(2018, 1, 1, 14, 0, 3, 0, time.UTC),
		Err:        errors.New("oops"),
	}}

	limitStats := opTotals(limit, events)
	assert.Equal(t, "execs:   1 | totals: | input rows:     4 | out chunks:   1 | out rows:     4 | took     1s | failed: oops", limitStats)

	scanStats := opTotals(scan, events)
	assert.Equal(t, "execs:   2 | totals: | input rows:     0 | out chunks:   1 | out rows:     4 | took     3s (avg exec 1.5s)", scanStats)
}
