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

// Package debug generates human readable reports describing how a query was
// processed.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/clocks"
	"github.com/sirupsen/logrus"
)

// timestampFormat is used to format the timestamps written to the report.
const timestampFormat = "2006-01-02 15:04:05.000000 MST"

// optionsDumper formats the query options in the report. Pointer addresses
// would make reports of identical queries differ.
var optionsDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Tracker defines points in the query processing sequence. The Query Engine
// will call these at the appropriate places in the processing.
type Tracker interface {
	Planned(*pipeline.Pipeline, error)
	ExecEvents(*pipeline.Pipeline) pipeline.Events
	Executed(error)
	Close()
}

// trackerID is used by New() to assign an Id to the query, via an atomic.Add.
// Nothing else should need to be reading or writing this.
var trackerID uint64

// New returns a new Tracker. The caller is expected to arrange for the various
// methods on Tracker to get called at the right time. If 'debug' is set the
// tracker will accumulate a detailed query report and write it to debugOut. If
// debugOut is nil, the report will be written to a file in $TMPDIR. If 'debug'
// is false, a no-op Tracker is returned. 'options', if not nil, is dumped into
// the report.
func New(debug bool, debugOut io.Writer, clock clocks.Source, commit graph.CommitHash, options interface{}) Tracker {
	if !debug {
		return noopTracker{}
	}
	if clock == nil {
		clock = clocks.Wall
	}
	t := &debugTracker{
		id:    atomic.AddUint64(&trackerID, 1),
		clock: clock,
	}
	if debugOut == nil {
		f, err := os.Create(filepath.Join(os.TempDir(), fmt.Sprintf("query_debug_%d", t.id)))
		if err != nil {
			logrus.Warnf("Unable to create query debug file: %v", err)
			return noopTracker{}
		}
		logrus.Infof("Query Debug Info %d being written to %s", t.id, f.Name())
		t.close = f
		debugOut = f
	}
	t.out = bufio.NewWriter(debugOut)
	t.started = t.clock.Now()
	fmt.Fprintf(&t.report.header, "Started at: %s\n", t.started.UTC().Format(timestampFormat))
	t.report.input = fmt.Sprintf("Query @ Commit: %v\n", commit)
	if options != nil {
		t.report.input += "Options:\n" + optionsDumper.Sdump(options)
	}
	return t
}

// debugTracker implements the Tracker interface. It will generate a human
// readable query debug report containing diagnostic information about the query
// processing.
type debugTracker struct {
	id       uint64
	clock    clocks.Source
	started  time.Time
	planned  time.Time
	executed time.Time
	// out is where the report will be written to.
	out *bufio.Writer
	// close if set will be closed once the report is written.
	close io.Closer
	// The created report contains the below sections, in the order you see.
	report struct {
		header    strings.Builder
		input     string
		planned   string
		execution func(io.Writer)
		execErr   string
	}
}

func (t *debugTracker) Planned(pl *pipeline.Pipeline, err error) {
	t.planned = t.clock.Now()
	fmt.Fprintf(&t.report.header, "Planning  %v\n", t.planned.Sub(t.started))
	if err != nil {
		t.report.planned = fmt.Sprintf("Error: %v\n", err)
		return
	}
	b := strings.Builder{}
	for _, p := range pl.Processors() {
		fmt.Fprintf(&b, "%s\n", p.Describe())
	}
	t.report.planned = b.String()
}

func (t *debugTracker) ExecEvents(pl *pipeline.Pipeline) pipeline.Events {
	e := newExecEvents(pl, t.clock)
	t.report.execution = e.dump
	return e
}

func (t *debugTracker) Executed(err error) {
	t.executed = t.clock.Now()
	fmt.Fprintf(&t.report.header, "Executing %v\n", t.executed.Sub(t.planned))
	if err != nil {
		t.report.execErr = fmt.Sprintf("Error: %v\n", err)
	}
}

func (t *debugTracker) Close() {
	end := t.clock.Now()
	t.out.WriteString(t.report.header.String())
	fmt.Fprintf(t.out, "Query Ended at: %s\n", end.UTC().Format(timestampFormat))
	fmt.Fprintf(t.out, "Total: %v\n\n", end.Sub(t.started))
	t.out.WriteString(t.report.input)
	if t.report.planned != "" {
		t.out.WriteString("\nPipeline:\n")
		t.out.WriteString(t.report.planned)
	}
	if t.report.execution != nil {
		t.out.WriteString("\nQuery Execution Summary:\n")
		t.report.execution(t.out)
	}
	if t.report.execErr != "" {
		t.out.WriteString("\nExecution Failed:\n")
		t.out.WriteString(t.report.execErr)
	}
	t.out.WriteByte('\n')

	flushErr := t.out.Flush()
	if flushErr != nil {
		logrus.WithFields(logrus.Fields{
			"query_id": t.id,
			"error":    flushErr,
		}).Warn("Error writing report for query")
	}
	// even if the flush failed, we should still try and close the output if
	// needed.
	if t.close != nil {
		closeErr := t.close.Close()
		if closeErr != nil {
			logrus.WithFields(logrus.Fields{
				"query_id": t.id,
				"error":    closeErr,
			}).Warn("Error closing report for query")
			return
		}
	}
	if flushErr != nil {
		return
	}
	logrus.WithField("query_id", t.id).Info("Completed query debug report")
}

// noopTracker implements the Tracker interface, everything is effectively a
// no-op
type noopTracker struct {
}

func (noopTracker) Planned(*pipeline.Pipeline, error) {}
func (noopTracker) ExecEvents(*pipeline.Pipeline) pipeline.Events {
	return nil
}
func (noopTracker) Executed(error) {}
func (noopTracker) Close()         {}
