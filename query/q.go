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

// Package query provides a high level entry point for running queries against
// a graph. It builds a query's pipeline with a PipelineGenerator and executes
// it against a transaction's snapshot.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query/internal/debug"
	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/clocks"
	"github.com/ebay/chunkgraph/util/graphviz"
	"github.com/ebay/chunkgraph/util/tracing"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// PipelineGenerator turns a query into processors. Generate adds the query's
// processors through 'b' and returns the stream holding the query's result.
type PipelineGenerator interface {
	Generate(b *pipeline.Builder) (*pipeline.Stream, error)
}

// GeneratorFunc adapts a function to the PipelineGenerator interface.
type GeneratorFunc func(b *pipeline.Builder) (*pipeline.Stream, error)

// Generate implements PipelineGenerator.
func (f GeneratorFunc) Generate(b *pipeline.Builder) (*pipeline.Stream, error) {
	return f(b)
}

// Stage identifies the step of query processing that failed.
type Stage int

// Stage values.
const (
	// PlanStage covers building the pipeline.
	PlanStage Stage = iota + 1
	// ExecuteStage covers running the pipeline.
	ExecuteStage
)

func (s Stage) String() string {
	switch s {
	case PlanStage:
		return "plan"
	case ExecuteStage:
		return "execute"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error is returned by Engine.Execute when a query fails.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("query failed during %v: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// errNoStream is returned when a generator succeeds without a result stream.
var errNoStream = errors.New("generator returned no result stream")

// Options contains various settings that affect the query processing.
type Options struct {
	// ChunkSize is the maximum number of rows per chunk. Zero selects
	// pipeline.DefaultChunkSize.
	ChunkSize int
	// If set diagnostic information about the query processing will be collected into a report.
	Debug bool
	// By default the report is written to a file in $TMPDIR. If DebugOut is set, the report
	// will be written to that instead.
	DebugOut io.Writer
	// If set the Debug tracker will use this clock for generating timing information, if not
	// set it'll use clocks.Wall.
	Clock clocks.Source
}

// Engine provides a high level interface for running queries.
type Engine struct {
	changes *graph.ChangeManager
}

// New creates a new Engine, the resulting Engine can be used concurrently to
// execute queries. 'changes' manages the pending changes that Change
// processors act on; it may be nil if no query uses them.
func New(changes *graph.ChangeManager) *Engine {
	return &Engine{changes: changes}
}

// Execute builds the pipeline for a query with 'gen' and runs it against the
// snapshot of 'tx', passing every result chunk to 'sink'. It blocks until the
// query completes. On failure it returns an *Error; no partial result is
// reported beyond the chunks already passed to the sink.
func (e *Engine) Execute(ctx context.Context, tx graph.Transaction, gen PipelineGenerator,
	opt Options, sink pipeline.SinkFunc) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Query")
	defer span.Finish()

	tracker := debug.New(opt.Debug, opt.DebugOut, opt.Clock, tx.View().Hash(), opt)
	defer tracker.Close()

	span, _ = opentracing.StartSpanFromContext(ctx, "plan query")
	tracing.UpdateMetric(span, metrics.planQueryDurationSeconds)
	pl := pipeline.New()
	result, err := gen.Generate(pipeline.NewBuilder(pl))
	if err == nil && result == nil {
		err = errNoStream
	}
	if err == nil {
		result.Lambda(sink)
	}
	tracker.Planned(pl, err)
	span.Finish()
	if err != nil {
		metrics.queryErrors.WithLabelValues(PlanStage.String()).Inc()
		logrus.WithFields(logrus.Fields{
			"error": err,
		}).Warn("Pipeline generation failed")
		return &Error{Stage: PlanStage, Err: err}
	}

	span, cctx := opentracing.StartSpanFromContext(ctx, "execute query")
	tracing.UpdateMetric(span, metrics.executeQueryDurationSeconds)
	defer span.Finish()
	execCtx := pipeline.NewExecutionContext(tx, opt.ChunkSize)
	execCtx.Changes = e.changes
	err = pipeline.NewExecutor(pl, execCtx, tracker.ExecEvents(pl)).Execute(cctx)
	tracker.Executed(err)
	if err != nil {
		metrics.queryErrors.WithLabelValues(ExecuteStage.String()).Inc()
		filename := path.Join(os.TempDir(), "lastfailedpipeline.dot")
		graphviz.Create(filename, pl.Dot, graphviz.Options{})
		logrus.WithFields(logrus.Fields{
			"error":               err,
			"pipeline_written_to": filename,
		}).Warn("Pipeline execution failed")
		return &Error{Stage: ExecuteStage, Err: err}
	}
	return nil
}
