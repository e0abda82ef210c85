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
	"context"

	"github.com/ebay/chunkgraph/util/tracing"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// Executor runs a Pipeline to completion.
type Executor struct {
	pipeline *Pipeline
	execCtx  *ExecutionContext
	events   Events
}

// NewExecutor returns an Executor for the pipeline. 'events' may be nil.
func NewExecutor(pl *Pipeline, execCtx *ExecutionContext, events Events) *Executor {
	if events == nil {
		events = ignoreEvents{}
	}
	return &Executor{
		pipeline: pl,
		execCtx:  execCtx,
		events:   events,
	}
}

// Execute prepares the pipeline if needed, then drives its sink until it has
// finished. Running a pipeline that was executed before resets it first. If
// the pipeline was prepared with another ExecutionContext, every processor is
// prepared again with this Executor's context, so readers see its snapshot and
// chunk size. An empty pipeline does nothing. The first error aborts the execution and is
// returned.
func (e *Executor) Execute(ctx context.Context) error {
	pl := e.pipeline
	sink := pl.Sink()
	if sink == nil {
		return nil
	}
	span, _ := opentracing.StartSpanFromContext(ctx, "execute pipeline")
	tracing.UpdateMetric(span, metrics.executeDurationSeconds)
	defer span.Finish()

	pl.events = e.events
	defer func() { pl.events = ignoreEvents{} }()
	if pl.executed {
		pl.reset()
	}
	pl.executed = true
	if pl.preparedWith != nil && pl.preparedWith != e.execCtx {
		pl.unprepare()
	}
	pl.preparedWith = e.execCtx
	for _, p := range pl.processors {
		if p.State() != Unprepared {
			continue
		}
		if err := p.Prepare(e.execCtx); err != nil {
			return e.failed(span, err)
		}
	}
	chunks := 0
	for sink.State() != Finished {
		if out := sink.Output(); out != nil {
			out.clear()
		}
		if err := pl.run(sink); err != nil {
			return e.failed(span, err)
		}
		chunks++
	}
	logrus.WithFields(logrus.Fields{
		"processors": len(pl.processors),
		"chunkSize":  e.execCtx.chunkSize(),
		"sinkCalls":  chunks,
	}).Debug("Pipeline executed")
	return nil
}

func (e *Executor) failed(span opentracing.Span, err error) error {
	metrics.executionErrors.Inc()
	span.SetTag("error", true)
	logrus.WithFields(logrus.Fields{
		"error": err,
	}).Warn("Pipeline execution failed")
	return err
}
