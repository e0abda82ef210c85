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
	metricsutil "github.com/ebay/chunkgraph/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type pipelineMetrics struct {
	executeDurationSeconds prometheus.Summary
	processorExecutions    *prometheus.CounterVec
	processorRows          *prometheus.CounterVec
	executionErrors        prometheus.Counter
}

var metrics pipelineMetrics

func init() {
	mr := metricsutil.Registry{
		R:         prometheus.DefaultRegisterer,
		Namespace: "chunkgraph",
		Subsystem: "pipeline",
	}
	metrics = pipelineMetrics{
		executeDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "execute_duration_seconds",
			Help: "The time taken to run a pipeline to completion.",
		}),
		processorExecutions: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_executions_total",
			Help: "The number of Execute calls, by processor kind.",
		}, []string{"processor"}),
		processorRows: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_output_rows_total",
			Help: "The number of rows produced, by processor kind.",
		}, []string{"processor"}),
		executionErrors: mr.NewCounter(prometheus.CounterOpts{
			Name: "execution_errors_total",
			Help: "The number of pipeline executions aborted by an error.",
		}),
	}
}
