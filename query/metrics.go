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

package query

import (
	metricsutil "github.com/ebay/chunkgraph/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type queryMetrics struct {
	planQueryDurationSeconds    prometheus.Summary
	executeQueryDurationSeconds prometheus.Summary
	queryErrors                 *prometheus.CounterVec
}

var metrics queryMetrics

func init() {
	mr := metricsutil.Registry{
		R:         prometheus.DefaultRegisterer,
		Namespace: "chunkgraph",
		Subsystem: "query",
	}
	metrics = queryMetrics{
		planQueryDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "plan_duration_seconds",
			Help: "The time taken to generate the pipeline of a query.",
		}),
		executeQueryDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "execute_duration_seconds",
			Help: "The time taken to execute the pipeline of a query.",
		}),
		queryErrors: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "The number of failed queries, by the stage that failed.",
		}, []string{"stage"}),
	}
}
