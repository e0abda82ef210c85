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

// Package metrics aids in defining Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultObjectives are the quantiles reported by duration summaries.
var DefaultObjectives = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001}

// Registry encapsulates metrics creation and registration. Namespace and
// Subsystem fill in the metric options that leave them empty.
type Registry struct {
	R         prometheus.Registerer
	Namespace string
	Subsystem string
}

func (mr Registry) name(namespace, subsystem *string) {
	if *namespace == "" {
		*namespace = mr.Namespace
	}
	if *subsystem == "" {
		*subsystem = mr.Subsystem
	}
}

// NewCounter returns a new created and registered Prometheus Counter
func (mr Registry) NewCounter(c prometheus.CounterOpts) prometheus.Counter {
	mr.name(&c.Namespace, &c.Subsystem)
	pm := prometheus.NewCounter(c)
	mr.R.MustRegister(pm)
	return pm
}

// NewSummary returns a new and registered Prometheus Summary. If no
// objectives are given, DefaultObjectives are used.
func (mr Registry) NewSummary(s prometheus.SummaryOpts) prometheus.Summary {
	mr.name(&s.Namespace, &s.Subsystem)
	if s.Objectives == nil {
		s.Objectives = DefaultObjectives
	}
	pm := prometheus.NewSummary(s)
	mr.R.MustRegister(pm)
	return pm
}

// NewCounterVec returns a new and registered Prometheus CounterVec
func (mr Registry) NewCounterVec(c prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	mr.name(&c.Namespace, &c.Subsystem)
	pm := prometheus.NewCounterVec(c, labels)
	mr.R.MustRegister(pm)
	return pm
}
