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

// Package config defines the JSON configuration file read by chunkgraph
// programs.
package config

// Config is the top-level configuration structure. Every section is optional.
type Config struct {
	// Settings that affect how queries are executed.
	Pipeline *Pipeline `json:"pipeline,omitempty"`
	// If set, traces are reported to a Jaeger collector.
	Tracing *Tracing `json:"tracing,omitempty"`
	// If set, Prometheus metrics are served over HTTP.
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Pipeline configures query execution.
type Pipeline struct {
	// The maximum number of rows a processor produces per step. If zero,
	// pipeline.DefaultChunkSize is used.
	ChunkSize int `json:"chunkSize,omitempty"`
	// If set, every query writes a debug report to $TMPDIR.
	DebugQuery bool `json:"debugQuery,omitempty"`
}

// Tracing configures the reporting of OpenTracing spans.
type Tracing struct {
	// URL of a Jaeger collector accepting jaeger.thrift over HTTP, such as
	// "http://localhost:14268/api/traces".
	CollectorEndpoint string `json:"collectorEndpoint"`
	// Fraction of traces to report, between 0 and 1. Zero reports every
	// trace.
	SampleRate float64 `json:"sampleRate,omitempty"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// The host:port to listen on, such as "localhost:9100".
	Address string `json:"address"`
}

// ChunkSize returns the configured chunk size, or zero if none is configured.
func (cfg *Config) ChunkSize() int {
	if cfg == nil || cfg.Pipeline == nil {
		return 0
	}
	return cfg.Pipeline.ChunkSize
}
