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

package main

import (
	"fmt"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/query/pipeline"
)

// benchQuery is one of the queries the benchmark runs. Its generator is bound
// to the schema of the graph being queried.
type benchQuery struct {
	name string
	gen  query.PipelineGenerator
}

// randomGraphQueries returns the benchmark queries for a graph created with
// graphtest.Random. They cover every read-only processor kind at least once.
func randomGraphQueries(schema *graph.Schema) ([]benchQuery, error) {
	n, ok := schema.LookupPropertyType("n")
	if !ok {
		return nil, fmt.Errorf("graph has no property named 'n'")
	}
	thing := schema.Labels("Thing")
	typeA := schema.EdgeType("A")

	gen := func(fn query.GeneratorFunc) query.PipelineGenerator {
		return fn
	}
	return []benchQuery{
		{
			name: "count-nodes",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanNodes()
				st.Count()
				return st, nil
			}),
		},
		{
			name: "count-edges",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanEdges()
				st.Count()
				return st, nil
			}),
		},
		{
			name: "two-hops",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanNodesByLabel(thing)
				start := st.NodeIDs()
				st.GetOutEdges().GetOutEdges()
				return st.Projection(start, st.Origins(), st.NodeIDs()), nil
			}),
		},
		{
			name: "in-edges-of-type",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanNodes().GetInEdges()
				st.Filter(pipeline.EdgeTypeIn{
					EdgeTypes: st.EdgeTypes(),
					Types:     []graph.EdgeTypeID{typeA},
				})
				return st.Projection(st.Origins(), st.EdgeIDs(), st.NodeIDs()), nil
			}),
		},
		{
			name: "all-edges-page",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanNodes().GetEdges()
				return st.Skip(100).Limit(5000), nil
			}),
		},
		{
			name: "even-n",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanNodes()
				values := pipeline.GetProperties[graph.NodeID, int64](st, st.NodeIDs(), n)
				st.Filter(pipeline.PredicateFunc{
					Name: fmt.Sprintf("%v is even", values),
					Fn: func(df *dataframe.Dataframe, row int) bool {
						return dataframe.VectorOf[int64](df, values).Values[row]%2 == 0
					},
				})
				return st.Projection(st.NodeIDs(), values), nil
			}),
		},
		{
			name: "edge-target-n",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st := b.ScanEdges()
				values := pipeline.GetPropertiesWithNull[graph.NodeID, int64](st, st.NodeIDs(), n)
				return st.Projection(st.EdgeIDs(), values), nil
			}),
		},
		{
			name: "paths-of-two-edges",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				probe := b.ScanNodes().GetOutEdges()
				build := b.ScanEdges()
				joined := pipeline.HashJoin[graph.NodeID](probe, build, probe.NodeIDs(), build.Origins())
				joined.Count()
				return joined, nil
			}),
		},
		{
			name: "node-pairs",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				lhs := b.ScanNodes().Limit(30)
				rhs := b.ScanNodesByLabel(thing).Skip(5).Limit(30)
				return lhs.CartesianProduct(rhs), nil
			}),
		},
		{
			name: "property-types",
			gen: gen(func(b *pipeline.Builder) (*pipeline.Stream, error) {
				st, _ := b.Procedure(pipeline.PropertyTypesProcedure, "propertyType", "valueType")
				return st, nil
			}),
		},
	}, nil
}

// findQuery returns the query named 'name'.
func findQuery(queries []benchQuery, name string) (benchQuery, bool) {
	for _, q := range queries {
		if q.name == name {
			return q, true
		}
	}
	return benchQuery{}, false
}
