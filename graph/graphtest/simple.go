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

// Package graphtest builds small, well-known graphs for tests and benchmarks.
package graphtest

import (
	"fmt"
	"math/rand"

	"github.com/ebay/chunkgraph/graph"
)

// Simple is a small social graph of people and their interests, written in
// two commits. IDs are assigned in the order the entities are listed below,
// so the first commit holds nodes 0-6 and edges 0-7, and the second commit
// holds nodes 7-8 and edges 8-9.
type Simple struct {
	Graph *graph.Graph

	Remy, Adam, Computers, Eighties, Bio, Cooking, Ghosts graph.NodeID
	Maxime, Paddle                                        graph.NodeID

	KnowsWell, InterestedIn graph.EdgeTypeID

	Person, Interest, Founder, Exotic graph.LabelID

	// Node properties.
	Name, Age, IsFrench, IsReal graph.PropertyType
	// Edge properties.
	Duration, Proficiency graph.PropertyType
}

// NewSimple creates and populates the Simple graph.
func NewSimple() *Simple {
	g := graph.New("simpledb")
	s := &Simple{Graph: g}
	schema := g.Schema()
	s.Person = schema.Label("Person")
	s.Interest = schema.Label("Interest")
	s.Founder = schema.Label("Founder")
	s.Exotic = schema.Label("Exotic")
	s.KnowsWell = schema.EdgeType("KNOWS_WELL")
	s.InterestedIn = schema.EdgeType("INTERESTED_IN")
	s.Name = schema.MustPropertyType("name", graph.String)
	s.Age = schema.MustPropertyType("age", graph.Int64)
	s.IsFrench = schema.MustPropertyType("isFrench", graph.Bool)
	s.IsReal = schema.MustPropertyType("isReal", graph.Bool)
	s.Duration = schema.MustPropertyType("duration", graph.Int64)
	s.Proficiency = schema.MustPropertyType("proficiency", graph.String)

	b := g.NewCommitBuilder()
	node := func(name string, labels ...string) graph.NodeID {
		id := b.AddNode(schema.Labels(labels...))
		must(b.SetNodeProperty(id, s.Name, name))
		return id
	}
	edge := func(src, tgt graph.NodeID, t graph.EdgeTypeID, duration int64, proficiency string) {
		id := b.AddEdge(src, tgt, t)
		if duration > 0 {
			must(b.SetEdgeProperty(id, s.Duration, duration))
		}
		if proficiency != "" {
			must(b.SetEdgeProperty(id, s.Proficiency, proficiency))
		}
	}
	s.Remy = node("Remy", "Person", "SoftwareEngineering", "Founder")
	must(b.SetNodeProperty(s.Remy, s.Age, int64(32)))
	must(b.SetNodeProperty(s.Remy, s.IsFrench, true))
	s.Adam = node("Adam", "Person", "Bioinformatics", "Founder")
	must(b.SetNodeProperty(s.Adam, s.Age, int64(32)))
	must(b.SetNodeProperty(s.Adam, s.IsFrench, true))
	s.Computers = node("Computers", "Interest", "SoftwareEngineering")
	must(b.SetNodeProperty(s.Computers, s.IsReal, true))
	s.Eighties = node("Eighties", "Interest", "Exotic")
	must(b.SetNodeProperty(s.Eighties, s.IsReal, false))
	s.Bio = node("Bio", "Interest")
	s.Cooking = node("Cooking", "Interest")
	s.Ghosts = node("Ghosts", "Interest", "Supernatural", "Exotic")
	must(b.SetNodeProperty(s.Ghosts, s.IsReal, true))

	edge(s.Remy, s.Adam, s.KnowsWell, 20, "")
	edge(s.Adam, s.Remy, s.KnowsWell, 20, "")
	edge(s.Remy, s.Ghosts, s.InterestedIn, 20, "expert")
	edge(s.Remy, s.Computers, s.InterestedIn, 0, "expert")
	edge(s.Remy, s.Eighties, s.InterestedIn, 20, "moderate")
	edge(s.Adam, s.Bio, s.InterestedIn, 0, "")
	edge(s.Adam, s.Cooking, s.InterestedIn, 0, "")
	edge(s.Ghosts, s.Remy, s.KnowsWell, 200, "expert")
	mustCommit(g, b)

	b = g.NewCommitBuilder()
	s.Maxime = node("Maxime", "Person", "Bioinformatics")
	must(b.SetNodeProperty(s.Maxime, s.IsFrench, true))
	s.Paddle = node("Paddle", "Interest")
	edge(s.Maxime, s.Bio, s.InterestedIn, 0, "")
	edge(s.Maxime, s.Paddle, s.InterestedIn, 0, "expert")
	mustCommit(g, b)
	return s
}

// Random creates a graph with 'numNodes' nodes spread over 'numCommits'
// commits. Each node gets up to 'maxDegree' outgoing edges to random earlier
// or same-commit nodes, and an "n" Int64 property equal to its ID. About one
// in 'deleteEvery' nodes is deleted in a final commit; 0 disables deletion.
func Random(rnd *rand.Rand, numNodes, numCommits, maxDegree, deleteEvery int) *graph.Graph {
	g := graph.New(fmt.Sprintf("random-%d", numNodes))
	schema := g.Schema()
	label := schema.Labels("Thing")
	types := []graph.EdgeTypeID{schema.EdgeType("A"), schema.EdgeType("B")}
	n := schema.MustPropertyType("n", graph.Int64)
	if numCommits < 1 {
		numCommits = 1
	}
	perCommit := (numNodes + numCommits - 1) / numCommits
	var nodes []graph.NodeID
	for len(nodes) < numNodes {
		b := g.NewCommitBuilder()
		for i := 0; i < perCommit && len(nodes) < numNodes; i++ {
			id := b.AddNode(label)
			must(b.SetNodeProperty(id, n, int64(id)))
			nodes = append(nodes, id)
			for d := rnd.Intn(maxDegree + 1); d > 0; d-- {
				b.AddEdge(id, nodes[rnd.Intn(len(nodes))], types[rnd.Intn(len(types))])
			}
		}
		mustCommit(g, b)
	}
	if deleteEvery > 0 {
		b := g.NewCommitBuilder()
		for _, id := range nodes {
			if rnd.Intn(deleteEvery) == 0 {
				b.DeleteNode(id)
			}
		}
		mustCommit(g, b)
	}
	return g
}

func must(err error) {
	if err != nil {
		panic(err.Error())
	}
}

func mustCommit(g *graph.Graph, b *graph.CommitBuilder) {
	if _, err := g.Commit(b); err != nil {
		panic(err.Error())
	}
}
