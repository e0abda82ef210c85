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
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/web"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// maxRows limits the number of rows returned by the rows endpoint.
const maxRows = 1000

// server exposes the benchmark graph and its queries over HTTP.
type server struct {
	engine  *query.Engine
	graph   *graph.Graph
	queries []benchQuery
	opts    query.Options
	workers int

	lock   sync.Mutex
	locked struct {
		results []result
	}
}

func (s *server) setResults(results []result) {
	s.lock.Lock()
	s.locked.results = results
	s.lock.Unlock()
}

func (s *server) results() []result {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.locked.results
}

func (s *server) handler() http.Handler {
	m := httprouter.New()
	m.Handler("GET", "/metrics", promhttp.Handler())
	m.GET("/results", s.getResults)
	m.GET("/results.txt", s.getResultsTable)
	m.POST("/sweep", s.runSweep)
	m.GET("/queries", s.listQueries)
	m.GET("/queries/:name/pipeline.dot", s.pipelineDot)
	m.GET("/queries/:name/rows", s.rows)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("[HTTP] %v %v", r.Method, r.URL)
		m.ServeHTTP(w, r)
	})
}

func (s *server) getResults(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	web.Write(w, s.results())
}

func (s *server) getResultsTable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var buf strings.Builder
	err := writeTable(&buf, s.results())
	web.Write(w, err, buf.String())
}

// runSweep runs every query again with the chunk sizes given as a
// comma-separated "chunks" parameter.
func (s *server) runSweep(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	chunkSizes, err := parseChunkSizes(r.FormValue("chunks"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid chunks parameter: %v", err)
		return
	}
	results, err := sweep(r.Context(), s.engine, s.graph, s.queries, chunkSizes, s.workers, s.opts, nil)
	if err == nil {
		err = checkConsistent(results)
	}
	if err == nil {
		s.setResults(results)
	}
	web.Write(w, err, results)
}

func (s *server) listQueries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	names := make([]string, len(s.queries))
	for i, q := range s.queries {
		names[i] = q.name
	}
	web.Write(w, names)
}

func (s *server) lookup(w http.ResponseWriter, ps httprouter.Params) (benchQuery, bool) {
	q, ok := findQuery(s.queries, ps.ByName("name"))
	if !ok {
		web.WriteError(w, http.StatusNotFound, "No query named %q", ps.ByName("name"))
	}
	return q, ok
}

// pipelineDot writes the pipeline of a query in Graphviz format.
func (s *server) pipelineDot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	pl, err := planOnly(q)
	if err != nil {
		web.WriteError(w, http.StatusInternalServerError, "Unable to plan query: %v", err)
		return
	}
	web.Write(w, web.TextFunc(pl.Dot))
}

// rowsResult is the response of the rows endpoint.
type rowsResult struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated,omitempty"`
}

// rows executes a query with the chunk size given as the "chunk" parameter
// and returns up to maxRows of its rows.
func (s *server) rows(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	opts := s.opts
	if chunk := r.FormValue("chunk"); chunk != "" {
		size, err := strconv.Atoi(chunk)
		if err != nil || size < 1 {
			web.WriteError(w, http.StatusBadRequest, "Invalid chunk parameter: %q", chunk)
			return
		}
		opts.ChunkSize = size
	}
	res, err := collectRows(r.Context(), s.engine, s.graph, q, opts, maxRows)
	web.Write(w, err, res)
}

func collectRows(ctx context.Context, engine *query.Engine, g *graph.Graph, q benchQuery,
	opts query.Options, limit int) (*rowsResult, error) {

	res := new(rowsResult)
	sink := func(df *dataframe.Dataframe, op pipeline.Operation) error {
		if op == pipeline.OpReset {
			*res = rowsResult{}
			for _, tag := range df.Tags() {
				res.Columns = append(res.Columns, tag.String())
			}
			return nil
		}
		for row := 0; row < df.RowCount(); row++ {
			if len(res.Rows) >= limit {
				res.Truncated = true
				return nil
			}
			vals := make([]string, 0, df.Size())
			for _, col := range df.Columns() {
				vals = append(vals, col.Format(row))
			}
			res.Rows = append(res.Rows, vals)
		}
		return nil
	}
	err := engine.Execute(ctx, g.OpenTransaction(), q.gen, opts, sink)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// planOnly builds the pipeline of 'q' without executing it.
func planOnly(q benchQuery) (*pipeline.Pipeline, error) {
	pl := pipeline.New()
	st, err := q.gen.Generate(pipeline.NewBuilder(pl))
	if err != nil {
		return nil, err
	}
	st.Lambda(func(*dataframe.Dataframe, pipeline.Operation) error { return nil })
	return pl, nil
}
