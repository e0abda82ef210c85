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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cheggaaa/pb"
	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/query"
	"github.com/ebay/chunkgraph/query/dataframe"
	"github.com/ebay/chunkgraph/query/pipeline"
	"github.com/ebay/chunkgraph/util/clocks"
	"github.com/ebay/chunkgraph/util/parallel"
	"github.com/ebay/chunkgraph/util/table"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

// result describes one execution of a query with a given chunk size.
type result struct {
	Query     string        `json:"query"`
	ChunkSize int           `json:"chunkSize"`
	Chunks    int           `json:"chunks"`
	Rows      int           `json:"rows"`
	Digest    string        `json:"digest"`
	Took      time.Duration `json:"took"`
}

// digestSink returns a sink that hashes every row it receives into 'res'.
func digestSink(res *result) pipeline.SinkFunc {
	d := xxhash.New()
	var line strings.Builder
	return func(df *dataframe.Dataframe, op pipeline.Operation) error {
		if op == pipeline.OpReset {
			d.Reset()
			res.Chunks, res.Rows = 0, 0
			return nil
		}
		res.Chunks++
		for row := 0; row < df.RowCount(); row++ {
			line.Reset()
			for i, col := range df.Columns() {
				if i > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(col.Format(row))
			}
			line.WriteByte('\n')
			io.WriteString(d, line.String())
		}
		res.Rows += df.RowCount()
		res.Digest = fmt.Sprintf("%016x", d.Sum64())
		return nil
	}
}

// runQuery executes 'q' once against the current state of 'g'.
func runQuery(ctx context.Context, engine *query.Engine, g *graph.Graph, q benchQuery,
	chunkSize int, opts query.Options) (result, error) {

	res := result{
		Query:     q.name,
		ChunkSize: chunkSize,
		Digest:    fmt.Sprintf("%016x", xxhash.Sum64(nil)),
	}
	opts.ChunkSize = chunkSize
	start := clocks.Wall.Now()
	err := engine.Execute(ctx, g.OpenTransaction(), q.gen, opts, digestSink(&res))
	res.Took = clocks.Wall.Now().Sub(start)
	return res, err
}

// sweep runs every query with every chunk size, using up to 'workers'
// concurrent executions. Results are ordered by query, then chunk size.
func sweep(ctx context.Context, engine *query.Engine, g *graph.Graph, queries []benchQuery,
	chunkSizes []int, workers int, opts query.Options, progress *pb.ProgressBar) ([]result, error) {

	type job struct {
		q         benchQuery
		chunkSize int
	}
	jobs := make([]job, 0, len(queries)*len(chunkSizes))
	for _, q := range queries {
		for _, size := range chunkSizes {
			jobs = append(jobs, job{q: q, chunkSize: size})
		}
	}
	results := make([]result, len(jobs))
	err := parallel.ForEach(ctx, len(jobs), workers, func(ctx context.Context, i int) error {
		res, err := runQuery(ctx, engine, g, jobs[i].q, jobs[i].chunkSize, opts)
		if err != nil {
			return fmt.Errorf("query %v with chunk size %d: %v", jobs[i].q.name, jobs[i].chunkSize, err)
		}
		results[i] = res
		log.WithFields(log.Fields{
			"query":     res.Query,
			"chunkSize": res.ChunkSize,
			"rows":      res.Rows,
			"took":      res.Took,
		}).Debug("Ran query")
		if progress != nil {
			progress.Increment()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// checkConsistent returns an error if any query produced different rows for
// different chunk sizes.
func checkConsistent(results []result) error {
	first := make(map[string]result)
	for _, res := range results {
		exp, ok := first[res.Query]
		if !ok {
			first[res.Query] = res
			continue
		}
		if res.Rows != exp.Rows || res.Digest != exp.Digest {
			return fmt.Errorf("query %v produced %d rows (digest %v) with chunk size %d "+
				"but %d rows (digest %v) with chunk size %d",
				res.Query, exp.Rows, exp.Digest, exp.ChunkSize,
				res.Rows, res.Digest, res.ChunkSize)
		}
	}
	return nil
}

// writeTable writes a human-readable summary of 'results' to 'w'.
func writeTable(w io.Writer, results []result) error {
	t := make([][]string, 0, len(results)+1)
	t = append(t, []string{"Query", "Chunk Size", "Chunks", "Rows", "Took", "Rows/s"})
	for _, res := range results {
		rate := "-"
		if res.Took > 0 {
			rate = fmtr.Sprintf("%d", int64(float64(res.Rows)/res.Took.Seconds()))
		}
		t = append(t, []string{
			res.Query,
			fmtr.Sprintf("%d", res.ChunkSize),
			fmtr.Sprintf("%d", res.Chunks),
			fmtr.Sprintf("%d", res.Rows),
			res.Took.Round(time.Microsecond).String(),
			rate,
		})
	}
	return table.PrettyPrint(w, t, table.HeaderRow|table.RightJustifyNumbers)
}
