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

// Command pipeline-bench runs a set of queries over a generated graph with a
// range of chunk sizes. It checks that every chunk size produces the same rows
// and reports how long each execution took.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb"
	docopt "github.com/docopt/docopt-go"
	"github.com/ebay/chunkgraph/config"
	"github.com/ebay/chunkgraph/graph"
	"github.com/ebay/chunkgraph/graph/graphtest"
	"github.com/ebay/chunkgraph/query"
	"github.com/ebay/chunkgraph/util/debuglog"
	"github.com/ebay/chunkgraph/util/graphviz"
	"github.com/ebay/chunkgraph/util/profiling"
	"github.com/ebay/chunkgraph/util/random"
	"github.com/ebay/chunkgraph/util/tracing"
	log "github.com/sirupsen/logrus"
)

const usage = `pipeline-bench runs queries over a generated graph with a range of chunk sizes.

Usage:
  pipeline-bench run [options]
  pipeline-bench serve [options] [--listen=ADDR]

Options:
  --cfg=FILE          Configuration file.
  --nodes=N           Number of nodes to generate [default: 10000].
  --commits=N         Number of commits to spread the nodes over [default: 8].
  --degree=N          Maximum out-degree of a node [default: 6].
  --delete-every=N    Delete about one in N nodes, 0 to delete none [default: 50].
  --seed=N            Random seed, 0 to pick one [default: 0].
  --chunks=LIST       Comma-separated chunk sizes [default: 1,16,256,1024,4096].
  --workers=N         Number of queries to run concurrently [default: 4].
  --cpuprofile=FILE   Write a CPU profile of the sweep to FILE.
  --dot=DIR           Write the pipeline of every query to DIR, as .dot files.
  --listen=ADDR       Address to serve HTTP on, overriding the configuration.
  --debug             Write a debug report for every query execution.
  -v, --verbose       Log debug messages.
`

// options are bound from the command line. Numeric options are held as
// strings and parsed into settings.
type options struct {
	Run         bool   `docopt:"run"`
	Serve       bool   `docopt:"serve"`
	Cfg         string `docopt:"--cfg"`
	Nodes       string `docopt:"--nodes"`
	Commits     string `docopt:"--commits"`
	Degree      string `docopt:"--degree"`
	DeleteEvery string `docopt:"--delete-every"`
	Seed        string `docopt:"--seed"`
	Chunks      string `docopt:"--chunks"`
	Workers     string `docopt:"--workers"`
	CPUProfile  string `docopt:"--cpuprofile"`
	Dot         string `docopt:"--dot"`
	Listen      string `docopt:"--listen"`
	Debug       bool   `docopt:"--debug"`
	Verbose     bool   `docopt:"--verbose"`
}

// settings are the parsed numeric options.
type settings struct {
	nodes       int
	commits     int
	degree      int
	deleteEvery int
	workers     int
	seed        int64
	chunkSizes  []int
}

func main() {
	var opts options
	args, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	if err := args.Bind(&opts); err != nil {
		log.Fatalf("Error binding command-line arguments: %v\nfrom: %+v", err, args)
	}
	set, err := parseSettings(&opts)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	debuglog.Configure(debuglog.Options{Verbose: opts.Verbose})
	log.Infof("Options: %+v", opts)

	cfg := new(config.Config)
	if opts.Cfg != "" {
		cfg, err = config.Load(opts.Cfg)
		if err != nil {
			log.Fatalf("Unable to load configuration: %v", err)
		}
	}
	tracer, err := tracing.New("pipeline-bench", cfg.Tracing)
	if err != nil {
		log.Fatalf("Unable to set up tracing: %v", err)
	}
	defer tracer.Close()

	chunkSizes := set.chunkSizes
	if size := cfg.ChunkSize(); size > 0 && !containsInt(chunkSizes, size) {
		chunkSizes = append(chunkSizes, size)
	}

	rnd, seed := random.New(set.seed)
	log.WithFields(log.Fields{
		"nodes":   set.nodes,
		"commits": set.commits,
		"seed":    seed,
	}).Info("Generating graph")
	g := graphtest.Random(rnd, set.nodes, set.commits, set.degree, set.deleteEvery)
	queries, err := randomGraphQueries(g.Schema())
	if err != nil {
		log.Fatalf("Unable to set up queries: %v", err)
	}
	if opts.Dot != "" {
		if err := writeDotFiles(opts.Dot, queries); err != nil {
			log.Fatalf("Unable to write pipelines: %v", err)
		}
	}

	queryOpts := query.Options{
		Debug: opts.Debug || (cfg.Pipeline != nil && cfg.Pipeline.DebugQuery),
	}
	engine := query.New(graph.NewChangeManager(g))
	results, err := runSweep(context.Background(), engine, g, queries, chunkSizes, set.workers, opts.CPUProfile, queryOpts)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}
	if err := writeTable(os.Stdout, results); err != nil {
		log.Fatalf("Unable to write results: %v", err)
	}

	if opts.Serve {
		addr := opts.Listen
		if addr == "" && cfg.Metrics != nil {
			addr = cfg.Metrics.Address
		}
		if addr == "" {
			addr = "localhost:9970"
		}
		srv := &server{
			engine:  engine,
			graph:   g,
			queries: queries,
			opts:    queryOpts,
			workers: set.workers,
		}
		srv.setResults(results)
		log.Infof("Serving HTTP on %v", addr)
		if err := http.ListenAndServe(addr, srv.handler()); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}
}

// runSweep runs the queries with every chunk size, showing a progress bar
// and, if requested, capturing a CPU profile.
func runSweep(ctx context.Context, engine *query.Engine, g *graph.Graph, queries []benchQuery,
	chunkSizes []int, workers int, cpuProfile string, queryOpts query.Options) ([]result, error) {

	if cpuProfile != "" {
		stop, err := profiling.CPUProfile(cpuProfile)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := stop(); err != nil {
				log.Warnf("Unable to write CPU profile: %v", err)
			}
		}()
	}
	bar := pb.New(len(queries) * len(chunkSizes)).Prefix("Queries ")
	bar.SetMaxWidth(100)
	bar.ShowCounters = true
	bar.Start()
	results, err := sweep(ctx, engine, g, queries, chunkSizes, workers, queryOpts, bar)
	bar.Finish()
	if err != nil {
		return nil, err
	}
	return results, checkConsistent(results)
}

// writeDotFiles writes the pipeline of each query to 'dir'.
func writeDotFiles(dir string, queries []benchQuery) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, q := range queries {
		pl, err := planOnly(q)
		if err != nil {
			return fmt.Errorf("query %v: %v", q.name, err)
		}
		filename := filepath.Join(dir, q.name+".dot")
		if err := graphviz.Create(filename, pl.Dot, graphviz.Options{}); err != nil {
			return err
		}
		log.Infof("Wrote pipeline of %v to %v", q.name, filename)
	}
	return nil
}

// parseSettings parses the numeric options.
func parseSettings(opts *options) (*settings, error) {
	set := new(settings)
	ints := []struct {
		name string
		val  string
		dst  *int
	}{
		{"--nodes", opts.Nodes, &set.nodes},
		{"--commits", opts.Commits, &set.commits},
		{"--degree", opts.Degree, &set.degree},
		{"--delete-every", opts.DeleteEvery, &set.deleteEvery},
		{"--workers", opts.Workers, &set.workers},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(i.val)
		if err != nil {
			return nil, fmt.Errorf("invalid %v: %v", i.name, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid %v: must not be negative, got %d", i.name, v)
		}
		*i.dst = v
	}
	var err error
	set.seed, err = strconv.ParseInt(opts.Seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --seed: %v", err)
	}
	set.chunkSizes, err = parseChunkSizes(opts.Chunks)
	if err != nil {
		return nil, fmt.Errorf("invalid --chunks: %v", err)
	}
	return set, nil
}

// parseChunkSizes parses a comma-separated list of positive chunk sizes.
func parseChunkSizes(list string) ([]int, error) {
	var sizes []int
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		size, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		if size < 1 {
			return nil, fmt.Errorf("chunk size must be positive, got %d", size)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no chunk sizes given")
	}
	return sizes, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
