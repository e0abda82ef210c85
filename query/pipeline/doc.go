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

// Package pipeline executes queries as a DAG of processors exchanging
// chunked Dataframes.
//
// A Pipeline is built once per query by a Builder and may be executed any
// number of times by an Executor. Execution is pull based and single
// threaded: the executor repeatedly asks the sink processor to Execute, and
// each processor pulls rows from its inputs through their Ports, which in
// turn run the upstream processors when they have nothing left to offer. No
// processor produces more rows per Execute than the configured chunk size, and
// every processor keeps enough state between calls to resume exactly where it
// stopped. As a result the sequence of rows reaching the sink does not depend
// on the chunk size.
//
// Expansion and property processors do not copy their input columns. Instead
// they emit an Indices column that maps each output row to the input row it
// came from. A Materialize processor later follows those indices back to
// produce flat rows. To keep indices valid, these processors never mix rows of
// two input chunks in one output chunk, and a Port only discards its rows when
// its consumer asks for more.
//
// Each Port has exactly one consumer. A Pipeline is not safe for concurrent
// use, but any number of Pipelines may read the same graph snapshot
// concurrently.
package pipeline
