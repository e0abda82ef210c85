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
	"fmt"
	"io"
	"strings"
)

// Dot writes a Graphviz description of the pipeline to 'w'. Each edge is
// labeled with the tags of the columns flowing through that port. The
// signature matches the generate argument of graphviz.Create.
func (pl *Pipeline) Dot(w io.Writer) {
	ids := make(map[Processor]int, len(pl.processors))
	fmt.Fprintln(w, "digraph pipeline {")
	fmt.Fprintln(w, "node [shape=box];")
	for i, p := range pl.processors {
		ids[p] = i
		fmt.Fprintf(w, "p%d [label=%q];\n", i, dotLabel(p))
	}
	for _, port := range pl.ports {
		if port.consumer == nil {
			continue
		}
		fmt.Fprintf(w, "p%d -> p%d [label=%q];\n",
			ids[port.producer], ids[port.consumer], describeTags(port.df.Tags()))
	}
	fmt.Fprintln(w, "}")
}

func dotLabel(p Processor) string {
	label := p.Kind()
	if d := strings.TrimPrefix(p.Describe(), p.Kind()); d != "" {
		label += "\n" + strings.TrimSpace(d)
	}
	return label
}
