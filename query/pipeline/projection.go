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

// projection copies a subset of the input columns, in a given order.
type projection struct {
	processorBase
}

func (p *projection) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *projection) Execute() error {
	p.begin()
	in := p.inputs[0]
	ok, err := in.Fill()
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	n := min(in.Remaining(), p.chunkSize())
	p.output.df.AppendRange(in.df, in.cursor, in.cursor+n)
	in.Advance(n)
	return nil
}

func (p *projection) Reset() {
	p.reset()
}
