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

// skip discards the first 'count' rows of its input, across chunks, and
// copies the rest.
type skip struct {
	processorBase
	count   uint64
	skipped uint64
}

func (p *skip) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *skip) Execute() error {
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
	if p.skipped < p.count {
		n := min(uint64(in.Remaining()), p.count-p.skipped)
		in.Advance(int(n))
		p.skipped += n
		if in.Remaining() == 0 {
			return nil
		}
	}
	n := min(in.Remaining(), p.chunkSize())
	p.output.df.AppendRange(in.df, in.cursor, in.cursor+n)
	in.Advance(n)
	return nil
}

func (p *skip) Reset() {
	p.skipped = 0
	p.reset()
}

// limit copies at most 'count' rows of its input, across chunks. It finishes
// as soon as the count is reached, without pulling any more input.
type limit struct {
	processorBase
	count   uint64
	emitted uint64
}

func (p *limit) Prepare(ctx *ExecutionContext) error {
	p.prepare(ctx)
	return nil
}

func (p *limit) Execute() error {
	p.begin()
	if p.emitted >= p.count {
		p.finish()
		return nil
	}
	in := p.inputs[0]
	ok, err := in.Fill()
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	n := min(uint64(in.Remaining()), uint64(p.chunkSize()), p.count-p.emitted)
	p.output.df.AppendRange(in.df, in.cursor, in.cursor+int(n))
	in.Advance(int(n))
	p.emitted += n
	if p.emitted == p.count {
		p.finish()
	}
	return nil
}

func (p *limit) Reset() {
	p.emitted = 0
	p.reset()
}
