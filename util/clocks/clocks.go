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

// Package clocks provides a mockable way to measure time. Query execution
// takes its timestamps from a Source so that tests can produce exact timing
// reports.
package clocks

import (
	"sync"
	"time"
)

// Time is a convenient alias for time.Time.
type Time = time.Time

// A Source tell the passage of time. This package provides two sources: Wall
// and Mock.
type Source interface {
	// Now returns the current time.
	Now() Time
}

type wallClock struct{}

// Wall is the normal clock, as provided by time.Now().
var Wall Source = wallClock{}

func (wallClock) Now() Time {
	return time.Now()
}

// Mock is a Source that does not advance on its own. It can be used to control
// a clock for unit tests. It is safe for concurrent use.
type Mock struct {
	lock   sync.Mutex
	locked struct {
		now Time
	}
}

// Ensures that Mock implements Source.
var _ Source = NewMock()

// NewMock returns a new mock clock that is initialized to the Unix epoch.
// Note that this is not the zero value for time.Time.
func NewMock() *Mock {
	c := new(Mock)
	c.locked.now = time.Unix(0, 0)
	return c
}

// Now implements Source.Now.
func (c *Mock) Now() Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.locked.now
}

// Advance moves the clock forward by the given amount. It panics if 'amount'
// is negative: mock time never goes backwards.
func (c *Mock) Advance(amount time.Duration) {
	if amount < 0 {
		panic("clocks.Mock: cannot advance by a negative duration")
	}
	c.lock.Lock()
	c.locked.now = c.locked.now.Add(amount)
	c.lock.Unlock()
}
