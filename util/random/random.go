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

// Package random creates math/rand pseudo-random number generators with
// reproducible or unpredictable seeds.
package random

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// New returns a math/rand generator seeded with 'seed'. If 'seed' is 0, a
// crypto/rand input is used instead. It also returns the seed used, so that a
// run can be reproduced.
func New(seed int64) (*mathrand.Rand, int64) {
	for seed == 0 {
		seed = SecureInt64()
	}
	return mathrand.New(mathrand.NewSource(seed)), seed
}

// SecureInt64 returns a random value from crypto/rand. It panics if
// crypto/rand returns an error.
func SecureInt64() int64 {
	var value int64
	err := binary.Read(cryptorand.Reader, binary.BigEndian, &value)
	if err != nil {
		panic(fmt.Sprintf("Failed to read 8 bytes from crypto/rand: %v", err))
	}
	return value
}
