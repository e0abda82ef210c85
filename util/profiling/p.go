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

// Package profiling wraps runtime/pprof to capture CPU profiles of a running
// process, either for a fixed duration or around a piece of work.
package profiling

import (
	"os"
	"runtime/pprof"
	"time"

	log "github.com/sirupsen/logrus"
)

// CPUProfile starts writing a CPU profile to 'outputFilename'. The returned
// function stops the profile and closes the file; it must be called exactly
// once.
func CPUProfile(outputFilename string) (stop func() error, err error) {
	f, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	log.Infof("Starting CPU profiling, to %s", outputFilename)
	err = pprof.StartCPUProfile(f)
	if err != nil {
		log.Errorf("CPU profiling error: %s", err)
		f.Close()
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		log.Infof("Completed CPU profile to %s", outputFilename)
		return f.Close()
	}, nil
}

// CPUProfileForDuration starts writing a CPU profile to 'outputFilename' and
// stops it once 'duration' has elapsed. It returns without waiting.
func CPUProfileForDuration(outputFilename string, duration time.Duration) error {
	stop, err := CPUProfile(outputFilename)
	if err != nil {
		return err
	}
	go func() {
		time.Sleep(duration)
		if err := stop(); err != nil {
			log.Warnf("Unable to close CPU profile %s: %v", outputFilename, err)
		}
	}()
	return nil
}
