// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The slideshow command orders the photos of a dataset into the slideshow with the highest
// total interest factor and writes it to slideshow.sol.
package main

import (
	log "github.com/golang/glog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Exitf("slideshow: %v", err)
	}
}
