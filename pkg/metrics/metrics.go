// Copyright 2019 Intel Corporation. All Rights Reserved.
//
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

// Package metrics registers Prometheus collectors for the placement
// engine and assembles them into a single Gatherer, using a
// built-in-collector registry so callers can add collectors by name
// before the first Gather.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// InitCollector constructs a collector on demand, so registration can
// happen at package init time before the thing being collected exists.
type InitCollector func() (prometheus.Collector, error)

var builtins = make(map[string]InitCollector)

// RegisterCollector adds a named collector factory to the built-in
// set. Calling it twice with the same name is an error.
func RegisterCollector(name string, init InitCollector) error {
	if _, found := builtins[name]; found {
		return fmt.Errorf("metrics: collector %q already registered", name)
	}
	builtins[name] = init
	return nil
}

// NewGatherer builds every registered collector and returns a
// Prometheus registry exposing them all.
func NewGatherer() (prometheus.Gatherer, error) {
	reg := prometheus.NewPedanticRegistry()

	collectors := make([]prometheus.Collector, 0, len(builtins))
	for name, init := range builtins {
		c, err := init()
		if err != nil {
			return nil, fmt.Errorf("metrics: initializing collector %q: %w", name, err)
		}
		collectors = append(collectors, c)
	}
	if len(collectors) > 0 {
		reg.MustRegister(collectors...)
	}

	return reg, nil
}
