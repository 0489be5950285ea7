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

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
)

var loadDesc = prometheus.NewDesc(
	"groupplace_cpu_load",
	"Current abstract load share carried by a CPU in the process load table.",
	[]string{"cpu"}, nil,
)

// LoadTableCollector exports one gauge per CPU, read from a
// loadtable.Table snapshot on every scrape.
type LoadTableCollector struct {
	table *loadtable.Table
}

// NewLoadTableCollector wraps table for Prometheus export.
func NewLoadTableCollector(table *loadtable.Table) *LoadTableCollector {
	return &LoadTableCollector{table: table}
}

// Describe implements prometheus.Collector.
func (c *LoadTableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- loadDesc
}

// Collect implements prometheus.Collector.
func (c *LoadTableCollector) Collect(ch chan<- prometheus.Metric) {
	for cpu, load := range c.table.Snapshot() {
		ch <- prometheus.MustNewConstMetric(loadDesc, prometheus.GaugeValue, float64(load), strconv.Itoa(cpu))
	}
}
