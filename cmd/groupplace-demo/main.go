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

// groupplace-demo builds a small group tree over a synthetic
// topology, adds a handful of threads to it, and prints the resulting
// placement and load table. With -config it instead loads the tree
// from a YAML file via pkg/groupconfig. With -managed it parses a
// static task map string via pkg/staticmap and prints the resolved
// CPU mask for each task id given on the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gitee2github/wayca-scheduler/pkg/binder"
	"github.com/gitee2github/wayca-scheduler/pkg/group"
	"github.com/gitee2github/wayca-scheduler/pkg/groupconfig"
	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
	"github.com/gitee2github/wayca-scheduler/pkg/log"
	"github.com/gitee2github/wayca-scheduler/pkg/metrics"
	"github.com/gitee2github/wayca-scheduler/pkg/staticmap"
	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

type config struct {
	configFile string
	managed    string
	numThreads int
}

var cfg = &config{}

func main() {
	flag.StringVar(&cfg.configFile, "config", "", "load the group tree from this YAML file instead of the built-in demo tree")
	flag.StringVar(&cfg.managed, "managed", "", "parse this MANAGED_THREADS-style string and print each task's resolved CPU mask")
	flag.IntVar(&cfg.numThreads, "threads", 6, "number of demo threads to place")
	flag.Parse()

	oracle, err := topo.NewStaticTopology(1, 4, 4, 4)
	if err != nil {
		log.Error("building demo topology: %v", err)
		os.Exit(1)
	}
	if err := topo.Validate(oracle); err != nil {
		log.Error("topology failed validation: %v", err)
		os.Exit(1)
	}
	lt := loadtable.New(oracle.NumCPUs())

	if cfg.managed != "" {
		runManaged(oracle)
		return
	}

	if err := metrics.RegisterCollector("cpu_load", func() (prometheus.Collector, error) {
		return metrics.NewLoadTableCollector(lt), nil
	}); err != nil {
		log.Warn("registering cpu_load collector: %v", err)
	}

	bd := binder.NewNoop()

	var root *group.Group
	if cfg.configFile != "" {
		tree, err := groupconfig.LoadFile(cfg.configFile)
		if err != nil {
			log.Error("loading config: %v", err)
			os.Exit(1)
		}
		built, err := groupconfig.Build(tree, oracle, lt, bd)
		if err != nil {
			log.Error("building group tree: %v", err)
			os.Exit(1)
		}
		root = built.Root
	} else {
		var err error
		root, err = group.New(oracle, lt, bd)
		if err != nil {
			log.Error("constructing root group: %v", err)
			os.Exit(1)
		}
	}

	for i := 0; i < cfg.numThreads; i++ {
		t := group.NewThread(1000+i, oracle.NumCPUs())
		if err := root.AddThread(t); err != nil {
			log.Error("adding thread %d: %v", t.PID, err)
			os.Exit(1)
		}
	}

	fmt.Printf("root: total=%s used=%s roll_over=%d\n", root.Total(), root.Used(), root.RollOverCount())
	for _, t := range root.Threads() {
		fmt.Printf("  thread %d -> %s\n", t.PID, t.CurSet())
	}
	for cpu, load := range lt.Snapshot() {
		if load != 0 {
			fmt.Printf("  cpu %d load=%d\n", cpu, load)
		}
	}

	for _, call := range bd.Calls() {
		fmt.Printf("bound pid=%d cpus=%s\n", call.PID, call.CPUs)
	}

	gatherer, err := metrics.NewGatherer()
	if err != nil {
		log.Error("assembling metrics gatherer: %v", err)
		os.Exit(1)
	}
	families, err := gatherer.Gather()
	if err != nil {
		log.Error("gathering metrics: %v", err)
		os.Exit(1)
	}
	for _, f := range families {
		fmt.Printf("metric family %s: %d samples\n", f.GetName(), len(f.GetMetric()))
	}
}

func runManaged(oracle topo.Oracle) {
	entries, err := staticmap.Parse(cfg.managed, oracle)
	if err != nil {
		log.Error("parsing managed thread map: %v", err)
		os.Exit(1)
	}
	for _, arg := range flag.Args() {
		var taskID int
		if _, err := fmt.Sscanf(arg, "%d", &taskID); err != nil {
			continue
		}
		if cpus, ok := staticmap.CPUMaskForTask(entries, taskID); ok {
			fmt.Printf("task %d -> %s\n", taskID, cpus)
		} else {
			fmt.Printf("task %d -> unmanaged\n", taskID)
		}
	}
}
