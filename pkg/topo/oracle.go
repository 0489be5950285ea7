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

// Package topo defines the read-only Topology oracle the group
// resource allocator consults, and a deterministic in-memory
// implementation of it. Discovering the real hardware hierarchy from
// operating-system facilities is out of scope for this module; real
// deployments plug in an Oracle backed by sysfs the way
// github.com/intel/cri-resource-manager's pkg/sysfs does for its own
// System/Package/Node/CPU hierarchy.
package topo

import (
	"github.com/pkg/errors"

	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// Level identifies one rung of the CPU topology hierarchy.
type Level int

const (
	// LevelCPU is a single hardware thread.
	LevelCPU Level = iota
	// LevelCCL is a cluster of cores sharing a last-level cache below
	// NUMA node granularity. Not every platform has one.
	LevelCCL
	// LevelNUMA is a NUMA node.
	LevelNUMA
	// LevelPackage is a physical socket.
	LevelPackage
	// LevelAll is the whole machine.
	LevelAll
)

// String renders a Level for logging.
func (l Level) String() string {
	switch l {
	case LevelCPU:
		return "cpu"
	case LevelCCL:
		return "ccl"
	case LevelNUMA:
		return "numa"
	case LevelPackage:
		return "package"
	case LevelAll:
		return "all"
	default:
		return "unknown"
	}
}

// ErrLevelUnavailable is returned by an Oracle for a topology level the
// platform does not expose, e.g. CCL on a machine without cluster
// topology.
var ErrLevelUnavailable = errors.New("topo: level unavailable on this platform")

// Oracle is the read-only contract the group allocator queries. It
// never mutates; the hierarchy is immutable for the lifetime of the
// process once discovered.
type Oracle interface {
	// CPUsPerLevel returns how many CPUs live in one unit of level,
	// e.g. LevelNUMA returns cores-per-node. LevelAll returns the
	// total CPU count. Returns ErrLevelUnavailable if the platform has
	// no such level (only ever expected for LevelCCL).
	CPUsPerLevel(level Level) (int, error)
	// TotalCPUSet returns the immutable mask of every CPU the oracle
	// knows about; this becomes a root group's total.
	TotalCPUSet() *mask.Mask
	// NumCPUs is the total number of CPUs the oracle reports.
	NumCPUs() int
	// MaskFor returns the CPU mask of the topology unit id at level.
	MaskFor(level Level, id int) (*mask.Mask, error)
	// LevelID returns the id of the topology unit at level that
	// contains cpu.
	LevelID(level Level, cpu int) (int, error)
}
