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

package topo

import (
	"github.com/pkg/errors"

	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// StaticTopology is a deterministic Oracle built from topology counts
// rather than live sysfs discovery, standing in for hardware
// discovery. CPU ids are assigned contiguously in package/node/CCL/core
// order: a 4-node, 4-CCL-per-node, 4-core-per-CCL machine numbers node
// 0 as CPUs 0-15, its first CCL as CPUs 0-3, and so on.
type StaticTopology struct {
	packages     int
	nodesPerPkg  int
	cclsPerNode  int // 0 means CCL level is unavailable
	coresPerCCL  int
	total        int
	totalCPUSet  *mask.Mask
	cpuToPackage []int
	cpuToNode    []int
	cpuToCCL     []int // -1 if CCL unavailable
}

// NewStaticTopology builds an Oracle for a machine with the given
// counts at every level, including CCLs.
func NewStaticTopology(packages, nodesPerPackage, cclsPerNode, coresPerCCL int) (*StaticTopology, error) {
	return newStaticTopology(packages, nodesPerPackage, cclsPerNode, coresPerCCL)
}

// NewStaticTopologyNoCCL builds an Oracle for a machine with no
// cluster-of-cores level: CPUsPerLevel(LevelCCL), MaskFor(LevelCCL, ...)
// and LevelID(LevelCCL, ...) return ErrLevelUnavailable.
func NewStaticTopologyNoCCL(packages, nodesPerPackage, coresPerNode int) (*StaticTopology, error) {
	return newStaticTopology(packages, nodesPerPackage, 0, coresPerNode)
}

func newStaticTopology(packages, nodesPerPackage, cclsPerNode, coresPerUnit int) (*StaticTopology, error) {
	if packages <= 0 || nodesPerPackage <= 0 || coresPerUnit <= 0 {
		return nil, errors.New("topo: package, node and core counts must be positive")
	}
	hasCCL := cclsPerNode > 0
	cclFactor := cclsPerNode
	if !hasCCL {
		cclFactor = 1
	}

	total := packages * nodesPerPackage * cclFactor * coresPerUnit
	t := &StaticTopology{
		packages:     packages,
		nodesPerPkg:  nodesPerPackage,
		cclsPerNode:  cclsPerNode,
		coresPerCCL:  coresPerUnit,
		total:        total,
		totalCPUSet:  mask.Full(total),
		cpuToPackage: make([]int, total),
		cpuToNode:    make([]int, total),
		cpuToCCL:     make([]int, total),
	}

	cpu := 0
	for pkg := 0; pkg < packages; pkg++ {
		for n := 0; n < nodesPerPackage; n++ {
			nodeID := pkg*nodesPerPackage + n
			for c := 0; c < cclFactor; c++ {
				cclID := nodeID*cclFactor + c
				for k := 0; k < coresPerUnit; k++ {
					t.cpuToPackage[cpu] = pkg
					t.cpuToNode[cpu] = nodeID
					if hasCCL {
						t.cpuToCCL[cpu] = cclID
					} else {
						t.cpuToCCL[cpu] = -1
					}
					cpu++
				}
			}
		}
	}

	return t, nil
}

// CPUsPerLevel implements Oracle.
func (t *StaticTopology) CPUsPerLevel(level Level) (int, error) {
	switch level {
	case LevelCPU:
		return 1, nil
	case LevelCCL:
		if t.cclsPerNode == 0 {
			return 0, ErrLevelUnavailable
		}
		return t.coresPerCCL, nil
	case LevelNUMA:
		cclFactor := t.cclsPerNode
		if cclFactor == 0 {
			cclFactor = 1
		}
		return cclFactor * t.coresPerCCL, nil
	case LevelPackage:
		cclFactor := t.cclsPerNode
		if cclFactor == 0 {
			cclFactor = 1
		}
		return t.nodesPerPkg * cclFactor * t.coresPerCCL, nil
	case LevelAll:
		return t.total, nil
	default:
		return 0, errors.Errorf("topo: unknown level %v", level)
	}
}

// TotalCPUSet implements Oracle.
func (t *StaticTopology) TotalCPUSet() *mask.Mask {
	return t.totalCPUSet.Clone()
}

// NumCPUs implements Oracle.
func (t *StaticTopology) NumCPUs() int {
	return t.total
}

// MaskFor implements Oracle.
func (t *StaticTopology) MaskFor(level Level, id int) (*mask.Mask, error) {
	stride, err := t.CPUsPerLevel(level)
	if err != nil {
		return nil, err
	}
	if level == LevelAll {
		return t.TotalCPUSet(), nil
	}
	start := id * stride
	if start < 0 || start+stride > t.total {
		return nil, errors.Errorf("topo: %s id %d out of range", level, id)
	}
	m := mask.New(t.total)
	m.SetRange(start, stride)
	return m, nil
}

// LevelID implements Oracle.
func (t *StaticTopology) LevelID(level Level, cpu int) (int, error) {
	if cpu < 0 || cpu >= t.total {
		return 0, errors.Errorf("topo: cpu id %d out of range", cpu)
	}
	switch level {
	case LevelCPU:
		return cpu, nil
	case LevelCCL:
		if t.cclsPerNode == 0 {
			return 0, ErrLevelUnavailable
		}
		return t.cpuToCCL[cpu], nil
	case LevelNUMA:
		return t.cpuToNode[cpu], nil
	case LevelPackage:
		return t.cpuToPackage[cpu], nil
	case LevelAll:
		return 0, nil
	default:
		return 0, errors.Errorf("topo: unknown level %v", level)
	}
}
