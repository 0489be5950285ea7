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

package group

import (
	"github.com/pkg/errors"

	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

// Attribute is the bit-flag set a group is configured with. The low
// 16 bits select exactly one topology level; COMPACT/PERCPU are
// independent flags above that range.
type Attribute uint32

const (
	// FlagCPU binds at single-hardware-thread granularity.
	FlagCPU Attribute = 1 << iota
	// FlagCCL binds at cluster-of-cores granularity.
	FlagCCL
	// FlagNUMA binds at NUMA-node granularity.
	FlagNUMA
	// FlagPackage binds at physical-package granularity.
	FlagPackage
	// FlagAll binds at whole-machine granularity.
	FlagAll
)

const levelMask Attribute = FlagCPU | FlagCCL | FlagNUMA | FlagPackage | FlagAll

const (
	// FlagCompact packs threads into the smallest possible region
	// (stride 1). Its absence means SCATTER: threads are spread one
	// topology unit apart.
	FlagCompact Attribute = 1 << 16
	// FlagPerCPU binds each thread to a single CPU. Its absence means
	// PERSET: each thread is bound to a whole topology window.
	FlagPerCPU Attribute = 1 << 17
)

// DefaultAttribute is what a freshly constructed group starts with:
// cluster-level, compact, per-CPU binding.
const DefaultAttribute = FlagCCL | FlagCompact | FlagPerCPU

func (a Attribute) compact() bool {
	return a&FlagCompact != 0
}

func (a Attribute) perCPU() bool {
	return a&FlagPerCPU != 0
}

// level extracts the topo.Level this attribute selects. Fails unless
// exactly one of the level bits is set.
func (a Attribute) level() (topo.Level, error) {
	switch a & levelMask {
	case FlagCPU:
		return topo.LevelCPU, nil
	case FlagCCL:
		return topo.LevelCCL, nil
	case FlagNUMA:
		return topo.LevelNUMA, nil
	case FlagPackage:
		return topo.LevelPackage, nil
	case FlagAll:
		return topo.LevelAll, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "attribute %#x must select exactly one topology level", uint32(a))
	}
}
