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
	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// Thread represents one application thread under management. It is
// created externally and added to exactly one Group.
type Thread struct {
	// PID is the OS-level thread identifier; opaque to the core.
	PID int

	allowedSet *mask.Mask // CPU mask the thread is permitted to run on
	curSet     *mask.Mask // CPU mask the thread is currently bound to
	group      *Group     // owning group; nil when unattached
}

// NewThread creates an unattached thread for the given OS thread id.
// cpuCapacity must match the capacity of the group tree's topology
// oracle.
func NewThread(pid int, cpuCapacity int) *Thread {
	return &Thread{
		PID:        pid,
		allowedSet: mask.New(cpuCapacity),
		curSet:     mask.New(cpuCapacity),
	}
}

// AllowedSet returns the thread's current permitted CPU mask. In this
// design it always equals CurSet.
func (t *Thread) AllowedSet() *mask.Mask {
	return t.allowedSet.Clone()
}

// CurSet returns the thread's current CPU binding.
func (t *Thread) CurSet() *mask.Mask {
	return t.curSet.Clone()
}

// Group returns the thread's owning group, or nil if unattached.
func (t *Thread) Group() *Group {
	return t.group
}

func (t *Thread) resetPlacement() {
	t.allowedSet.Zero()
	t.curSet.Zero()
}
