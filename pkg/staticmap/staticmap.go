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

// Package staticmap parses the static task-to-resource map consumed
// by externally managed threads: a single environment-style string of
// whitespace-separated entries, each binding a list of task ids to
// either an explicit CPU list or a NUMA node list, with an optional
// utilization hint. This collaborator is independent of the group
// allocator tree; it exists for threads a caller wants pinned without
// going through a Group at all.
package staticmap

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/utils/cpuset"

	"github.com/gitee2github/wayca-scheduler/pkg/mask"
	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

// Entry is one parsed "tasklist@resource[$util]" binding.
type Entry struct {
	// Tasks is the set of task ids this entry applies to.
	Tasks cpuset.CPUSet
	// CPUs is the CPU mask the tasks are bound to.
	CPUs *mask.Mask
	// Util is the optional utilization hint following '$'; zero if
	// absent.
	Util uint64
}

// ErrMalformed is returned for an entry missing its '@' resource
// separator or carrying an unrecognized resource-kind prefix.
var ErrMalformed = errors.New("staticmap: malformed entry")

// Parse parses raw (e.g. "1,3@c1$1 2,4@n0-1$2") into a list of
// entries. oracle sizes every entry's CPU mask and resolves
// 'n'-prefixed node lists to CPU masks; it must be non-nil whenever raw
// contains at least one entry.
func Parse(raw string, oracle topo.Oracle) ([]Entry, error) {
	var entries []Entry

	for _, tok := range strings.Fields(raw) {
		at := strings.IndexByte(tok, '@')
		if at < 0 {
			return nil, errors.Wrapf(ErrMalformed, "entry %q has no '@'", tok)
		}
		taskList, resource := tok[:at], tok[at+1:]

		util := uint64(0)
		if dollar := strings.IndexByte(resource, '$'); dollar >= 0 {
			utilStr := resource[dollar+1:]
			resource = resource[:dollar]
			u, err := strconv.ParseUint(utilStr, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "entry %q has a non-numeric utilization", tok)
			}
			util = u
		}

		tasks, err := cpuset.Parse(taskList)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "entry %q has an invalid task list: %v", tok, err)
		}

		cpus, err := resolveResource(resource, oracle)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %q", tok)
		}

		entries = append(entries, Entry{Tasks: tasks, CPUs: cpus, Util: util})
	}

	return entries, nil
}

func resolveResource(resource string, oracle topo.Oracle) (*mask.Mask, error) {
	if resource == "" {
		return nil, errors.Wrap(ErrMalformed, "empty resource")
	}

	kind, list := resource[0], resource[1:]
	switch kind {
	case 'c':
		ids, err := cpuset.Parse(list)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "invalid cpu list %q: %v", list, err)
		}
		m := mask.New(oracle.NumCPUs())
		for _, id := range ids.List() {
			m.Set(id)
		}
		return m, nil
	case 'n':
		ids, err := cpuset.Parse(list)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "invalid node list %q: %v", list, err)
		}
		m := mask.New(oracle.NumCPUs())
		for _, node := range ids.List() {
			nodeMask, err := oracle.MaskFor(topo.LevelNUMA, node)
			if err != nil {
				return nil, errors.Wrapf(err, "resolving node %d", node)
			}
			m.OrInPlace(nodeMask)
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrMalformed, "unrecognized resource kind %q", string(kind))
	}
}

// CPUMaskForTask returns the CPU mask bound to taskID, the first entry
// in entries (in parse order) whose task list contains it.
func CPUMaskForTask(entries []Entry, taskID int) (*mask.Mask, bool) {
	for _, e := range entries {
		if e.Tasks.Contains(taskID) {
			return e.CPUs.Clone(), true
		}
	}
	return nil, false
}
