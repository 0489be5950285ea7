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

// Package loadtable implements the process-wide per-CPU load
// accounting table. It is the one piece of state shared by
// every group in a process, and the only state that is ever observed
// under a mutex.
package loadtable

import (
	"sync"

	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// Table is a process-wide vector of signed load shares indexed by CPU
// id, guarded by a single mutex. It corresponds 1:1 to the reference
// design's wayca_cpu_loads array and its mutex.
type Table struct {
	mu    sync.Mutex
	loads []int64
	nCPUs int
}

// New allocates a Table sized for nCPUs CPUs, all starting at zero load.
func New(nCPUs int) *Table {
	return &Table{loads: make([]int64, nCPUs), nCPUs: nCPUs}
}

// NumCPUs returns the table's width.
func (t *Table) NumCPUs() int {
	return t.nCPUs
}

// shareFor computes the abstract load share a thread pinned to popcount
// CPUs contributes to each one of them: ⌈nCPUs / popcount⌉. A thread
// pinned to a narrow set "weighs" more on each of its CPUs than one
// pinned widely.
func (t *Table) shareFor(popcount int) int64 {
	if popcount <= 0 {
		return 0
	}
	return int64((t.nCPUs + popcount - 1) / popcount)
}

// Update adds (add=true) or withdraws (add=false) one thread's load
// share across every CPU set in cur. It is the only suspension point
// in this package besides the read helpers below.
func (t *Table) Update(cur *mask.Mask, add bool) {
	popcount := cur.Count()
	if popcount == 0 {
		return
	}
	share := t.shareFor(popcount)
	if !add {
		share = -share
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for cpu, ok := cur.FirstSet(); ok; cpu, ok = cur.NextSet(cpu) {
		t.loads[cpu] += share
	}
}

// Load returns the current load share at cpu.
func (t *Table) Load(cpu int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loads[cpu]
}

// sumWindow sums the loads of the stride CPUs starting at start. Callers
// must hold t.mu.
func (t *Table) sumWindow(start, stride int) int64 {
	var sum int64
	for i := start; i < start+stride; i++ {
		sum += t.loads[i]
	}
	return sum
}

// Snapshot returns a copy of the whole load vector, for metrics export
// and tests. It takes the table mutex for the duration of the copy so
// callers never observe a partially updated table.
func (t *Table) Snapshot() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int64, len(t.loads))
	copy(out, t.loads)
	return out
}

// IdlestBit scans the set bits of search and returns the one with the
// strictly minimum load (first-wins on ties), under a single critical
// section. This is the locking half of find_idlest_core; package
// placement supplies the mask-iteration half.
func (t *Table) IdlestBit(search *mask.Mask) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := search.FirstSet()
	if !ok {
		return -1, false
	}
	idlest := pos
	best := t.loads[pos]
	for next, ok := search.NextSet(pos); ok; next, ok = search.NextSet(next) {
		if t.loads[next] < best {
			best = t.loads[next]
			idlest = next
		}
	}
	return idlest, true
}

// IdlestWindow partitions [0, nCPUs) into aligned windows of the given
// stride, starting at the stride-aligned floor of search's first set
// bit, up through the stride-aligned ceiling of its last set bit, sums
// each window's load, and returns the start CPU id of the window with
// strictly minimum total load (first-wins on ties). This is the
// locking half of find_idlest_set.
func (t *Table) IdlestWindow(search *mask.Mask, stride int) (int, bool) {
	first, ok := search.FirstSet()
	if !ok {
		return -1, false
	}
	last, _ := search.LastSet()

	start := first - first%stride
	end := last - last%stride

	t.mu.Lock()
	defer t.mu.Unlock()

	idlest := start
	var best int64
	firstIter := true
	for pos := start; pos <= end; pos += stride {
		sum := t.sumWindow(pos, stride)
		if firstIter || sum < best {
			best = sum
			idlest = pos
			firstIter = false
		}
	}
	return idlest, true
}
