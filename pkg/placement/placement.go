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

// Package placement implements the three placement primitives the
// group resource protocol builds on: idlest core, idlest aligned
// window, and first incomplete window. IdlestCore and IdlestSet take a
// search mask and the process load table; IncompleteSet takes a
// group's total and available masks. Each returns a placement
// decision; none of them mutate the load table or a group's
// reservation state.
package placement

import (
	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// IdlestCore scans the set bits of search from first to last and
// returns the CPU id with the strictly minimum load, first-wins on
// ties. Runs under the load table's mutex.
func IdlestCore(lt *loadtable.Table, search *mask.Mask) (int, bool) {
	return lt.IdlestBit(search)
}

// IdlestSet scans the stride-aligned windows from the one holding
// search's first set bit through the one holding its last set bit,
// picks the window with the strictly minimum total load (first-wins on
// ties), and returns it as a new mask, fully set. Windows in that span
// are considered whether or not they overlap search. Note that the chosen
// window is written back even for CPU ids outside the original search
// mask: resource reservation rounds up to whole topology units, by
// design. Precondition: search must be non-empty.
func IdlestSet(lt *loadtable.Table, search *mask.Mask, stride int) *mask.Mask {
	start, ok := lt.IdlestWindow(search, stride)
	if !ok {
		return mask.New(search.Len())
	}
	window := mask.New(search.Len())
	window.SetRange(start, stride)
	return window
}

// IncompleteSet returns the first CPU id of a stride-aligned window,
// drawn from [0, total.Len()) and bounded by total's set bits, that is
// neither fully set nor fully clear in available. Returns (-1, false)
// if no such window exists. An empty intersection is not an incomplete
// window: it is simply unused.
func IncompleteSet(total, available *mask.Mask, stride int) (int, bool) {
	first, ok := total.FirstSet()
	if !ok {
		return -1, false
	}
	last, _ := total.LastSet()

	start := first - first%stride
	end := last - last%stride

	for pos := start; pos <= end; pos += stride {
		window := mask.New(available.Len())
		window.SetRange(pos, stride)
		window.AndInPlace(available)

		count := window.Count()
		if count != stride && count != 0 {
			return pos, true
		}
	}
	return -1, false
}
