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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitee2github/wayca-scheduler/pkg/binder"
	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

// newTestFixture builds a 1-package, 4-node, 4-CCL-per-node,
// 4-core-per-CCL machine (64 CPUs total), matching the scenarios
// described for the end-to-end tests.
func newTestFixture(t *testing.T) (*topo.StaticTopology, *loadtable.Table, *binder.Noop) {
	t.Helper()
	oracle, err := topo.NewStaticTopology(1, 4, 4, 4)
	require.NoError(t, err)
	lt := loadtable.New(oracle.NumCPUs())
	return oracle, lt, binder.NewNoop()
}

func TestRootGroupOwnsWholeMachine(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)

	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	assert.True(t, root.Total().Equal(oracle.TotalCPUSet()))
	assert.True(t, root.Used().IsEmpty())
	assert.Equal(t, 0, root.RollOverCount())
	assert.Nil(t, root.Father())
}

func TestAddThreadCompactPerCPUPacksAdjacentCPUs(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	cpuCap := oracle.NumCPUs()
	var threads []*Thread
	for i := 0; i < 4; i++ {
		th := NewThread(2000+i, cpuCap)
		require.NoError(t, root.AddThread(th))
		threads = append(threads, th)
	}

	seen := map[int]bool{}
	for i, th := range threads {
		cpu, ok := th.CurSet().FirstSet()
		require.True(t, ok)
		assert.Equal(t, i, cpu, "compact per-CPU threads should fill adjacent CPUs in order")
		assert.False(t, seen[cpu], "each compact per-CPU thread should land on a distinct CPU")
		seen[cpu] = true
		assert.Equal(t, 1, th.CurSet().Count())
	}
	assert.Len(t, bd.Calls(), 4)
}

func TestAddThreadTooManyRollsOverUsed(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	n := oracle.NumCPUs()
	for i := 0; i < n; i++ {
		th := NewThread(3000+i, n)
		require.NoError(t, root.AddThread(th))
	}
	assert.Equal(t, 1, root.RollOverCount())
	assert.True(t, root.Used().IsEmpty())

	extra := NewThread(9999, n)
	require.NoError(t, root.AddThread(extra))
	assert.Equal(t, 1, extra.CurSet().Count())
}

func TestDeleteThreadWithdrawsLoadAndReservation(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	th := NewThread(4000, oracle.NumCPUs())
	require.NoError(t, root.AddThread(th))
	cpu, _ := th.CurSet().FirstSet()
	assert.Greater(t, lt.Load(cpu), int64(0))

	require.NoError(t, root.DeleteThread(th))
	assert.Equal(t, int64(0), lt.Load(cpu))
	assert.True(t, root.Used().IsEmpty())
	assert.Nil(t, th.Group())
	assert.Equal(t, 0, root.NrThreads())
}

func TestDeleteThreadNotMemberReturnsNotFound(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	stray := NewThread(1, oracle.NumCPUs())
	err = root.DeleteThread(stray)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCompactDeleteAsymmetry documents the reference design's asymmetry
// between placement and deletion in COMPACT mode: assignThreadResource
// only ever sets a single bit of group.used per thread, but
// DeleteThread XORs the thread's whole allowed_set back out. For a
// per-CPU COMPACT thread these coincide (the allowed set is one CPU),
// so the asymmetry is only observable in PERSET mode, where a thread's
// allowed_set spans a whole topology window but only one of its CPUs
// was ever recorded as used.
func TestCompactDeleteAsymmetry(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	// COMPACT|PERSET: each thread reserves nr_cpus_per_topo CPUs in
	// total but assignThreadResource only sets the one target bit in
	// group.used.
	require.NoError(t, root.Rearrange(FlagCCL|FlagCompact))

	th := NewThread(5000, oracle.NumCPUs())
	require.NoError(t, root.AddThread(th))

	assert.Equal(t, root.nrCPUsPerTopo, th.CurSet().Count(), "PERSET binds the whole topology window")
	assert.Equal(t, 1, root.Used().Count(), "COMPACT only records the single target CPU as used")

	require.NoError(t, root.DeleteThread(th))
	// DeleteThread XORs the *whole* allowed_set (nr_cpus_per_topo bits)
	// against a group.used that only ever had 1 bit set for this
	// thread, so deletion can flip bits the thread never owned in
	// group.used, reproducing the reference design's known asymmetry
	// rather than "fixing" it.
	assert.Equal(t, root.nrCPUsPerTopo-1, root.Used().Count())
}

func TestAddGroupRejectsNonStrictTopologyRefinement(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	parent, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, parent.Rearrange(FlagNUMA | FlagCompact | FlagPerCPU))

	child, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, child.Rearrange(FlagNUMA | FlagCompact | FlagPerCPU))

	err = AddGroup(child, parent)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddGroupAttachesAndIsIdempotent(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	parent, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, parent.Rearrange(FlagNUMA | FlagCompact | FlagPerCPU))

	child, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, child.Rearrange(FlagCCL | FlagCompact | FlagPerCPU))

	require.NoError(t, AddGroup(child, parent))
	assert.Equal(t, parent, child.Father())
	assert.Equal(t, 1, parent.NrGroups())
	assert.True(t, child.Total().Subset(parent.Total()))

	// idempotent re-attach
	require.NoError(t, AddGroup(child, parent))
	assert.Equal(t, 1, parent.NrGroups())
}

func TestDeleteGroupReclaimsParentRegion(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	parent, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, parent.Rearrange(FlagNUMA | FlagCompact | FlagPerCPU))

	child, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, child.Rearrange(FlagCCL | FlagCompact | FlagPerCPU))
	require.NoError(t, AddGroup(child, parent))

	usedBefore := parent.Used().Count()
	assert.Greater(t, usedBefore, 0)

	require.NoError(t, DeleteGroup(child, parent))
	assert.Equal(t, usedBefore-child.Total().Count(), parent.Used().Count())
	assert.Equal(t, 0, parent.NrGroups())
	assert.Nil(t, child.Father())
}

func TestDeleteGroupNotMemberReturnsNotFound(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	parent, err := New(oracle, lt, bd)
	require.NoError(t, err)
	stray, err := New(oracle, lt, bd)
	require.NoError(t, err)

	err = DeleteGroup(stray, parent)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRearrangeReplacesPlacementDeterministically(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	root, err := New(oracle, lt, bd)
	require.NoError(t, err)

	var threads []*Thread
	for i := 0; i < 3; i++ {
		th := NewThread(6000+i, oracle.NumCPUs())
		require.NoError(t, root.AddThread(th))
		threads = append(threads, th)
	}
	before := make([]int, len(threads))
	for i, th := range threads {
		cpu, _ := th.CurSet().FirstSet()
		before[i] = cpu
	}

	require.NoError(t, root.Rearrange(FlagNUMA|FlagCompact|FlagPerCPU))

	// Every member thread must still be bound (binder called again).
	assert.GreaterOrEqual(t, len(bd.Calls()), 2*len(threads))
	for _, th := range threads {
		assert.Equal(t, 1, th.CurSet().Count())
	}
}

func TestRearrangeUnavailableLevelFailsAndRestoresAttribute(t *testing.T) {
	oracle, err := topo.NewStaticTopologyNoCCL(1, 4, 16)
	require.NoError(t, err)
	lt := loadtable.New(oracle.NumCPUs())
	bd := binder.NewNoop()

	// New always starts from DefaultAttribute (CCL-based), which this
	// platform cannot satisfy, so build the root directly at NUMA
	// level first to get a valid starting point to rearrange away from.
	root := &Group{oracle: oracle, lt: lt, binder: bd, TopoHint: -1}
	require.NoError(t, root.Arrange(FlagNUMA|FlagCompact|FlagPerCPU))
	original := root.Attribute()

	err = root.Rearrange(FlagCCL | FlagCompact | FlagPerCPU)
	assert.Error(t, err)
	assert.Equal(t, original, root.Attribute())
}

func TestNewFailsWhenDefaultLevelUnavailable(t *testing.T) {
	oracle, err := topo.NewStaticTopologyNoCCL(1, 4, 16)
	require.NoError(t, err)
	lt := loadtable.New(oracle.NumCPUs())
	bd := binder.NewNoop()

	_, err = New(oracle, lt, bd)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExternalFailureLeavesLoadTableUntouched(t *testing.T) {
	oracle, lt, _ := newTestFixture(t)
	failing := &binder.Failing{}
	root, err := New(oracle, lt, failing)
	require.NoError(t, err)

	th := NewThread(7000, oracle.NumCPUs())
	err = root.AddThread(th)
	assert.ErrorIs(t, err, ErrExternalFailure)

	for _, load := range lt.Snapshot() {
		assert.Equal(t, int64(0), load)
	}
}

func TestRequestFromParentRejectsExhaustedParent(t *testing.T) {
	oracle, lt, bd := newTestFixture(t)
	parent, err := New(oracle, lt, bd)
	require.NoError(t, err)
	require.NoError(t, parent.Rearrange(FlagCCL | FlagCompact | FlagPerCPU))

	parent.used = parent.total.Clone()

	_, err = parent.requestFromParent(1)
	assert.ErrorIs(t, err, ErrResourceExhausted)
}
