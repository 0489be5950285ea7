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

package staticmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

func testOracle(t *testing.T) *topo.StaticTopology {
	t.Helper()
	oracle, err := topo.NewStaticTopology(1, 4, 4, 4)
	require.NoError(t, err)
	return oracle
}

func TestParseExplicitCPUList(t *testing.T) {
	entries, err := Parse("1,3@c1$1", testOracle(t))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.True(t, entries[0].Tasks.Contains(1))
	assert.True(t, entries[0].Tasks.Contains(3))
	assert.False(t, entries[0].Tasks.Contains(2))
	assert.Equal(t, uint64(1), entries[0].Util)
	assert.Equal(t, 1, entries[0].CPUs.Count())
	assert.True(t, entries[0].CPUs.Test(1))
}

func TestParseNodeListExpandsToCPUMask(t *testing.T) {
	oracle := testOracle(t)
	entries, err := Parse("2,4@n0-1$2", oracle)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	cpusPerNode, err := oracle.CPUsPerLevel(topo.LevelNUMA)
	require.NoError(t, err)
	assert.Equal(t, 2*cpusPerNode, entries[0].CPUs.Count())
}

func TestParseMultipleEntries(t *testing.T) {
	entries, err := Parse("1,3@c1$1 2,4@n0-1$2", testOracle(t))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestParseRejectsMalformedEntry(t *testing.T) {
	_, err := Parse("no-at-sign", testOracle(t))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRejectsUnknownResourceKind(t *testing.T) {
	_, err := Parse("1@x0", testOracle(t))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCPUMaskForTaskLooksUpFirstMatchingEntry(t *testing.T) {
	entries, err := Parse("1,3@c1$1 2,4@c2", testOracle(t))
	require.NoError(t, err)

	mask, ok := CPUMaskForTask(entries, 3)
	require.True(t, ok)
	assert.True(t, mask.Test(1))

	_, ok = CPUMaskForTask(entries, 99)
	assert.False(t, ok)
}
