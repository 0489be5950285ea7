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

package mask

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetClearTest(t *testing.T) {
	m := New(8)
	require.True(t, m.IsEmpty())

	m.Set(3)
	require.True(t, m.Test(3))
	require.False(t, m.Test(4))
	require.Equal(t, 1, m.Count())

	m.Clear(3)
	require.False(t, m.Test(3))
	require.True(t, m.IsEmpty())
}

func TestFirstNextLastSet(t *testing.T) {
	m := New(16)
	for _, cpu := range []int{2, 5, 9} {
		m.Set(cpu)
	}

	first, ok := m.FirstSet()
	require.True(t, ok)
	require.Equal(t, 2, first)

	next, ok := m.NextSet(first)
	require.True(t, ok)
	require.Equal(t, 5, next)

	next, ok = m.NextSet(next)
	require.True(t, ok)
	require.Equal(t, 9, next)

	_, ok = m.NextSet(next)
	require.False(t, ok)

	last, ok := m.LastSet()
	require.True(t, ok)
	require.Equal(t, 9, last)
}

func TestComplementAndAlgebra(t *testing.T) {
	total := Full(8)
	used := New(8)
	used.SetRange(0, 3)

	available := used.Complement().And(total)
	require.Equal(t, 5, available.Count())
	require.False(t, available.Test(0))
	require.True(t, available.Test(3))

	or := used.Or(available)
	require.True(t, or.Equal(total))

	xor := total.Xor(used)
	require.True(t, xor.Equal(available))
}

func TestSubsetAndEqual(t *testing.T) {
	a := New(8)
	a.SetRange(0, 4)
	b := Full(8)

	require.True(t, a.Subset(b))
	require.False(t, b.Subset(a))
	require.True(t, a.Clone().Equal(a))
}

func TestString(t *testing.T) {
	m := New(16)
	m.SetRange(0, 4)
	m.Set(8)
	m.SetRange(12, 4)

	require.Equal(t, "0-3,8,12-15", m.String())
	require.Equal(t, "", New(8).String())
}

func TestInPlaceOps(t *testing.T) {
	a := New(8)
	a.SetRange(0, 4)
	b := New(8)
	b.SetRange(2, 4)

	c := a.Clone()
	c.AndInPlace(b)
	require.Equal(t, "2-3", c.String())

	d := a.Clone()
	d.OrInPlace(b)
	require.Equal(t, "0-5", d.String())

	e := a.Clone()
	e.XorInPlace(b)
	require.Equal(t, "0-1,4-5", e.String())
}
