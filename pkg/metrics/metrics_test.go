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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

func TestLoadTableCollectorExportsOneGaugePerCPU(t *testing.T) {
	lt := loadtable.New(4)
	cur := mask.New(4)
	cur.Set(0)
	cur.Set(1)
	lt.Update(cur, true)

	c := NewLoadTableCollector(lt)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "groupplace_cpu_load", families[0].GetName())
	assert.Len(t, families[0].GetMetric(), 4)
}

func TestRegisterCollectorRejectsDuplicateName(t *testing.T) {
	builtins = make(map[string]InitCollector)
	init := func() (prometheus.Collector, error) {
		return NewLoadTableCollector(loadtable.New(1)), nil
	}
	require.NoError(t, RegisterCollector("dup", init))
	err := RegisterCollector("dup", init)
	assert.Error(t, err)
}

func TestNewGathererAssemblesRegisteredCollectors(t *testing.T) {
	builtins = make(map[string]InitCollector)
	require.NoError(t, RegisterCollector("cpu_load", func() (prometheus.Collector, error) {
		return NewLoadTableCollector(loadtable.New(2)), nil
	}))

	gatherer, err := NewGatherer()
	require.NoError(t, err)
	families, err := gatherer.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Len(t, families[0].GetMetric(), 2)
}
