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
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate runs a battery of independent sanity checks against an
// Oracle implementation and reports every failure found, rather than
// stopping at the first, useful when wiring up a new discovery
// backend, where several of its answers are likely wrong at once.
func Validate(o Oracle) error {
	var result *multierror.Error

	all, err := o.CPUsPerLevel(LevelAll)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "CPUsPerLevel(LevelAll)"))
	} else if all != o.NumCPUs() {
		result = multierror.Append(result, errors.Errorf(
			"CPUsPerLevel(LevelAll)=%d disagrees with NumCPUs()=%d", all, o.NumCPUs()))
	}

	if got := o.TotalCPUSet().Count(); got != o.NumCPUs() {
		result = multierror.Append(result, errors.Errorf(
			"TotalCPUSet population %d disagrees with NumCPUs()=%d", got, o.NumCPUs()))
	}

	for _, level := range []Level{LevelCPU, LevelCCL, LevelNUMA, LevelPackage} {
		n, err := o.CPUsPerLevel(level)
		if err != nil {
			if errors.Is(err, ErrLevelUnavailable) {
				continue
			}
			result = multierror.Append(result, errors.Wrapf(err, "CPUsPerLevel(%s)", level))
			continue
		}
		if n <= 0 {
			result = multierror.Append(result, errors.Errorf("CPUsPerLevel(%s)=%d is not positive", level, n))
		}
		if o.NumCPUs()%n != 0 {
			result = multierror.Append(result, errors.Errorf(
				"CPUsPerLevel(%s)=%d does not evenly divide NumCPUs()=%d", level, n, o.NumCPUs()))
		}
	}

	return result.ErrorOrNil()
}
