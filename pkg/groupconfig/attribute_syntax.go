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

package groupconfig

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"

	"github.com/gitee2github/wayca-scheduler/pkg/group"
)

var attributeWords = map[string]group.Attribute{
	"cpu":     group.FlagCPU,
	"ccl":     group.FlagCCL,
	"numa":    group.FlagNUMA,
	"package": group.FlagPackage,
	"all":     group.FlagAll,
	"compact": group.FlagCompact,
	"scatter": 0,
	"percpu":  group.FlagPerCPU,
	"perset":  0,
}

// ParseAttribute turns a "|"-separated flag expression such as
// "numa|scatter|perset" into an Attribute. Exactly one topology-level
// word (cpu, ccl, numa, package, all) must be present. "scatter" and
// "perset" are accepted as the explicit spelling of the absence of
// compact/percpu, matching their meaning in the data model.
func ParseAttribute(expr string) (group.Attribute, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, errors.New("groupconfig: empty attribute expression")
	}

	var attr group.Attribute
	for _, word := range strings.Split(expr, "|") {
		word = strings.ToLower(strings.TrimSpace(word))
		flag, ok := attributeWords[word]
		if !ok {
			return 0, errors.Errorf("groupconfig: unrecognized attribute word %q", word)
		}
		attr |= flag
	}
	levels := group.FlagCPU | group.FlagCCL | group.FlagNUMA | group.FlagPackage | group.FlagAll
	if bits.OnesCount32(uint32(attr&levels)) != 1 {
		return 0, errors.Errorf("groupconfig: attribute expression %q must name exactly one topology level", expr)
	}
	return attr, nil
}
