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
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate checks every node's attribute expression and name
// uniqueness up front, collecting every problem found instead of
// stopping at the first one, useful for surfacing a whole batch of
// operator typos in one error rather than a fix-rebuild-fix loop.
func Validate(t *Tree) error {
	var result *multierror.Error
	seen := map[string]bool{}
	validateNode(t.Root, seen, &result)
	return result.ErrorOrNil()
}

func validateNode(n NodeSpec, seen map[string]bool, result **multierror.Error) {
	if n.Name == "" {
		*result = multierror.Append(*result, errors.New("groupconfig: group with empty name"))
	} else if seen[n.Name] {
		*result = multierror.Append(*result, errors.Errorf("groupconfig: duplicate group name %q", n.Name))
	} else {
		seen[n.Name] = true
	}

	if _, err := ParseAttribute(n.Attribute); err != nil {
		*result = multierror.Append(*result, errors.Wrapf(err, "group %q", n.Name))
	}

	for _, child := range n.Children {
		validateNode(child, seen, result)
	}
}
