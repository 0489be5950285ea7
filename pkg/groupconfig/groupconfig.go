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

// Package groupconfig loads a declarative group tree from YAML, so a
// deployment can describe its placement hierarchy as data instead of
// Go code: a root attribute plus a nested list of named child groups,
// each with its own attribute.
package groupconfig

import (
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/gitee2github/wayca-scheduler/pkg/binder"
	"github.com/gitee2github/wayca-scheduler/pkg/group"
	"github.com/gitee2github/wayca-scheduler/pkg/loadtable"
	"github.com/gitee2github/wayca-scheduler/pkg/topo"
)

// NodeSpec declares one group in the tree. Attribute is parsed as a
// symbolic flag expression such as "ccl|compact|percpu"; Children
// nests sub-groups under this one.
type NodeSpec struct {
	Name      string     `json:"name"`
	Attribute string     `json:"attribute"`
	Children  []NodeSpec `json:"children,omitempty"`
}

// Tree is the document root: a single named root group and its
// nested children.
type Tree struct {
	Root NodeSpec `json:"root"`
}

// Built is a realized group tree, indexed by the name each NodeSpec
// was given.
type Built struct {
	ByName map[string]*group.Group
	Root   *group.Group
}

// LoadFile reads and parses a Tree from a YAML file.
func LoadFile(path string) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "groupconfig: reading %q", path)
	}
	var t Tree
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrapf(err, "groupconfig: parsing %q", path)
	}
	return &t, nil
}

// Build realizes t against a live topology oracle, load table, and
// binder, constructing every group and attaching each child under its
// parent in document order. On any failure the groups already
// constructed are left in place for the caller to inspect or discard;
// group.AddGroup itself rolls back a single failed attach.
func Build(t *Tree, oracle topo.Oracle, lt *loadtable.Table, bd binder.Binder) (*Built, error) {
	if err := Validate(t); err != nil {
		return nil, errors.Wrap(err, "groupconfig: invalid tree")
	}

	built := &Built{ByName: make(map[string]*group.Group)}

	root, err := group.New(oracle, lt, bd)
	if err != nil {
		return nil, errors.Wrap(err, "groupconfig: constructing root")
	}
	attr, err := ParseAttribute(t.Root.Attribute)
	if err != nil {
		return nil, errors.Wrapf(err, "groupconfig: root attribute %q", t.Root.Attribute)
	}
	if err := root.Arrange(attr); err != nil {
		return nil, errors.Wrap(err, "groupconfig: arranging root")
	}
	built.Root = root
	built.ByName[t.Root.Name] = root

	if err := buildChildren(t.Root.Children, root, oracle, lt, bd, built); err != nil {
		return built, err
	}

	return built, nil
}

func buildChildren(specs []NodeSpec, parent *group.Group, oracle topo.Oracle, lt *loadtable.Table, bd binder.Binder, built *Built) error {
	for _, spec := range specs {
		attr, err := ParseAttribute(spec.Attribute)
		if err != nil {
			return errors.Wrapf(err, "groupconfig: group %q attribute %q", spec.Name, spec.Attribute)
		}

		child, err := group.New(oracle, lt, bd)
		if err != nil {
			return errors.Wrapf(err, "groupconfig: constructing %q", spec.Name)
		}
		if err := child.Arrange(attr); err != nil {
			return errors.Wrapf(err, "groupconfig: arranging %q", spec.Name)
		}
		if err := group.AddGroup(child, parent); err != nil {
			return errors.Wrapf(err, "groupconfig: attaching %q", spec.Name)
		}

		built.ByName[spec.Name] = child

		if err := buildChildren(spec.Children, child, oracle, lt, bd, built); err != nil {
			return err
		}
	}
	return nil
}
