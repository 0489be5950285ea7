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

// Package binder defines the external collaborator that actually
// applies a CPU affinity mask at the OS level. Binding a thread to a
// mask is out of scope for the core allocator; the core only emits
// decisions and calls this interface.
package binder

import (
	"github.com/gitee2github/wayca-scheduler/pkg/mask"
)

// Binder applies a concrete CPU affinity mask to an OS-level thread.
type Binder interface {
	// SetAffinity binds the thread identified by pid to cpus. The pid
	// is opaque to the core; it is whatever value the caller used to
	// construct the corresponding group.Thread.
	SetAffinity(pid int, cpus *mask.Mask) error
}

// Noop is a Binder that records calls without touching the OS,
// appropriate for tests and for the demo CLI, where there is no real
// OS thread behind a pid.
type Noop struct {
	calls []Call
}

// Call records one SetAffinity invocation.
type Call struct {
	PID  int
	CPUs *mask.Mask
}

// NewNoop returns a Noop binder.
func NewNoop() *Noop {
	return &Noop{}
}

// SetAffinity implements Binder.
func (n *Noop) SetAffinity(pid int, cpus *mask.Mask) error {
	n.calls = append(n.calls, Call{PID: pid, CPUs: cpus.Clone()})
	return nil
}

// Calls returns every SetAffinity call recorded so far, in order.
func (n *Noop) Calls() []Call {
	return n.calls
}

// Failing is a Binder whose SetAffinity always fails, used to exercise
// the external-failure path of callers that bind threads.
type Failing struct {
	Err error
}

// SetAffinity implements Binder.
func (f *Failing) SetAffinity(int, *mask.Mask) error {
	if f.Err != nil {
		return f.Err
	}
	return errDefaultBindFailure
}

var errDefaultBindFailure = bindFailureError{}

type bindFailureError struct{}

func (bindFailureError) Error() string { return "binder: set_affinity failed" }
