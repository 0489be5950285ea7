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

import "github.com/pkg/errors"

// The error taxonomy every operation in this package returns: success,
// or one of these wrapped with context via errors.Wrap. Callers can
// test the category with errors.Is.
var (
	// ErrInvalidArgument covers an out-of-range request count, an
	// unrecognised topology-level/flag combination, a child whose
	// level isn't strictly finer than its parent's, or a CCL-level
	// request on a CCL-less platform.
	ErrInvalidArgument = errors.New("group: invalid argument")
	// ErrNotFound covers deleting a thread or child group that isn't a
	// member of the group it's deleted from.
	ErrNotFound = errors.New("group: not found")
	// ErrResourceExhausted covers a non-root resource request made
	// while the parent is already fully reserved.
	ErrResourceExhausted = errors.New("group: resource exhausted")
	// ErrExternalFailure covers the binder reporting failure; the
	// failing thread's new placement is not added to the load table
	// when this occurs.
	ErrExternalFailure = errors.New("group: external failure")
)
