// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

// GroupID identifies a memo group. Groups are numbered densely starting at 1,
// in the order the memo creates them; the zero value means "no group".
type GroupID uint32

// UndefinedGroup is the zero GroupID. Passing it as the target of a recording
// asks the memo to allocate a fresh group.
const UndefinedGroup GroupID = 0

// SafeValue implements the redact.SafeValue interface.
func (GroupID) SafeValue() {}
