// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cat contains the identifiers the optimizer uses to refer to catalog
// objects. The optimizer never resolves them; it only compares and prints
// them.
package cat

import "fmt"

// DatabaseID uniquely identifies a database in the catalog.
type DatabaseID uint32

// SchemaID uniquely identifies a schema within the catalog.
type SchemaID uint32

// TableID uniquely identifies a table within the catalog.
type TableID uint32

// SafeValue implements the redact.SafeValue interface.
func (DatabaseID) SafeValue() {}

// SafeValue implements the redact.SafeValue interface.
func (SchemaID) SafeValue() {}

// SafeValue implements the redact.SafeValue interface.
func (TableID) SafeValue() {}

// TableRef is the fully qualified identity of a table.
type TableRef struct {
	Database DatabaseID
	Schema   SchemaID
	Table    TableID
}

func (r TableRef) String() string {
	return fmt.Sprintf("[%d.%d.%d]", r.Database, r.Schema, r.Table)
}
