// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"
)

// Datum represents a SQL value.
type Datum interface {
	Expr
	// ResolvedType returns the type of the datum.
	ResolvedType() oid.Oid
}

var (
	_ Datum = NewDInt(0)
	_ Datum = &DDecimal{}
	_ Datum = NewDString("")
	_ Datum = DBoolTrue
	_ Datum = DNull
)

// TypeName returns the name of the given type, for error messages.
func TypeName(typ oid.Oid) string {
	if typ == oid.T_unknown {
		return "unknown"
	}
	if name, ok := oid.TypeName[typ]; ok {
		return strings.ToLower(name)
	}
	return strconv.Itoa(int(typ))
}

// DInt is the datum for an INT.
type DInt int64

// NewDInt is a helper routine to create a *DInt initialized from its argument.
func NewDInt(d DInt) *DInt {
	return &d
}

// ResolvedType implements the Datum interface.
func (*DInt) ResolvedType() oid.Oid { return oid.T_int8 }

// Format implements the Expr interface.
func (d *DInt) Format(buf *bytes.Buffer) {
	buf.WriteString(strconv.FormatInt(int64(*d), 10))
}

func (d *DInt) String() string { return AsString(d) }

// DDecimal is the decimal Datum.
type DDecimal struct {
	apd.Decimal
}

// ParseDDecimal parses and returns the *DDecimal Datum value represented by
// the provided string, or an error if parsing is unsuccessful.
func ParseDDecimal(s string) (*DDecimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %q as type decimal", s)
	}
	return &DDecimal{Decimal: *d}, nil
}

// ResolvedType implements the Datum interface.
func (*DDecimal) ResolvedType() oid.Oid { return oid.T_numeric }

// Format implements the Expr interface.
func (d *DDecimal) Format(buf *bytes.Buffer) {
	buf.WriteString(d.Decimal.String())
}

func (d *DDecimal) String() string { return AsString(d) }

// DString is the datum for a STRING.
type DString string

// NewDString is a helper routine to create a *DString initialized from its
// argument.
func NewDString(d string) *DString {
	r := DString(d)
	return &r
}

// ResolvedType implements the Datum interface.
func (*DString) ResolvedType() oid.Oid { return oid.T_text }

// Format implements the Expr interface.
func (d *DString) Format(buf *bytes.Buffer) {
	buf.WriteByte('\'')
	buf.WriteString(strings.ReplaceAll(string(*d), "'", "''"))
	buf.WriteByte('\'')
}

func (d *DString) String() string { return AsString(d) }

// DBool is the boolean Datum.
type DBool bool

var (
	constDBoolTrue  DBool = true
	constDBoolFalse DBool = false

	// DBoolTrue is a pointer to the DBool(true) value and can be used in
	// comparisons against Datum types.
	DBoolTrue = &constDBoolTrue
	// DBoolFalse is a pointer to the DBool(false) value and can be used in
	// comparisons against Datum types.
	DBoolFalse = &constDBoolFalse
)

// MakeDBool converts its argument to a *DBool, returning either DBoolTrue or
// DBoolFalse.
func MakeDBool(d DBool) *DBool {
	if d {
		return DBoolTrue
	}
	return DBoolFalse
}

// ResolvedType implements the Datum interface.
func (*DBool) ResolvedType() oid.Oid { return oid.T_bool }

// Format implements the Expr interface.
func (d *DBool) Format(buf *bytes.Buffer) {
	buf.WriteString(strconv.FormatBool(bool(*d)))
}

func (d *DBool) String() string { return AsString(d) }

type dNull struct{}

// DNull is the NULL Datum.
var DNull Datum = dNull{}

// ResolvedType implements the Datum interface.
func (dNull) ResolvedType() oid.Oid { return oid.T_unknown }

// Format implements the Expr interface.
func (dNull) Format(buf *bytes.Buffer) { buf.WriteString("NULL") }

func (d dNull) String() string { return AsString(d) }

// DatumsEqual returns true if both datums have the same type and render
// identically. Decimals that compare equal but differ in precision, such as
// 1.0 and 1.00, are not equal under this definition.
func DatumsEqual(a, b Datum) bool {
	if a.ResolvedType() != b.ResolvedType() {
		return false
	}
	return AsString(a) == AsString(b)
}
