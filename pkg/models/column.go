package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-catalog/pkg/jsonutil"
)

// ColumnKind is the structural role of a catalog column.
type ColumnKind string

const (
	ColumnKindBase       ColumnKind = "base"
	ColumnKindForeignKey ColumnKind = "foreign-key"
	ColumnKindLookup     ColumnKind = "lookup"
	ColumnKindURL        ColumnKind = "url"
)

// IsValid reports whether k is one of the known column kinds.
func (k ColumnKind) IsValid() bool {
	switch k {
	case ColumnKindBase, ColumnKindForeignKey, ColumnKindLookup, ColumnKindURL:
		return true
	default:
		return false
	}
}

// IsReference reports whether columns of this kind point at another entity
// and therefore carry a synthesized name and a foreign-key constraint.
func (k ColumnKind) IsReference() bool {
	switch k {
	case ColumnKindForeignKey, ColumnKindLookup:
		return true
	default:
		return false
	}
}

// NameSuffix is the trailing segment of a reference column's expected name.
func (k ColumnKind) NameSuffix() string {
	switch k {
	case ColumnKindForeignKey:
		return "id"
	case ColumnKindLookup:
		return "lookup_code"
	default:
		return ""
	}
}

// DataType is the scalar type of a physical column.
type DataType string

const (
	DataTypeVarchar     DataType = "varchar"
	DataTypeText        DataType = "text"
	DataTypeSmallInt    DataType = "smallint"
	DataTypeInteger     DataType = "integer"
	DataTypeBigInt      DataType = "bigint"
	DataTypeDecimal     DataType = "decimal"
	DataTypeDate        DataType = "date"
	DataTypeTime        DataType = "time"
	DataTypeTimestamp   DataType = "timestamp"
	DataTypeTimestampTZ DataType = "timestamptz"
	DataTypeBoolean     DataType = "boolean"
)

// DataTypes lists every supported data type.
var DataTypes = []DataType{
	DataTypeVarchar, DataTypeText, DataTypeSmallInt, DataTypeInteger, DataTypeBigInt,
	DataTypeDecimal, DataTypeDate, DataTypeTime, DataTypeTimestamp, DataTypeTimestampTZ,
	DataTypeBoolean,
}

// IsValid reports whether t is one of the supported data types.
func (t DataType) IsValid() bool {
	switch t {
	case DataTypeVarchar, DataTypeText, DataTypeSmallInt, DataTypeInteger, DataTypeBigInt,
		DataTypeDecimal, DataTypeDate, DataTypeTime, DataTypeTimestamp, DataTypeTimestampTZ,
		DataTypeBoolean:
		return true
	default:
		return false
	}
}

// Column length and precision limits.
const (
	MaxVarcharLength    = 32767
	MaxDecimalPrecision = 1000
)

// SystemColumnNames are present on every physical table and cannot be used
// as catalog column names.
var SystemColumnNames = []string{
	"id",
	"creation_date",
	"created_by",
	"last_update_date",
	"last_updated_by",
	"file_count",
}

// IsSystemColumnName checks if name is reserved for a system column.
func IsSystemColumnName(name string) bool {
	for _, n := range SystemColumnNames {
		if n == name {
			return true
		}
	}
	return false
}

// Column is a catalog column backed by a physical column of its table.
// Stored in catalog_columns; (table_id, name) is unique.
type Column struct {
	ID                  uuid.UUID  `json:"id"`
	TableID             uuid.UUID  `json:"table_id"`
	Kind                ColumnKind `json:"column_type"`
	ForeignKeyTableID   *uuid.UUID `json:"foreign_key_table_id"`
	LookupID            *uuid.UUID `json:"lookup_id"`
	NameQualifier       *string    `json:"name_qualifier"`
	Name                string     `json:"name"`
	DataType            DataType   `json:"data_type"`
	LengthOrPrecision   *int       `json:"length_or_precision"`
	Scale               *int       `json:"scale"`
	IsNotNull           bool       `json:"is_not_null"`
	InitialValue        *string    `json:"initial_value"`
	PositionNumber      int        `json:"position_number"`      // 1-based, fixed at creation
	PositionInUniqueKey *int       `json:"position_in_unique_key"` // passed through, never computed
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ColumnDraft is a proposed column. Reference fields keep the difference
// between an absent key and an explicit null, which validation reports
// separately.
type ColumnDraft struct {
	ID                  *uuid.UUID                `json:"id,omitempty"`
	TableID             uuid.UUID                 `json:"table_id"`
	Kind                ColumnKind                `json:"column_type"`
	ForeignKeyTableID   jsonutil.Field[uuid.UUID] `json:"foreign_key_table_id"`
	LookupID            jsonutil.Field[uuid.UUID] `json:"lookup_id"`
	NameQualifier       jsonutil.Field[string]    `json:"name_qualifier"`
	Name                string                    `json:"name"`
	DataType            DataType                  `json:"data_type"`
	LengthOrPrecision   *int                      `json:"length_or_precision,omitempty"`
	Scale               *int                      `json:"scale,omitempty"`
	IsNotNull           bool                      `json:"is_not_null"`
	InitialValue        *string                   `json:"initial_value,omitempty"`
	PositionInUniqueKey *int                      `json:"position_in_unique_key,omitempty"`
}

// ToColumn converts a draft into a column row. Position is left for the
// caller; a missing ID is assigned on insert.
func (d *ColumnDraft) ToColumn() *Column {
	c := &Column{
		TableID:             d.TableID,
		Kind:                d.Kind,
		ForeignKeyTableID:   d.ForeignKeyTableID.Ptr(),
		LookupID:            d.LookupID.Ptr(),
		NameQualifier:       d.NameQualifier.Ptr(),
		Name:                d.Name,
		DataType:            d.DataType,
		LengthOrPrecision:   d.LengthOrPrecision,
		Scale:               d.Scale,
		IsNotNull:           d.IsNotNull,
		InitialValue:        d.InitialValue,
		PositionInUniqueKey: d.PositionInUniqueKey,
	}
	if d.ID != nil {
		c.ID = *d.ID
	}
	return c
}

// ColumnPatch carries a partial update. Absent fields are left unchanged.
type ColumnPatch struct {
	TableID             jsonutil.Field[uuid.UUID]  `json:"table_id"`
	Kind                jsonutil.Field[ColumnKind] `json:"column_type"`
	ForeignKeyTableID   jsonutil.Field[uuid.UUID]  `json:"foreign_key_table_id"`
	LookupID            jsonutil.Field[uuid.UUID]  `json:"lookup_id"`
	NameQualifier       jsonutil.Field[string]     `json:"name_qualifier"`
	Name                jsonutil.Field[string]     `json:"name"`
	DataType            jsonutil.Field[DataType]   `json:"data_type"`
	LengthOrPrecision   jsonutil.Field[int]        `json:"length_or_precision"`
	Scale               jsonutil.Field[int]        `json:"scale"`
	IsNotNull           jsonutil.Field[bool]       `json:"is_not_null"`
	InitialValue        jsonutil.Field[string]     `json:"initial_value"`
	PositionInUniqueKey jsonutil.Field[int]        `json:"position_in_unique_key"`
}

// Merge returns a copy of c with every present patch field applied.
// Nulls on non-nullable fields are left for validation to reject.
func (c *Column) Merge(p *ColumnPatch) *Column {
	m := *c
	if p.TableID.HasValue() {
		m.TableID = p.TableID.Value
	}
	if p.Kind.HasValue() {
		m.Kind = p.Kind.Value
	}
	if p.ForeignKeyTableID.Set {
		m.ForeignKeyTableID = p.ForeignKeyTableID.Ptr()
	}
	if p.LookupID.Set {
		m.LookupID = p.LookupID.Ptr()
	}
	if p.NameQualifier.Set {
		m.NameQualifier = p.NameQualifier.Ptr()
	}
	if p.Name.HasValue() {
		m.Name = p.Name.Value
	}
	if p.DataType.HasValue() {
		m.DataType = p.DataType.Value
	}
	if p.LengthOrPrecision.Set {
		m.LengthOrPrecision = p.LengthOrPrecision.Ptr()
	}
	if p.Scale.Set {
		m.Scale = p.Scale.Ptr()
	}
	if p.IsNotNull.HasValue() {
		m.IsNotNull = p.IsNotNull.Value
	}
	if p.InitialValue.Set {
		m.InitialValue = p.InitialValue.Ptr()
	}
	if p.PositionInUniqueKey.Set {
		m.PositionInUniqueKey = p.PositionInUniqueKey.Ptr()
	}
	return &m
}

// SameData reports whether two columns agree on every user-editable field.
// Identity, position and timestamps are ignored.
func (c *Column) SameData(o *Column) bool {
	return c.TableID == o.TableID &&
		c.Kind == o.Kind &&
		equalPtr(c.ForeignKeyTableID, o.ForeignKeyTableID) &&
		equalPtr(c.LookupID, o.LookupID) &&
		equalPtr(c.NameQualifier, o.NameQualifier) &&
		c.Name == o.Name &&
		c.DataType == o.DataType &&
		equalPtr(c.LengthOrPrecision, o.LengthOrPrecision) &&
		equalPtr(c.Scale, o.Scale) &&
		c.IsNotNull == o.IsNotNull &&
		equalPtr(c.InitialValue, o.InitialValue) &&
		equalPtr(c.PositionInUniqueKey, o.PositionInUniqueKey)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
