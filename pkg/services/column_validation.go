package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// Field names reported in validation errors. They match the JSON keys of a
// column so clients can point at the offending input.
const (
	fieldKind              = "column_type"
	fieldForeignKeyTableID = "foreign_key_table_id"
	fieldLookupID          = "lookup_id"
	fieldNameQualifier     = "name_qualifier"
	fieldName              = "name"
	fieldDataType          = "data_type"
	fieldLengthOrPrecision = "length_or_precision"
	fieldScale             = "scale"
	fieldTableID           = "table_id"
)

// validateKind checks the kind against the taxonomy.
func validateKind(kind models.ColumnKind) error {
	if !kind.IsValid() {
		return apperrors.NewValidationError(fieldKind, "column_type is invalid")
	}
	return nil
}

// validateForbiddenReferences rejects a reference that does not belong to the
// column's kind. Absent and explicit null are both acceptable.
func validateForbiddenReferences(kind models.ColumnKind, foreignKeyTableID, lookupID jsonutil.Field[uuid.UUID]) error {
	if kind != models.ColumnKindForeignKey && foreignKeyTableID.HasValue() {
		return apperrors.NewValidationError(fieldForeignKeyTableID,
			"foreign_key_table_id is not required or must be set to null")
	}
	if kind != models.ColumnKindLookup && lookupID.HasValue() {
		return apperrors.NewValidationError(fieldLookupID,
			"lookup_id is not required or must be set to null")
	}
	return nil
}

// requireReference returns the id carried by a mandatory reference field.
// A missing key and an explicit null fail with different reasons.
func requireReference(field string, ref jsonutil.Field[uuid.UUID]) (uuid.UUID, error) {
	switch {
	case ref.IsAbsent():
		return uuid.Nil, apperrors.NewValidationError(field, field+" is required")
	case ref.IsNull():
		return uuid.Nil, apperrors.NewValidationError(field, field+" cannot be null")
	default:
		return ref.Value, nil
	}
}

// ExpectedReferenceName builds the only legal name for a foreign-key or
// lookup column: [qualifier_]<instance>_<suffix>.
func ExpectedReferenceName(kind models.ColumnKind, qualifier *string, instanceName string) string {
	name := instanceName + "_" + kind.NameSuffix()
	if qualifier != nil && *qualifier != "" {
		name = *qualifier + "_" + name
	}
	return name
}

// validateName applies the naming rules of the column's kind. instanceName is
// the referenced table's singular name or the lookup type, and is ignored
// for base and url columns.
func validateName(c *models.Column, instanceName string) error {
	switch c.Kind {
	case models.ColumnKindBase, models.ColumnKindURL:
		if c.NameQualifier != nil {
			return apperrors.NewValidationError(fieldNameQualifier,
				"name_qualifier is not required or must be set to null")
		}
		if models.IsSystemColumnName(c.Name) {
			return apperrors.NewValidationError(fieldName,
				fmt.Sprintf("name %q is reserved by the system", c.Name))
		}
		return nil
	case models.ColumnKindForeignKey, models.ColumnKindLookup:
		expected := ExpectedReferenceName(c.Kind, c.NameQualifier, instanceName)
		if c.Name != expected {
			return apperrors.NewValidationError(fieldName,
				fmt.Sprintf("name must be set to %q", expected))
		}
		return nil
	default:
		return validateKind(c.Kind)
	}
}

// duplicateNameError reports a (table, name) collision.
func duplicateNameError(name, tableName string) error {
	return apperrors.NewValidationError(fieldName,
		fmt.Sprintf("column %q already exists in table %q", name, tableName))
}

// validateDataType checks the data type against the taxonomy.
func validateDataType(dt models.DataType) error {
	if !dt.IsValid() {
		return apperrors.NewValidationError(fieldDataType, "data_type is invalid")
	}
	return nil
}

// validateLengthAndScale cross-checks length_or_precision and scale against
// the data type. Scale is only legal for decimal.
func validateLengthAndScale(dt models.DataType, length, scale *int) error {
	switch dt {
	case models.DataTypeVarchar:
		if length == nil {
			return apperrors.NewValidationError(fieldLengthOrPrecision, "length_or_precision cannot be null")
		}
		if *length < 1 || *length > models.MaxVarcharLength {
			return apperrors.NewValidationError(fieldLengthOrPrecision,
				fmt.Sprintf("length_or_precision must be between 1 and %d", models.MaxVarcharLength))
		}
		if scale != nil {
			return apperrors.NewValidationError(fieldScale, "scale must be null")
		}
	case models.DataTypeDecimal:
		if length == nil {
			return apperrors.NewValidationError(fieldLengthOrPrecision, "length_or_precision cannot be null")
		}
		if *length < 1 || *length > models.MaxDecimalPrecision {
			return apperrors.NewValidationError(fieldLengthOrPrecision,
				fmt.Sprintf("length_or_precision must be between 1 and %d", models.MaxDecimalPrecision))
		}
		if scale == nil {
			return apperrors.NewValidationError(fieldScale, "scale cannot be null")
		}
		if *scale < 1 || *scale > *length {
			return apperrors.NewValidationError(fieldScale,
				fmt.Sprintf("scale must be between 1 and %d", *length))
		}
	default:
		if length != nil {
			return apperrors.NewValidationError(fieldLengthOrPrecision, "length_or_precision must be null")
		}
		if scale != nil {
			return apperrors.NewValidationError(fieldScale, "scale must be null")
		}
	}
	return nil
}

// immutableChange reports the first field a patch tries to change that is
// fixed after creation.
func immutableChange(current, merged *models.Column) error {
	var field string
	switch {
	case merged.TableID != current.TableID:
		field = fieldTableID
	case merged.Kind != current.Kind:
		field = fieldKind
	case !equalPtr(merged.ForeignKeyTableID, current.ForeignKeyTableID):
		field = fieldForeignKeyTableID
	case !equalPtr(merged.LookupID, current.LookupID):
		field = fieldLookupID
	case merged.DataType != current.DataType:
		field = fieldDataType
	case !equalPtr(merged.LengthOrPrecision, current.LengthOrPrecision):
		field = fieldLengthOrPrecision
	case !equalPtr(merged.Scale, current.Scale):
		field = fieldScale
	default:
		return nil
	}
	return apperrors.NewValidationError(field, field+" cannot be changed")
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
