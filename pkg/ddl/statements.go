// Package ddl renders the physical-schema statements that keep user tables in
// step with the column catalog.
//
// Identifiers are always quoted with pgx.Identifier, so catalog names reach
// Postgres verbatim. Values (initial values for backfills) are never inlined;
// they travel as bind arguments on the Statement.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// Statement is one DDL or DML statement plus its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

func (s Statement) String() string {
	return s.SQL
}

// Reference is the target of a foreign-key constraint.
type Reference struct {
	Table  string
	Column string
}

// TableReference points a foreign-key column at the id of another catalog table.
func TableReference(t *models.Table) Reference {
	return Reference{Table: t.PhysicalName, Column: "id"}
}

// LookupReference points a lookup column at the code column of a lookup table.
func LookupReference(l *models.Lookup) Reference {
	return Reference{Table: l.LookupType, Column: models.LookupCodeColumn}
}

// Builder renders statements for tables living in one physical schema.
type Builder struct {
	schema string
}

// NewBuilder creates a Builder. An empty schema leaves table names unqualified.
func NewBuilder(schema string) *Builder {
	return &Builder{schema: schema}
}

// qualifiedTableName returns a properly quoted table reference.
func (b *Builder) qualifiedTableName(tableName string) string {
	if b.schema == "" {
		return pgx.Identifier{tableName}.Sanitize()
	}
	return pgx.Identifier{b.schema, tableName}.Sanitize()
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// ColumnType renders the native type of a column, including the
// (length[, scale]) suffix for varchar and decimal.
func ColumnType(c *models.Column) string {
	switch c.DataType {
	case models.DataTypeVarchar:
		if c.LengthOrPrecision != nil {
			return fmt.Sprintf("varchar(%d)", *c.LengthOrPrecision)
		}
	case models.DataTypeDecimal:
		if c.LengthOrPrecision != nil && c.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *c.LengthOrPrecision, *c.Scale)
		}
		if c.LengthOrPrecision != nil {
			return fmt.Sprintf("decimal(%d)", *c.LengthOrPrecision)
		}
	}
	return string(c.DataType)
}

// ConstraintName derives the foreign-key constraint name from the column id.
// The result stays under the 63 byte identifier limit.
func ConstraintName(columnID uuid.UUID) string {
	return "fk_" + strings.ReplaceAll(columnID.String(), "-", "")
}

// AddColumn renders ALTER TABLE ... ADD COLUMN for a catalog column.
func (b *Builder) AddColumn(t *models.Table, c *models.Column) Statement {
	return b.addColumn(t, c, c.IsNotNull)
}

func (b *Builder) addColumn(t *models.Table, c *models.Column, notNull bool) Statement {
	var sb strings.Builder
	sb.WriteString("ALTER TABLE ")
	sb.WriteString(b.qualifiedTableName(t.PhysicalName))
	sb.WriteString(" ADD COLUMN ")
	sb.WriteString(quoteIdent(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(ColumnType(c))
	if notNull {
		sb.WriteString(" NOT NULL")
	}
	return Statement{SQL: sb.String()}
}

// AddForeignKey renders the constraint linking a reference column to its target.
func (b *Builder) AddForeignKey(t *models.Table, c *models.Column, ref Reference) Statement {
	return Statement{SQL: fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		b.qualifiedTableName(t.PhysicalName),
		quoteIdent(ConstraintName(c.ID)),
		quoteIdent(c.Name),
		b.qualifiedTableName(ref.Table),
		quoteIdent(ref.Column),
	)}
}

// RenameColumn renders ALTER TABLE ... RENAME COLUMN.
func (b *Builder) RenameColumn(t *models.Table, oldName, newName string) Statement {
	return Statement{SQL: fmt.Sprintf(
		"ALTER TABLE %s RENAME COLUMN %s TO %s",
		b.qualifiedTableName(t.PhysicalName), quoteIdent(oldName), quoteIdent(newName),
	)}
}

// DropColumn renders ALTER TABLE ... DROP COLUMN.
func (b *Builder) DropColumn(t *models.Table, name string) Statement {
	return Statement{SQL: fmt.Sprintf(
		"ALTER TABLE %s DROP COLUMN %s",
		b.qualifiedTableName(t.PhysicalName), quoteIdent(name),
	)}
}

// SetNotNull renders ALTER COLUMN ... SET NOT NULL or DROP NOT NULL.
func (b *Builder) SetNotNull(t *models.Table, name string, notNull bool) Statement {
	action := "DROP NOT NULL"
	if notNull {
		action = "SET NOT NULL"
	}
	return Statement{SQL: fmt.Sprintf(
		"ALTER TABLE %s ALTER COLUMN %s %s",
		b.qualifiedTableName(t.PhysicalName), quoteIdent(name), action,
	)}
}

// BackfillPlan adds a NOT NULL column to a table that may already hold rows:
// the column is added nullable, existing rows receive the initial value, and
// only then is the constraint applied. It returns nil when the column does
// not need a backfill.
func (b *Builder) BackfillPlan(t *models.Table, c *models.Column) []Statement {
	if !c.IsNotNull || c.InitialValue == nil {
		return nil
	}
	name := quoteIdent(c.Name)
	return []Statement{
		b.addColumn(t, c, false),
		{
			SQL: fmt.Sprintf("UPDATE %s SET %s = $1::%s WHERE %s IS NULL",
				b.qualifiedTableName(t.PhysicalName), name, ColumnType(c), name),
			Args: []any{*c.InitialValue},
		},
		b.SetNotNull(t, c.Name, true),
	}
}

// CreateTable renders the physical table behind a new catalog table. Every
// physical table starts with the system columns. The id is text so that
// foreign-key columns, which use the text and varchar types, can reference it.
func (b *Builder) CreateTable(t *models.Table) Statement {
	return Statement{SQL: fmt.Sprintf(`CREATE TABLE %s (
  %s text PRIMARY KEY DEFAULT gen_random_uuid()::text,
  %s timestamptz NOT NULL DEFAULT now(),
  %s text,
  %s timestamptz,
  %s text,
  %s integer NOT NULL DEFAULT 0
)`,
		b.qualifiedTableName(t.PhysicalName),
		quoteIdent("id"),
		quoteIdent("creation_date"),
		quoteIdent("created_by"),
		quoteIdent("last_update_date"),
		quoteIdent("last_updated_by"),
		quoteIdent("file_count"),
	)}
}

// DropTable renders DROP TABLE for a catalog table's physical table.
func (b *Builder) DropTable(t *models.Table) Statement {
	return Statement{SQL: "DROP TABLE " + b.qualifiedTableName(t.PhysicalName)}
}

// CreateLookupTable renders the physical code table of a lookup type.
func (b *Builder) CreateLookupTable(l *models.Lookup) Statement {
	return Statement{SQL: fmt.Sprintf(`CREATE TABLE %s (
  %s varchar(%s) PRIMARY KEY,
  %s text
)`,
		b.qualifiedTableName(l.LookupType),
		quoteIdent(models.LookupCodeColumn),
		strconv.Itoa(lookupCodeLength),
		quoteIdent("meaning"),
	)}
}

const lookupCodeLength = 30
