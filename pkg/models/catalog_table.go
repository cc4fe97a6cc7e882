package models

import (
	"time"

	"github.com/google/uuid"
)

// Table is a user-defined catalog table backed by a physical table.
// ColumnCount is denormalized and maintained by the column service.
type Table struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SingularName string    `json:"singular_name"` // used to build foreign-key column names
	PhysicalName string    `json:"physical_name"`
	ColumnCount  int       `json:"column_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Lookup is an enumerated code set. LookupType doubles as the name of the
// physical code table, whose key column is lookup_code.
type Lookup struct {
	ID          uuid.UUID `json:"id"`
	LookupType  string    `json:"lookup_type"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LookupCodeColumn is the key column of every physical lookup table.
const LookupCodeColumn = "lookup_code"
