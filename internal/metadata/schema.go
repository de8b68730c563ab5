// Package metadata builds a prompt-ready description of the analytics
// warehouse schema from the PostgreSQL information schema, cached in Redis.
package metadata

import (
	"fmt"
	"strings"
)

// Column describes one column of a warehouse table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

// Relationship describes a foreign key edge between two tables.
type Relationship struct {
	Table         string `json:"table"`
	Column        string `json:"column"`
	ForeignTable  string `json:"foreign_table"`
	ForeignColumn string `json:"foreign_column"`
}

// Table describes one warehouse table with its columns and keys.
type Table struct {
	Name        string   `json:"name"`
	Columns     []Column `json:"columns"`
	PrimaryKeys []string `json:"primary_keys,omitempty"`
}

// Schema is a point-in-time snapshot of the warehouse catalog.
type Schema struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
}

// Describe renders the schema as DDL-style text for inclusion in a
// SQL generation prompt.
func (s *Schema) Describe() string {
	var sb strings.Builder

	for i, t := range s.Tables {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t.describe())
	}

	return sb.String()
}

// DescribeRelationships renders the foreign key edges as one line per
// relationship.
func (s *Schema) DescribeRelationships() string {
	if len(s.Relationships) == 0 {
		return "-- no foreign key relationships found"
	}

	var sb strings.Builder
	for i, r := range s.Relationships {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s.%s -> %s.%s", r.Table, r.Column, r.ForeignTable, r.ForeignColumn)
	}

	return sb.String()
}

// TableNames returns the names of every table in the snapshot.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

func (t *Table) describe() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", t.Name)

	for i, c := range t.Columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(&sb, "    %s %s", c.Name, c.DataType)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if c.Default != "" {
			fmt.Fprintf(&sb, " DEFAULT %s", c.Default)
		}
	}

	if len(t.PrimaryKeys) > 0 {
		fmt.Fprintf(&sb, ",\n    PRIMARY KEY (%s)", strings.Join(t.PrimaryKeys, ", "))
	}

	sb.WriteString("\n);")
	return sb.String()
}
