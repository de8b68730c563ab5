package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/informe-labs/informe/pkg/repository"
)

const columnsQuery = `
	SELECT table_name, column_name, data_type, is_nullable, COALESCE(column_default, '')
	FROM information_schema.columns
	WHERE table_schema = 'public'
	ORDER BY table_name, ordinal_position`

const primaryKeysQuery = `
	SELECT tc.table_name, kcu.column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
	    ON tc.constraint_name = kcu.constraint_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
	    AND tc.table_schema = 'public'
	ORDER BY tc.table_name, kcu.ordinal_position`

const relationshipsQuery = `
	SELECT tc.table_name, kcu.column_name,
	    ccu.table_name AS foreign_table_name,
	    ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
	    ON tc.constraint_name = kcu.constraint_name
	JOIN information_schema.constraint_column_usage AS ccu
	    ON ccu.constraint_name = tc.constraint_name
	WHERE tc.constraint_type = 'FOREIGN KEY'
	    AND tc.table_schema = 'public'
	ORDER BY tc.table_name, kcu.column_name`

type columnRow struct {
	table  string
	column Column
}

type keyRow struct {
	table  string
	column string
}

// loadSchema reads the warehouse catalog in parallel and assembles a
// Schema snapshot.
func loadSchema(ctx context.Context, db *sql.DB) (*Schema, error) {
	var (
		columns       []columnRow
		primaryKeys   []keyRow
		relationships []Relationship
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, db, columnsQuery, nil, scanColumnRow)
		if err != nil {
			return fmt.Errorf("query columns: %w", err)
		}
		columns = rows
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, db, primaryKeysQuery, nil, scanKeyRow)
		if err != nil {
			return fmt.Errorf("query primary keys: %w", err)
		}
		primaryKeys = rows
		return nil
	})

	g.Go(func() error {
		rows, err := repository.QueryMany(gctx, db, relationshipsQuery, nil, scanRelationship)
		if err != nil {
			return fmt.Errorf("query relationships: %w", err)
		}
		relationships = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(columns, primaryKeys, relationships), nil
}

func assemble(columns []columnRow, primaryKeys []keyRow, relationships []Relationship) *Schema {
	tables := make(map[string]*Table)
	order := make([]string, 0)

	for _, row := range columns {
		t, ok := tables[row.table]
		if !ok {
			t = &Table{Name: row.table}
			tables[row.table] = t
			order = append(order, row.table)
		}
		t.Columns = append(t.Columns, row.column)
	}

	for _, pk := range primaryKeys {
		if t, ok := tables[pk.table]; ok {
			t.PrimaryKeys = append(t.PrimaryKeys, pk.column)
		}
	}

	sort.Strings(order)

	schema := &Schema{Relationships: relationships}
	for _, name := range order {
		schema.Tables = append(schema.Tables, *tables[name])
	}

	return schema
}

func scanColumnRow(s repository.Scanner) (columnRow, error) {
	var (
		row      columnRow
		nullable string
	)
	err := s.Scan(&row.table, &row.column.Name, &row.column.DataType, &nullable, &row.column.Default)
	row.column.Nullable = nullable == "YES"
	return row, err
}

func scanKeyRow(s repository.Scanner) (keyRow, error) {
	var row keyRow
	err := s.Scan(&row.table, &row.column)
	return row, err
}

func scanRelationship(s repository.Scanner) (Relationship, error) {
	var r Relationship
	err := s.Scan(&r.Table, &r.Column, &r.ForeignTable, &r.ForeignColumn)
	return r, err
}
