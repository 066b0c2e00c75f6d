package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// orderTables is the table schema most tests run against.
func orderTables() TablesSchema {
	return TablesSchema{
		"order": {
			"id":     {Type: CellString},
			"name":   {Type: CellString},
			"total":  {Type: CellNumber},
			"paid":   {Type: CellBoolean, Default: false},
			"status": {Type: CellString, Default: "new"},
		},
		"customer": {
			"id":   {Type: CellString},
			"name": {Type: CellString},
		},
	}
}

// createTestStore creates a store with orderTables declared.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.SetTablesSchema(ctx, orderTables()))
	return s
}
