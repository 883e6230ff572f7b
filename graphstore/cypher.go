package graphstore

import (
	"context"

	"github.com/ladybug-space/ladybug/helper"
)

// Cypher is an opaque pass-through for the Cypher tool (§4.3, §6): the
// underlying store here is relational, not a native graph engine, so this
// runs query as a parameterized SQL statement against it and returns rows
// as generic maps. Callers of the graph-query tool are expected to target
// this store's relational shape (chunks/pages/tags/folders/edges) rather
// than a Cypher dialect.
func (s *Store) Cypher(ctx context.Context, query string, params []interface{}) ([]map[string]interface{}, error) {
	rows, err := s.db.Instance.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, helper.WrapKind("execute graph query", helper.ErrStoreError, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, helper.WrapKind("read graph query columns", helper.ErrStoreError, err)
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, helper.WrapKind("scan graph query row", helper.ErrStoreError, err)
		}

		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.WrapKind("iterate graph query rows", helper.ErrStoreError, err)
	}

	return out, nil
}
