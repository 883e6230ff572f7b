package graphstore

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// graphFunctions lists every function schema.sql installs, checked against
// pg_proc before re-executing the script (mirrors the teacher's
// existence-gated sql/load.go convention).
var graphFunctions = []string{
	"upsert_chunk_node",
	"upsert_page_node",
	"upsert_tag_node",
	"upsert_folder_node",
	"merge_edge",
	"init_embedding_index",
}

// loadSchema executes schema.sql unless every function it installs is
// already present, or force is set.
func loadSchema(db *sql.DB, force bool) error {
	if !force {
		exist, err := functionsExist(db, graphFunctions)
		if err != nil {
			return fmt.Errorf("check existing graph functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute graph schema: %w", err)
	}

	exist, err := functionsExist(db, graphFunctions)
	if err != nil {
		return fmt.Errorf("check graph functions after load: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required graph functions were created")
	}

	return nil
}

func functionsExist(db *sql.DB, names []string) (bool, error) {
	allExist := true
	for _, name := range names {
		var exists bool
		err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`, name).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("check function %s: %w", name, err)
		}
		if !exists {
			allExist = false
			break
		}
	}
	return allExist, nil
}
