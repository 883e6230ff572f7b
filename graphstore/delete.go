package graphstore

import (
	"context"
	"database/sql"

	"github.com/ladybug-space/ladybug/helper"
)

// DeleteByFile detaches-and-deletes every Chunk with the given file_path,
// then removes the four orphan classes in §4.3: Tags with no incoming
// TAGGED/DATA_TAGGED edge, Pages with no incoming LINKS_TO/EMBEDS edge and
// no outgoing HAS_CHUNK edge, Attributes with no incoming HAS_ATTRIBUTE
// edge, DataBlocks with no incoming HAS_DATA_BLOCK edge.
func (s *Store) DeleteByFile(ctx context.Context, filePath string) error {
	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.WrapKind("begin delete transaction", helper.ErrStoreError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM edges WHERE (from_id, from_type) IN (SELECT id, 'Chunk' FROM chunks WHERE file_path = $1)
		    OR (to_id, to_type) IN (SELECT id, 'Chunk' FROM chunks WHERE file_path = $1)`, filePath); err != nil {
		return helper.WrapKind("detach chunk edges", helper.ErrStoreError, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attributes WHERE chunk_id IN (SELECT id FROM chunks WHERE file_path = $1)`, filePath); err != nil {
		return helper.WrapKind("delete attributes", helper.ErrStoreError, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM edges WHERE from_type = 'DataBlock' AND from_id IN (
		    SELECT id FROM data_blocks WHERE chunk_id IN (SELECT id FROM chunks WHERE file_path = $1))`, filePath); err != nil {
		return helper.WrapKind("detach data block edges", helper.ErrStoreError, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM data_blocks WHERE chunk_id IN (SELECT id FROM chunks WHERE file_path = $1)`, filePath); err != nil {
		return helper.WrapKind("delete data blocks", helper.ErrStoreError, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file_path = $1`, filePath); err != nil {
		return helper.WrapKind("delete chunks", helper.ErrStoreError, err)
	}

	if err := pruneOrphans(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return helper.WrapKind("commit delete transaction", helper.ErrStoreError, err)
	}
	return nil
}

// pruneOrphans removes the four orphan classes described in §4.3. Each
// class is a single DELETE driven by a NOT EXISTS against the edges table,
// so the pass is idempotent and order-independent between classes.
func pruneOrphans(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM tags t WHERE NOT EXISTS (
			SELECT 1 FROM edges e WHERE e.to_id = t.name AND e.to_type = 'Tag'
			  AND e.type IN ('TAGGED', 'DATA_TAGGED')
		)`); err != nil {
		return helper.WrapKind("prune orphan tags", helper.ErrStoreError, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pages p WHERE NOT EXISTS (
			SELECT 1 FROM edges e WHERE e.to_id = p.name AND e.to_type = 'Page'
			  AND e.type IN ('LINKS_TO', 'EMBEDS')
		) AND NOT EXISTS (
			SELECT 1 FROM edges e WHERE e.from_id = p.name AND e.from_type = 'Page' AND e.type = 'HAS_CHUNK'
		)`); err != nil {
		return helper.WrapKind("prune orphan pages", helper.ErrStoreError, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM attributes a WHERE NOT EXISTS (
			SELECT 1 FROM edges e WHERE e.to_id = a.id AND e.to_type = 'Attribute' AND e.type = 'HAS_ATTRIBUTE'
		)`); err != nil {
		return helper.WrapKind("prune orphan attributes", helper.ErrStoreError, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM data_blocks d WHERE NOT EXISTS (
			SELECT 1 FROM edges e WHERE e.to_id = d.id AND e.to_type = 'DataBlock' AND e.type = 'HAS_DATA_BLOCK'
		)`); err != nil {
		return helper.WrapKind("prune orphan data blocks", helper.ErrStoreError, err)
	}

	return nil
}

// ClearAll detach-deletes every node of every label, used by --rebuild.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.WrapKind("begin clear-all transaction", helper.ErrStoreError, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "attributes", "data_blocks", "chunks", "pages", "tags", "folders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return helper.WrapKind("clear table "+table, helper.ErrStoreError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.WrapKind("commit clear-all transaction", helper.ErrStoreError, err)
	}
	return nil
}
