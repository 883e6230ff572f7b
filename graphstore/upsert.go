package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

// UpsertChunks merges the given chunks (and every node/edge they imply —
// their source page, links, tags, folder, transclusions, attributes and
// data blocks) into the graph, per §4.3. Embeddings must already be set on
// each chunk; the caller obtains them in one batch call to the embedding
// client before invoking this.
func (s *Store) UpsertChunks(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.WrapKind("begin upsert transaction", helper.ErrStoreError, err)
	}
	defer tx.Rollback()

	pageLinks := map[string]map[string]bool{} // source page -> set of linked page names

	for _, c := range chunks {
		if err := upsertOneChunk(ctx, tx, c); err != nil {
			return helper.WrapKind(fmt.Sprintf("upsert chunk %s", c.ID), helper.ErrStoreError, err)
		}

		pageName := strings.TrimSuffix(c.FilePath, ".md")
		if _, ok := pageLinks[pageName]; !ok {
			pageLinks[pageName] = map[string]bool{}
			if err := upsertPage(ctx, tx, pageName, c.FilePath, c.FolderPath); err != nil {
				return helper.WrapKind("upsert source page", helper.ErrStoreError, err)
			}
		}

		if err := mergeEdge(ctx, tx, pageName, "Page", c.ID, "Chunk", model.EdgeHasChunk, map[string]interface{}{"chunk_order": c.ChunkOrder}); err != nil {
			return helper.WrapKind("merge HAS_CHUNK edge", helper.ErrStoreError, err)
		}

		if c.FolderPath != "" {
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", c.FolderPath, "Folder", model.EdgeInFolder, nil); err != nil {
				return helper.WrapKind("merge IN_FOLDER edge", helper.ErrStoreError, err)
			}
		}

		for _, target := range c.Links {
			if err := upsertPage(ctx, tx, target, "", ""); err != nil {
				return helper.WrapKind("upsert link target page", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", target, "Page", model.EdgeLinksTo, nil); err != nil {
				return helper.WrapKind("merge LINKS_TO edge", helper.ErrStoreError, err)
			}
			pageLinks[pageName][target] = true
		}

		for _, tag := range c.Tags {
			if err := upsertTag(ctx, tx, tag); err != nil {
				return helper.WrapKind("upsert tag", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", tag, "Tag", model.EdgeTagged, nil); err != nil {
				return helper.WrapKind("merge TAGGED edge", helper.ErrStoreError, err)
			}
		}

		for _, tr := range c.Transclusions {
			if err := upsertPage(ctx, tx, tr.Target, "", ""); err != nil {
				return helper.WrapKind("upsert transclusion target page", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", tr.Target, "Page", model.EdgeEmbeds, map[string]interface{}{"header": tr.Header}); err != nil {
				return helper.WrapKind("merge EMBEDS edge", helper.ErrStoreError, err)
			}
		}

		for _, attr := range c.Attributes {
			if err := upsertAttribute(ctx, tx, attr); err != nil {
				return helper.WrapKind("upsert attribute", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", attr.ID, "Attribute", model.EdgeHasAttribute, nil); err != nil {
				return helper.WrapKind("merge HAS_ATTRIBUTE edge", helper.ErrStoreError, err)
			}
		}

		for _, block := range c.DataBlocks {
			if err := upsertDataBlock(ctx, tx, block); err != nil {
				return helper.WrapKind("upsert data block", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, c.ID, "Chunk", block.ID, "DataBlock", model.EdgeHasDataBlock, nil); err != nil {
				return helper.WrapKind("merge HAS_DATA_BLOCK edge", helper.ErrStoreError, err)
			}
			if err := upsertTag(ctx, tx, block.Tag); err != nil {
				return helper.WrapKind("upsert data block tag", helper.ErrStoreError, err)
			}
			if err := mergeEdge(ctx, tx, block.ID, "DataBlock", block.Tag, "Tag", model.EdgeDataTagged, nil); err != nil {
				return helper.WrapKind("merge DATA_TAGGED edge", helper.ErrStoreError, err)
			}
		}
	}

	for source, targets := range pageLinks {
		for target := range targets {
			if err := mergeEdge(ctx, tx, source, "Page", target, "Page", model.EdgePageLinksTo, nil); err != nil {
				return helper.WrapKind("merge PAGE_LINKS_TO edge", helper.ErrStoreError, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.WrapKind("commit upsert transaction", helper.ErrStoreError, err)
	}
	return nil
}

func upsertOneChunk(ctx context.Context, tx *sql.Tx, c model.Chunk) error {
	var embeddingParam interface{}
	if len(c.Embedding) > 0 {
		v := pgvector.NewVector(c.Embedding)
		embeddingParam = &v
	}

	fm, err := c.Frontmatter.Marshal()
	if err != nil {
		return fmt.Errorf("marshal frontmatter: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`SELECT upsert_chunk_node($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.FilePath, c.Header, c.Content, c.FolderPath, fm, embeddingParam, c.ChunkOrder,
	)
	return err
}

func upsertPage(ctx context.Context, tx *sql.Tx, name, filePath, folderPath string) error {
	var filePathParam, folderPathParam interface{}
	if filePath != "" {
		filePathParam = filePath
	}
	if folderPath != "" {
		folderPathParam = folderPath
	}
	_, err := tx.ExecContext(ctx, `SELECT upsert_page_node($1, $2, $3)`, name, filePathParam, folderPathParam)
	return err
}

func upsertTag(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `SELECT upsert_tag_node($1)`, name)
	return err
}

func upsertAttribute(ctx context.Context, tx *sql.Tx, attr model.Attribute) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO attributes (id, chunk_id, name, value) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET value = excluded.value`,
		attr.ID, attr.ChunkID, attr.Name, attr.Value,
	)
	return err
}

func upsertDataBlock(ctx context.Context, tx *sql.Tx, db model.DataBlock) error {
	data, err := db.Data.Marshal()
	if err != nil {
		return fmt.Errorf("marshal data block payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO data_blocks (id, chunk_id, file_path, tag, index, data) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET tag = excluded.tag, data = excluded.data`,
		db.ID, db.ChunkID, db.FilePath, db.Tag, db.Index, data,
	)
	return err
}

func mergeEdge(ctx context.Context, tx *sql.Tx, fromID, fromType, toID, toType string, edgeType model.EdgeType, properties map[string]interface{}) error {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	propsJSON, err := model.Metadata(properties).Marshal()
	if err != nil {
		return fmt.Errorf("marshal edge properties: %w", err)
	}
	_, err = tx.ExecContext(ctx, `SELECT merge_edge($1, $2, $3, $4, $5, $6)`, fromID, fromType, toID, toType, string(edgeType), propsJSON)
	return err
}

// UpsertFolders materializes every folder path (and all of its ancestors)
// as Folder nodes, marking has_index_page from indexPages, then installs
// CONTAINS edges for every parent/child pair present in the closure.
func (s *Store) UpsertFolders(ctx context.Context, paths []string, indexPages map[string]string) error {
	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.WrapKind("begin folder upsert transaction", helper.ErrStoreError, err)
	}
	defer tx.Rollback()

	closure := map[string]bool{}
	for _, p := range paths {
		for dir := p; dir != ""; dir = parentPath(dir) {
			closure[dir] = true
		}
	}

	for dir := range closure {
		_, hasIndex := indexPages[dir]
		_, err := tx.ExecContext(ctx, `SELECT upsert_folder_node($1, $2, $3)`, dir, lastSegment(dir), hasIndex)
		if err != nil {
			return helper.WrapKind("upsert folder node", helper.ErrStoreError, fmt.Errorf("%s: %w", dir, err))
		}
	}

	for dir := range closure {
		parent := parentPath(dir)
		if parent == "" {
			continue
		}
		if !closure[parent] {
			continue
		}
		if err := mergeEdge(ctx, tx, parent, "Folder", dir, "Folder", model.EdgeContains, nil); err != nil {
			return helper.WrapKind("merge CONTAINS edge", helper.ErrStoreError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.WrapKind("commit folder upsert transaction", helper.ErrStoreError, err)
	}
	return nil
}

func parentPath(dir string) string {
	idx := strings.LastIndexByte(dir, '/')
	if idx < 0 {
		return ""
	}
	return dir[:idx]
}

func lastSegment(dir string) string {
	idx := strings.LastIndexByte(dir, '/')
	if idx < 0 {
		return dir
	}
	return dir[idx+1:]
}
