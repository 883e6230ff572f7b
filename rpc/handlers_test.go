package rpc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladybug-space/ladybug/hybrid"
	"github.com/ladybug-space/ladybug/model"
)

type fakeStore struct {
	keywordHits []model.KeywordHit
	vectorHits  []model.SemanticHit
	cypherRows  []map[string]interface{}
	cypherErr   error
	lastQuery   string
	lastParams  []interface{}
	lastLimit   int
}

func (f *fakeStore) KeywordSearch(ctx context.Context, query, scope string, limit int) ([]model.KeywordHit, error) {
	f.lastLimit = limit
	return f.keywordHits, nil
}

func (f *fakeStore) VectorSearch(ctx context.Context, queryEmbedding []float32, limit int, filterTags, filterPages []string, scope string) ([]model.SemanticHit, error) {
	return f.vectorHits, nil
}

func (f *fakeStore) Cypher(ctx context.Context, query string, params []interface{}) ([]map[string]interface{}, error) {
	f.lastQuery = query
	f.lastParams = params
	return f.cypherRows, f.cypherErr
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

type fakeParser struct {
	frontmatter map[string]model.Metadata
	indexPages  map[string]string
}

func (f *fakeParser) GetFrontmatter(path string) (model.Metadata, error) {
	return f.frontmatter[path], nil
}

func (f *fakeParser) GetFolderIndexPages(root string) (map[string]string, error) {
	return f.indexPages, nil
}

func newHandlers(t *testing.T, store *fakeStore, embedder *fakeEmbedder, parser *fakeParser) (*Handlers, string) {
	t.Helper()
	root := t.TempDir()
	if parser == nil {
		parser = &fakeParser{}
	}
	var search *hybrid.Searcher
	if embedder != nil {
		search = hybrid.New(store, embedder, nil)
	} else {
		search = hybrid.New(store, nil, nil)
	}
	h := &Handlers{
		Root:         root,
		ProposalsDir: "_Proposals",
		Store:        store,
		Search:       search,
		Parser:       parser,
	}
	if embedder != nil {
		h.Embedder = embedder
	}
	return h, root
}

func TestQueryReturnsResultsJSON(t *testing.T) {
	store := &fakeStore{cypherRows: []map[string]interface{}{{"file_path": "a.md"}}}
	h, _ := newHandlers(t, store, nil, nil)

	resp := h.Query(context.Background(), "SELECT * FROM chunks")
	require.True(t, resp.Success)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.ResultsJSON), &rows))
	assert.Equal(t, "a.md", rows[0]["file_path"])
}

func TestSearchDefaultsLimitToTen(t *testing.T) {
	store := &fakeStore{keywordHits: []model.KeywordHit{{Chunk: model.Chunk{ID: "a.md#h"}, Score: 1, Rank: 1}}}
	h, _ := newHandlers(t, store, nil, nil)

	resp := h.Search(context.Background(), "foo", 0)
	require.True(t, resp.Success)
	assert.Contains(t, resp.ResultsJSON, "a.md#h")
	assert.Equal(t, 10, store.lastLimit)
}

func TestSemanticSearchFailsWithoutEmbedder(t *testing.T) {
	store := &fakeStore{}
	h, _ := newHandlers(t, store, nil, nil)

	resp := h.SemanticSearch(context.Background(), "foo", 5, nil, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "embeddings disabled")
}

func TestSemanticSearchUsesEmbedderAndStore(t *testing.T) {
	store := &fakeStore{vectorHits: []model.SemanticHit{{Chunk: model.Chunk{ID: "a.md#h"}, Similarity: 0.9, Rank: 1}}}
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2}}
	h, _ := newHandlers(t, store, embedder, nil)

	resp := h.SemanticSearch(context.Background(), "foo", 5, nil, nil)
	require.True(t, resp.Success)
	assert.Contains(t, resp.ResultsJSON, "a.md#h")
}

func TestHybridSearchWithDefaultParamsReturnsKeywordHits(t *testing.T) {
	store := &fakeStore{keywordHits: []model.KeywordHit{{Chunk: model.Chunk{ID: "a.md#h"}, Score: 5, Rank: 1}}}
	h, _ := newHandlers(t, store, nil, nil)

	resp := h.HybridSearch(context.Background(), "foo", HybridSearchParams{})
	require.True(t, resp.Success)
	assert.Contains(t, resp.ResultsJSON, "a.md#h")
}

func TestReadPageRejectsPathEscape(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.ReadPage(context.Background(), "../../etc/passwd")
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid page name", resp.Error)
}

func TestReadPageReturnsContent(t *testing.T) {
	h, root := newHandlers(t, &fakeStore{}, nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "Note.md"), []byte("hello"), 0644))

	resp := h.ReadPage(context.Background(), "Note")
	require.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Content)
}

func TestGetFolderContextReturnsIndexPage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Projects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Projects.md"), []byte("index body"), 0644))

	parser := &fakeParser{indexPages: map[string]string{"Projects": "Projects.md"}}
	h := &Handlers{Root: root, Store: &fakeStore{}, Search: hybrid.New(&fakeStore{}, nil, nil), Parser: parser}

	resp := h.GetFolderContext(context.Background(), "Projects")
	require.True(t, resp.Success)
	assert.True(t, resp.Found)
	assert.Equal(t, "index body", resp.PageContent)
}

func TestGetProjectContextRequiresLookupArg(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)

	resp := h.GetProjectContext(context.Background(), "", "")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "required")
}

func TestGetProjectContextByGithubRemote(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Ladybug.md"), []byte("project body"), 0644))
	store := &fakeStore{
		cypherRows: []map[string]interface{}{{"file_path": "Ladybug.md"}},
	}
	parser := &fakeParser{frontmatter: map[string]model.Metadata{
		filepath.Join(root, "Ladybug.md"): {"github": "org/ladybug", "tags": []interface{}{"infra"}},
	}}
	h := &Handlers{Root: root, Store: store, Search: hybrid.New(store, nil, nil), Parser: parser}

	resp := h.GetProjectContext(context.Background(), "org/ladybug", "")
	require.True(t, resp.Success)
	require.NotNil(t, resp.Project)
	assert.Equal(t, "project body", resp.Project.Content)
	assert.Equal(t, "org/ladybug", resp.Project.GitHub)
	assert.Equal(t, []string{"infra"}, resp.Project.Tags)
}

func TestGraphSchemaListsElevenEdgeTypes(t *testing.T) {
	h, _ := newHandlers(t, &fakeStore{}, nil, nil)
	resp := h.GetGraphSchema()
	require.True(t, resp.Success)
	assert.Len(t, resp.EdgeTypes, 11)
	assert.Contains(t, resp.EdgeTypes, "HAS_CHUNK")
}
