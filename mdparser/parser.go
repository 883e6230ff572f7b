package mdparser

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ladybug-space/ladybug/helper"
	"github.com/ladybug-space/ladybug/model"
)

// Parser turns markdown files into Chunk records. It is stateless between
// calls except for the content cache used to resolve transclusions, which a
// long-lived Parser (as held by the watcher) keeps warm across incremental
// reparses of individual files.
type Parser struct {
	mu     sync.RWMutex
	cache  map[string]string // page name -> raw (post-frontmatter) body
	logger *slog.Logger
}

// New returns a Parser with an empty content cache.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{cache: map[string]string{}, logger: logger}
}

func (p *Parser) lookupCache(pageName string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	raw, ok := p.cache[pageName]
	return raw, ok
}

// UpdateCache refreshes the cached raw body for one page, so subsequent
// ParseFile calls elsewhere in the tree can transclude its current content.
func (p *Parser) UpdateCache(pageName, rawBody string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[pageName] = rawBody
}

// DropCache removes a page's cached body, called when its file is deleted.
func (p *Parser) DropCache(pageName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, pageName)
}

// PageName derives the page name ("Projects/MyProject") from a slash-joined
// relative file path.
func PageName(relPath string) string {
	return strings.TrimSuffix(relPath, ".md")
}

func fileStem(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func folderOf(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	return filepath.ToSlash(dir)
}

// parentOf returns the parent folder of a slash-joined folder path, or ""
// if dir is already top-level.
func parentOf(dir string) string {
	idx := strings.LastIndexByte(dir, '/')
	if idx < 0 {
		return ""
	}
	return dir[:idx]
}

// ParseFile parses one file, given as a path relative to root, into its
// Chunk records. If the cache has no entry for this file yet, the file's own
// body is warmed into the cache first (whether or not expandTransclusions is
// set) so self-references still resolve; an existing entry is left as is.
func (p *Parser) ParseFile(root, relPath string, expandTransclusions bool) ([]model.Chunk, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, helper.WrapKind("read file", helper.ErrParseError, err)
	}

	return p.parseContent(filepath.ToSlash(relPath), string(raw), expandTransclusions)
}

func (p *Parser) parseContent(relPath string, raw string, expandTransclusions bool) ([]model.Chunk, error) {
	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, helper.WrapKind("split frontmatter", helper.ErrParseError, err)
	}

	name := PageName(relPath)
	if _, ok := p.lookupCache(name); !ok {
		p.UpdateCache(name, body)
	}

	if expandTransclusions {
		body = p.expand(body, 1)
	}

	sections := splitSections(body, fileStem(relPath))
	fmTags := frontmatterTags(fm)
	folder := folderOf(relPath)

	chunks := make([]model.Chunk, 0, len(sections))
	for i, sec := range sections {
		contentTags := extractHashtags(sec.content)
		chunks = append(chunks, model.Chunk{
			ID:            relPath + "#" + sec.header,
			FilePath:      relPath,
			Header:        sec.header,
			Content:       sec.content,
			FolderPath:    folder,
			Frontmatter:   fm,
			ChunkOrder:    i,
			Links:         extractWikilinks(sec.content),
			Tags:          mergeTags(contentTags, fmTags),
			Transclusions: extractTransclusions(sec.content),
			Attributes:    extractAttributes(sec.content),
			DataBlocks:    attachDataBlockIDs(relPath, sec.header, extractDataBlocks(sec.content)),
		})
	}

	for i := range chunks {
		for j := range chunks[i].Attributes {
			chunks[i].Attributes[j].ChunkID = chunks[i].ID
			chunks[i].Attributes[j].ID = chunks[i].ID + "#" + chunks[i].Attributes[j].Name
		}
	}

	return chunks, nil
}

func attachDataBlockIDs(filePath, header string, blocks []model.DataBlock) []model.DataBlock {
	chunkID := filePath + "#" + header
	for i := range blocks {
		blocks[i].ChunkID = chunkID
		blocks[i].FilePath = filePath
		blocks[i].ID = chunkID + "#datablock#" + strconv.Itoa(blocks[i].Index)
	}
	return blocks
}

// ParseTree walks root and parses every eligible markdown file into Chunk
// records. When expandTransclusions is set, the whole tree's raw bodies are
// warmed into the cache before any chunking happens, so transclusions can
// resolve forward references regardless of walk order.
func (p *Parser) ParseTree(root string, expandTransclusions bool) ([]model.Chunk, error) {
	files, err := p.walkMarkdownFiles(root)
	if err != nil {
		return nil, helper.WrapKind("walk tree", helper.ErrParseError, err)
	}

	if expandTransclusions {
		for _, relPath := range files {
			raw, err := os.ReadFile(filepath.Join(root, relPath))
			if err != nil {
				continue
			}
			_, body, err := splitFrontmatter(string(raw))
			if err != nil {
				continue
			}
			p.UpdateCache(PageName(relPath), body)
		}
	}

	var all []model.Chunk
	for _, relPath := range files {
		raw, err := os.ReadFile(filepath.Join(root, relPath))
		if err != nil {
			p.logger.Error("read file during tree parse", slog.String("path", relPath), slog.String("error", err.Error()))
			continue
		}
		chunks, err := p.parseContent(relPath, string(raw), expandTransclusions)
		if err != nil {
			p.logger.Error("parse file during tree parse", slog.String("path", relPath), slog.String("error", err.Error()))
			continue
		}
		all = append(all, chunks...)
	}

	return all, nil
}

// walkMarkdownFiles returns every non-excluded ".md" file under root,
// relative to root with forward slashes, sorted for deterministic output.
func (p *Parser) walkMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if ExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(rel, ".md") {
			return nil
		}
		if ExcludedFile(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// GetFrontmatter decodes just the frontmatter block of one file.
func (p *Parser) GetFrontmatter(path string) (model.Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.WrapKind("read file", helper.ErrParseError, err)
	}
	fm, _, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, helper.WrapKind("split frontmatter", helper.ErrParseError, err)
	}
	return fm, nil
}

// GetFolderPaths returns every directory reached by walking root, plus every
// parent directory of every indexed file, per §4.1.
func (p *Parser) GetFolderPaths(root string) ([]string, error) {
	files, err := p.walkMarkdownFiles(root)
	if err != nil {
		return nil, helper.WrapKind("walk tree", helper.ErrParseError, err)
	}

	set := map[string]bool{}
	for _, relPath := range files {
		for dir := folderOf(relPath); dir != ""; dir = parentOf(dir) {
			set[dir] = true
		}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		set[rel] = true
		return nil
	})
	if err != nil {
		return nil, helper.WrapKind("walk tree for folders", helper.ErrParseError, err)
	}

	out := make([]string, 0, len(set))
	for dir := range set {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out, nil
}

// GetFolderIndexPages returns, for each subfolder F whose sibling "<F>.md"
// exists, a map entry folder_path -> relative path of that index page
// (the Silverbullet convention: a folder's index page sits beside it, not
// inside it as "index.md").
func (p *Parser) GetFolderIndexPages(root string) (map[string]string, error) {
	folders, err := p.GetFolderPaths(root)
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	for _, folder := range folders {
		candidate := folder + ".md"
		if _, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(candidate))); statErr == nil {
			out[folder] = candidate
		}
	}
	return out, nil
}
